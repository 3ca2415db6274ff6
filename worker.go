// worker
package component

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// worker is a generated service instance: a goroutine reading its
// private mailbox and holding the single mutable state value. State is
// owned exclusively by the loop; all interaction is message-based.
type worker struct {
	sys        *System
	mailbox    chan serviceMsg
	handlers   map[string]handlerFunc
	state      any
	enterFunc  func(*WorkerRef)
	exitFunc   func(*WorkerRef)
	name       string
	registered bool
	ref        *WorkerRef
}

// spawnWorker builds a worker for the service and starts its loop. A
// registered worker claims the service name in the system directory;
// dynamic and pooled members stay out of the directory and are
// addressed by ref only.
func (s *Service) spawnWorker(name string, state any, registered bool) (*WorkerRef, error) {
	w := &worker{
		sys:        s.sys,
		mailbox:    make(chan serviceMsg, 10),
		handlers:   s.handlers,
		state:      state,
		enterFunc:  s.enterFunc,
		exitFunc:   s.exitFunc,
		name:       name,
		registered: registered,
	}
	w.ref = &WorkerRef{s.sys, w.mailbox, uuid.NewString(), name}
	return w.start()
}

func (w *worker) start() (*WorkerRef, error) {
	if w.registered {
		if err := w.sys.register(w.ref); err != nil {
			log.Error(err)
			return nil, err
		}
	}
	if w.enterFunc != nil {
		w.sys.sysBus.Publish(ServiceLifecycle, w.name+" enterFunc")
		w.enterFunc(w.ref)
	}
	w.sys.sysBus.Publish(ServiceLifecycle, w.name+" running")
	go w.loop()
	return w.ref, nil
}

// This is the main loop that reads messages from the worker mailbox and
// invokes the dispatch handler for the named operation. If the message
// is a poison message it is intercepted, the exit hook runs and the
// worker terminates.
func (w *worker) loop() {
	for msg := range w.mailbox {
		if msg.IsPoison() {
			if w.exitFunc != nil {
				w.sys.sysBus.Publish(ServiceLifecycle, w.name+" exitFunc")
				w.exitFunc(w.ref)
			}
			if w.registered {
				w.sys.unregister(w.name, w.ref)
			}
			w.sys.sysBus.Publish(ServiceLifecycle, w.name+" stopped")
			return
		}
		w.dispatch(msg)
	}
}

// Run one message through its handler. A panicking operation body
// cannot take the worker down: the message goes to the dead letter
// queue and the worker continues with the next message. A two-way
// caller of the failed message is left to its timeout, the same as a
// genuine crash would leave it.
func (w *worker) dispatch(msg serviceMsg) {
	defer func() {
		if x := recover(); x != nil {
			w.sys.sysBus.Publish(ServiceProblem, fmt.Sprintf("%v caught panic: %v", w.name, x))
			w.sys.ToDeadLetter(DeadLetter{w.name, msg.Op(), msg.Args(), fmt.Sprintf("panic: %v", x)})
		}
	}()

	h, ok := w.handlers[msg.Op()]
	if !ok {
		w.sys.ToDeadLetter(DeadLetter{w.name, msg.Op(), msg.Args(), "no such operation"})
		return
	}
	h(w, msg)
}
