package component

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Topics on the system message bus
const (
	ServiceLifecycle = "serviceLifecycle"
	ServiceProblem   = "serviceProblem"
)

// DeadLetter describes a message the runtime could not process: an
// operation body panicked, or a raw ref carried an unknown operation.
type DeadLetter struct {
	Worker string
	Op     string
	Args   []any
	Reason string
}

// The System hosts every service built against it. It supplies the
// platform primitives the strategies rely on: the directory of named
// workers, the dead letter queue, the lifecycle event bus, and the
// pool runner for pooled services.
type System struct {
	workers    map[string]*WorkerRef
	services   []*Service
	sysBus     EventBus
	dlq        chan DeadLetter
	done       chan struct{}
	stopped    bool
	poolRunner PoolRunner
	sync.Mutex
	userData any
}

// Create a system with the default dead letter queue and pool runner.
func NewSystem() *System {
	return BuildSystem().Run()
}

// Register the worker under its name.
func (sys *System) register(ref *WorkerRef) error {
	sys.Lock()
	_, ok := sys.workers[ref.name]
	if ok {
		sys.Unlock()
		return fmt.Errorf("worker %v: %w", ref.name, ErrAlreadyRegistered)
	}
	sys.workers[ref.name] = ref
	sys.Unlock()

	sys.sysBus.Publish(ServiceLifecycle, ref.name+" registered")
	return nil
}

// Unregister the worker. The entry is removed only while it still maps
// to this ref, so a stale worker tearing down cannot evict a successor
// registered under the same name.
func (sys *System) unregister(name string, ref *WorkerRef) {
	sys.Lock()
	have, ok := sys.workers[name]
	owned := ok && have.id == ref.id
	if owned {
		delete(sys.workers, name)
	}
	sys.Unlock()

	if owned {
		sys.sysBus.Publish(ServiceLifecycle, name+" unregistered")
	}
}

// Lookup resolves a service name to the ref of its current worker.
func (sys *System) Lookup(name string) (*WorkerRef, error) {
	sys.Lock()
	ref, ok := sys.workers[name]
	sys.Unlock()
	if !ok {
		return nil, fmt.Errorf("no worker named [%v]: %w", name, ErrNotRunning)
	}
	return ref, nil
}

// ListWorkers returns the names of all registered workers.
func (sys *System) ListWorkers() []string {
	sys.Lock()
	defer sys.Unlock()
	keys := make([]string, 0, len(sys.workers))
	for k := range sys.workers {
		keys = append(keys, k)
	}
	return keys
}

// Send a dead letter to the DLQ. After shutdown the letter is dropped;
// the drainer is gone and nobody is left to read it.
func (sys *System) ToDeadLetter(dl DeadLetter) {
	select {
	case sys.dlq <- dl:
	case <-sys.done:
	}
}

// SystemBus returns the bus that publishes lifecycle events:
// registered, enterFunc, running, exitFunc, stopped, unregistered,
// caught panic.
func (sys *System) SystemBus() *EventBus {
	return &sys.sysBus
}

// SystemData returns the user data assigned at build time.
func (sys *System) SystemData() any {
	return sys.userData
}

// track a built service so Shutdown can reach it
func (sys *System) addService(s *Service) {
	sys.Lock()
	sys.services = append(sys.services, s)
	sys.Unlock()
}

// Shutdown stops every service in the system and waits up to the
// timeout for their workers to drain.
func (sys *System) Shutdown(timeout time.Duration) {
	sys.Lock()
	services := make([]*Service, len(sys.services))
	copy(services, sys.services)
	sys.Unlock()

	log.Infof("system shutdown: stopping %v services", len(services))
	for _, s := range services {
		s.strat.shutdown(s)
	}

	defer sys.stopDrain()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		live := 0
		for _, s := range services {
			live += s.strat.live(s)
		}
		if live == 0 {
			log.Info("system shutdown complete")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Warn("system shutdown timed out with workers still live")
}

// stopDrain lets the dead letter drainer goroutine exit. Safe to call
// more than once.
func (sys *System) stopDrain() {
	sys.Lock()
	if !sys.stopped {
		sys.stopped = true
		close(sys.done)
	}
	sys.Unlock()
}
