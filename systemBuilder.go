// systemBuilder
package component

import (
	log "github.com/sirupsen/logrus"
)

// Builder for a System.
type SystemBuilder struct {
	sys    *System
	dlFunc func(DeadLetter)
}

// Start building a system. The defaults are a logging dead letter
// queue and the built-in fixed+overflow pool runner.
func BuildSystem() *SystemBuilder {
	sys := &System{
		workers:    make(map[string]*WorkerRef),
		dlq:        make(chan DeadLetter, 10),
		done:       make(chan struct{}),
		poolRunner: defaultPoolRunner{},
	}
	sys.sysBus = NewEventBus(nil)

	return &SystemBuilder{
		sys: sys,
		dlFunc: func(dl DeadLetter) {
			log.WithFields(log.Fields{
				"reason": dl.Reason,
				"worker": dl.Worker,
				"op":     dl.Op,
			}).Error("dead letter")
		},
	}
}

// Assign user data to the system.
func (sb *SystemBuilder) WithSystemData(userData any) *SystemBuilder {
	sb.sys.userData = userData
	return sb
}

// Replace the dead letter handler.
func (sb *SystemBuilder) WithDeadLetterQueue(fn func(DeadLetter)) *SystemBuilder {
	sb.dlFunc = fn
	return sb
}

// Replace the pool runner. Passing nil builds a system without pooling
// support; pooled services then fail Initialize with a diagnostic.
func (sb *SystemBuilder) WithPoolRunner(runner PoolRunner) *SystemBuilder {
	sb.sys.poolRunner = runner
	return sb
}

// Run starts the dead letter queue drainer and returns the system. The
// drainer runs until System.Shutdown.
func (sb *SystemBuilder) Run() *System {
	dlFunc := sb.dlFunc
	sys := sb.sys
	go func() {
		for {
			select {
			case dl := <-sys.dlq:
				dlFunc(dl)
			case <-sys.done:
				return
			}
		}
	}()
	return sys
}
