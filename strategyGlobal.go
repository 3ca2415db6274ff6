// strategyGlobal
package component

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Global is the singleton strategy: one worker per system, addressed
// by the service name through the system directory.
func Global() Strategy {
	return &globalStrategy{}
}

type globalStrategy struct {
	baseStrategy
}

func (g *globalStrategy) name() string {
	return "global"
}

// The global api takes no handle; the delegator resolves the name on
// every call so the caller always reaches the current worker.
func (g *globalStrategy) generateAPI(opts *Options, d declaration) apiEntry {
	name := d.name
	return apiEntry{name, d.kind, func(s *Service, target *WorkerRef, args []any) (any, error) {
		if target != nil {
			return nil, fmt.Errorf("operation %v.%v takes no worker handle; use Call/Cast", opts.ServiceName, name)
		}
		return s.delegators[name](s, nil, args)
	}}
}

func (g *globalStrategy) generateDelegator(opts *Options, d declaration) delegatorEntry {
	name := d.name
	service := opts.ServiceName
	if d.kind == OneWay {
		return delegatorEntry{name, func(s *Service, _ *WorkerRef, args []any) (any, error) {
			ref, err := s.sys.Lookup(service)
			if err != nil {
				return nil, err
			}
			ref.cast(name, args)
			return nil, nil
		}}
	}
	timeout := opts.Timeout
	return delegatorEntry{name, func(s *Service, _ *WorkerRef, args []any) (any, error) {
		ref, err := s.sys.Lookup(service)
		if err != nil {
			return nil, err
		}
		return ref.call(name, args, timeout)
	}}
}

func (g *globalStrategy) emitModule(arts *artifactSet, opts *Options) (*Service, error) {
	s := assembleService(g, arts, opts)
	if opts.TopLevel {
		if err := g.start(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create starts the worker and registers the service name. A second
// create while one is live is a recoverable name-already-registered
// error.
func (g *globalStrategy) create(s *Service, state any, hasState bool) (*WorkerRef, error) {
	initial := deriveInitialState(s.opts.InitialState, state, hasState)
	return s.spawnWorker(s.opts.ServiceName, initial, true)
}

func (g *globalStrategy) initialize(s *Service, state any, hasState bool) error {
	return fmt.Errorf("global service %v is created, not initialized", s.opts.ServiceName)
}

// Destroy unregisters the name first so a create racing the worker's
// own teardown cannot collide with the stale registration.
func (g *globalStrategy) destroy(s *Service, refs []*WorkerRef) error {
	if len(refs) != 0 {
		return fmt.Errorf("global destroy takes no worker handle")
	}
	ref, err := s.sys.Lookup(s.opts.ServiceName)
	if err != nil {
		return err
	}
	s.sys.unregister(s.opts.ServiceName, ref)
	ref.kill()
	return nil
}

func (g *globalStrategy) start(s *Service) error {
	_, err := g.create(s, nil, false)
	return err
}

func (g *globalStrategy) shutdown(s *Service) {
	if err := g.destroy(s, nil); err != nil {
		log.Debugf("shutdown of %v: %v", s.opts.ServiceName, err)
	}
}

func (g *globalStrategy) live(s *Service) int {
	if _, err := s.sys.Lookup(s.opts.ServiceName); err != nil {
		return 0
	}
	return 1
}
