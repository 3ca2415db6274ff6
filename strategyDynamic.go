// strategyDynamic
package component

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Dynamic is the factory strategy: a supervisor manages an unbounded
// set of independent workers, each created on demand and addressed by
// the handle Create returned.
func Dynamic() Strategy {
	return &dynamicStrategy{}
}

type dynamicStrategy struct {
	baseStrategy
}

func (d *dynamicStrategy) name() string {
	return "dynamic"
}

func (d *dynamicStrategy) emitModule(arts *artifactSet, opts *Options) (*Service, error) {
	s := assembleService(d, arts, opts)
	if opts.TopLevel {
		if err := d.start(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (d *dynamicStrategy) initialize(s *Service, state any, hasState bool) error {
	if hasState {
		return fmt.Errorf("dynamic initialize takes no state; pass overrides to CreateWith")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return fmt.Errorf("service %v already initialized", s.opts.ServiceName)
	}
	s.sup = newSupervisor()
	s.sys.sysBus.Publish(ServiceLifecycle, s.opts.ServiceName+" supervisor running")
	return nil
}

// Create starts one worker under the supervisor and returns its
// handle. Each worker derives its own initial state, so two handles
// never share anything.
func (d *dynamicStrategy) create(s *Service, state any, hasState bool) (*WorkerRef, error) {
	sup := s.supervisor()
	if sup == nil {
		return nil, fmt.Errorf("service %v: %w (call Initialize first)", s.opts.ServiceName, ErrNotRunning)
	}
	initial := deriveInitialState(s.opts.InitialState, state, hasState)
	name := fmt.Sprintf("%v#%v", s.opts.ServiceName, uuid.NewString()[:8])
	ref, err := s.spawnWorker(name, initial, false)
	if err != nil {
		return nil, err
	}
	sup.add(ref)
	return ref, nil
}

func (d *dynamicStrategy) destroy(s *Service, refs []*WorkerRef) error {
	if len(refs) != 1 || refs[0] == nil {
		return fmt.Errorf("dynamic destroy takes the worker handle to terminate")
	}
	sup := s.supervisor()
	if sup == nil {
		return fmt.Errorf("service %v: %w", s.opts.ServiceName, ErrNotRunning)
	}
	return sup.remove(refs[0])
}

func (d *dynamicStrategy) start(s *Service) error {
	return d.initialize(s, nil, false)
}

func (d *dynamicStrategy) shutdown(s *Service) {
	if sup := s.supervisor(); sup != nil {
		sup.shutdownAll()
	}
}

func (d *dynamicStrategy) live(s *Service) int {
	sup := s.supervisor()
	if sup == nil {
		return 0
	}
	return sup.count()
}

// supervisor tracks the live workers of one dynamic service.
type supervisor struct {
	mu      sync.RWMutex
	workers map[string]*WorkerRef
}

func newSupervisor() *supervisor {
	return &supervisor{workers: make(map[string]*WorkerRef)}
}

func (sup *supervisor) add(ref *WorkerRef) {
	sup.mu.Lock()
	sup.workers[ref.id] = ref
	sup.mu.Unlock()
}

func (sup *supervisor) remove(ref *WorkerRef) error {
	sup.mu.Lock()
	have, ok := sup.workers[ref.id]
	delete(sup.workers, ref.id)
	sup.mu.Unlock()
	if !ok {
		return fmt.Errorf("worker %v is not supervised here: %w", ref.id, ErrNotRunning)
	}
	have.kill()
	return nil
}

func (sup *supervisor) count() int {
	sup.mu.RLock()
	defer sup.mu.RUnlock()
	return len(sup.workers)
}

func (sup *supervisor) shutdownAll() {
	sup.mu.Lock()
	refs := make([]*WorkerRef, 0, len(sup.workers))
	for _, ref := range sup.workers {
		refs = append(refs, ref)
	}
	sup.workers = make(map[string]*WorkerRef)
	sup.mu.Unlock()
	for _, ref := range refs {
		ref.kill()
	}
}
