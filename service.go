// service
package component

import (
	"fmt"
	"sync"
	"time"
)

// Service is the emitted public surface of one service definition. The
// methods that apply depend on the strategy: Global uses Create /
// Destroy / Call / Cast; Dynamic and Pooled add Initialize and address
// workers through CallOn / CastOn; Hungry uses Initialize and Consume.
type Service struct {
	sys        *System
	strat      Strategy
	opts       *Options
	apis       map[string]apiEntry
	handlers   map[string]handlerFunc
	impls      map[string]implFunc
	delegators map[string]delegatorFunc
	order      []string
	enterFunc  func(*WorkerRef)
	exitFunc   func(*WorkerRef)

	// hungry only
	processImpl implFunc

	mu          sync.Mutex
	initialized bool
	sup         *supervisor
	pool        Pool
}

// Name returns the resolved service name.
func (s *Service) Name() string {
	return s.opts.ServiceName
}

// Strategy returns the strategy name: global, dynamic, pooled, hungry.
func (s *Service) Strategy() string {
	return s.strat.name()
}

// Operations lists the declared operation names in declaration order.
func (s *Service) Operations() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Options returns the resolved, immutable options.
func (s *Service) Options() Options {
	return *s.opts
}

// Create starts (Global), spawns (Dynamic) or leases (Pooled) a
// worker, using the configured initial state.
func (s *Service) Create() (*WorkerRef, error) {
	return s.strat.create(s, nil, false)
}

// CreateWith is Create with an explicit state override, fed through
// the initial-state derivation.
func (s *Service) CreateWith(state any) (*WorkerRef, error) {
	return s.strat.create(s, state, true)
}

// Initialize readies a Dynamic supervisor, a Pooled pool or a Hungry
// consumer.
func (s *Service) Initialize() error {
	return s.strat.initialize(s, nil, false)
}

// InitializeWith is Initialize with a state override for the whole
// pool (Pooled only).
func (s *Service) InitializeWith(state any) error {
	return s.strat.initialize(s, state, true)
}

// Destroy stops the global worker (no argument), terminates a dynamic
// worker, or releases a pooled lease (the handle).
func (s *Service) Destroy(refs ...*WorkerRef) error {
	return s.strat.destroy(s, refs)
}

// Call invokes a declared two-way operation on a Global service,
// blocking for the reply up to the configured timeout.
func (s *Service) Call(op string, args ...any) (any, error) {
	return s.invoke(op, TwoWay, nil, args)
}

// Cast sends a declared one-way operation to a Global service and
// returns without waiting.
func (s *Service) Cast(op string, args ...any) error {
	_, err := s.invoke(op, OneWay, nil, args)
	return err
}

// CallOn is Call addressed to a specific worker handle (Dynamic and
// Pooled).
func (s *Service) CallOn(ref *WorkerRef, op string, args ...any) (any, error) {
	return s.invoke(op, TwoWay, ref, args)
}

// CastOn is Cast addressed to a specific worker handle.
func (s *Service) CastOn(ref *WorkerRef, op string, args ...any) error {
	_, err := s.invoke(op, OneWay, ref, args)
	return err
}

func (s *Service) invoke(op string, kind Kind, target *WorkerRef, args []any) (any, error) {
	e, ok := s.apis[op]
	if !ok {
		return nil, fmt.Errorf("%v.%v: %w", s.opts.ServiceName, op, ErrUnknownOperation)
	}
	if e.kind != kind {
		if kind == TwoWay {
			return nil, fmt.Errorf("operation %v.%v is one-way; use Cast", s.opts.ServiceName, op)
		}
		return nil, fmt.Errorf("operation %v.%v is two-way; use Call", s.opts.ServiceName, op)
	}
	return e.fn(s, target, args)
}

// ChildSpec returns a descriptor for embedding the service in a
// caller's supervision arrangement. Start runs Create (Global) or
// Initialize (the rest); Shutdown stops every worker.
func (s *Service) ChildSpec() ChildSpec {
	id := s.opts.ServiceName
	if s.opts.ChildSpec != nil && s.opts.ChildSpec.ID != "" {
		id = s.opts.ChildSpec.ID
	}
	var grace time.Duration
	if s.opts.ChildSpec != nil {
		grace = s.opts.ChildSpec.Shutdown
	}
	return ChildSpec{
		ID:    id,
		Start: func() error { return s.strat.start(s) },
		Shutdown: func() error {
			s.strat.shutdown(s)
			if grace > 0 {
				deadline := time.Now().Add(grace)
				for time.Now().Before(deadline) && s.strat.live(s) > 0 {
					time.Sleep(5 * time.Millisecond)
				}
			}
			return nil
		},
	}
}

// ChildSpec describes how to run a service as a supervised child.
type ChildSpec struct {
	ID       string
	Start    func() error
	Shutdown func() error
}

// supervisor returns the dynamic supervisor, nil before Initialize.
func (s *Service) supervisor() *supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sup
}

// leasePool returns the pool, nil before Initialize.
func (s *Service) leasePool() Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}
