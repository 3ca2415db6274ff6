// strategyPooled
package component

import (
	"fmt"
)

// Pooled is the bounded-pool strategy: Initialize pre-starts min
// workers sharing one initial state, Create leases a member (blocking
// up to the timeout), Destroy releases the lease. Member state is
// retained across leases.
func Pooled() Strategy {
	return &pooledStrategy{}
}

type pooledStrategy struct {
	baseStrategy
}

func (p *pooledStrategy) name() string {
	return "pooled"
}

// Pooled consumes the "pool" key: a PoolSize, default {1, 2}.
func (p *pooledStrategy) resolveOptions(cfg Config, opts *Options) error {
	opts.Pool = PoolSize{Min: 1, Max: 2}
	if v, ok := cfg["pool"]; ok {
		delete(cfg, "pool")
		size, ok := v.(PoolSize)
		if !ok {
			return fmt.Errorf("option pool must be a PoolSize, got %T", v)
		}
		opts.Pool = size
	}
	if opts.Pool.Min < 1 {
		return fmt.Errorf("pool min must be at least 1, got %v", opts.Pool.Min)
	}
	if opts.Pool.Min > opts.Pool.Max {
		return fmt.Errorf("pool min %v exceeds max %v", opts.Pool.Min, opts.Pool.Max)
	}
	return nil
}

func (p *pooledStrategy) emitModule(arts *artifactSet, opts *Options) (*Service, error) {
	s := assembleService(p, arts, opts)
	if opts.TopLevel {
		if err := p.start(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Initialize starts the pool through the system's runner. Every member
// starts from the same derived initial value; an explicit state
// argument overrides the configured default for the whole pool.
func (p *pooledStrategy) initialize(s *Service, state any, hasState bool) error {
	runner := s.sys.poolRunner
	if runner == nil {
		return fmt.Errorf("service %v needs a pool runner; build the system with one: %w",
			s.opts.ServiceName, ErrNoPoolRunner)
	}

	s.mu.Lock()
	if s.pool != nil {
		s.mu.Unlock()
		return fmt.Errorf("service %v already initialized", s.opts.ServiceName)
	}
	s.mu.Unlock()

	initial := deriveInitialState(s.opts.InitialState, state, hasState)
	pool, err := runner.Run(PoolConfig{
		Name:    s.opts.ServiceName,
		Min:     s.opts.Pool.Min,
		Max:     s.opts.Pool.Max,
		Timeout: s.opts.Timeout,
		Spawn: func(instance int) (*WorkerRef, error) {
			name := fmt.Sprintf("%v#%v", s.opts.ServiceName, instance)
			return s.spawnWorker(name, initial, false)
		},
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.pool != nil {
		s.mu.Unlock()
		pool.Shutdown()
		return fmt.Errorf("service %v already initialized", s.opts.ServiceName)
	}
	s.pool = pool
	s.mu.Unlock()
	s.sys.sysBus.Publish(ServiceLifecycle, s.opts.ServiceName+" pool running")
	return nil
}

// Create is a checkout: the handle identifies a leased member, not a
// fresh worker.
func (p *pooledStrategy) create(s *Service, state any, hasState bool) (*WorkerRef, error) {
	if hasState {
		return nil, fmt.Errorf("pooled create takes no state; pass it to InitializeWith")
	}
	pool := s.leasePool()
	if pool == nil {
		return nil, fmt.Errorf("service %v: %w (call Initialize first)", s.opts.ServiceName, ErrNotRunning)
	}
	return pool.Checkout(s.opts.Timeout)
}

// Destroy is the matching checkin.
func (p *pooledStrategy) destroy(s *Service, refs []*WorkerRef) error {
	if len(refs) != 1 || refs[0] == nil {
		return fmt.Errorf("pooled destroy takes the leased handle to release")
	}
	pool := s.leasePool()
	if pool == nil {
		return fmt.Errorf("service %v: %w", s.opts.ServiceName, ErrNotRunning)
	}
	return pool.Checkin(refs[0])
}

func (p *pooledStrategy) start(s *Service) error {
	return p.initialize(s, nil, false)
}

func (p *pooledStrategy) shutdown(s *Service) {
	if pool := s.leasePool(); pool != nil {
		pool.Shutdown()
	}
}

func (p *pooledStrategy) live(s *Service) int {
	pool := s.leasePool()
	if pool == nil {
		return 0
	}
	return pool.Live()
}
