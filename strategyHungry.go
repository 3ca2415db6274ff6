// strategyHungry
package component

import (
	"fmt"
	"runtime"
)

// Hungry is the stream-consumer strategy: no persistent state, just a
// bounded-concurrency Consume over a collection. The service's single
// declared operation is the process function applied to every element.
func Hungry() Strategy {
	return &hungryStrategy{}
}

type hungryStrategy struct {
	baseStrategy
}

func (h *hungryStrategy) name() string {
	return "hungry"
}

// Hungry consumes the "concurrency" key: the default bound for
// elements in flight, falling back to the available parallelism.
func (h *hungryStrategy) resolveOptions(cfg Config, opts *Options) error {
	opts.Concurrency = runtime.GOMAXPROCS(0)
	if v, ok := cfg["concurrency"]; ok {
		delete(cfg, "concurrency")
		n, ok := v.(int)
		if !ok || n < 1 {
			return fmt.Errorf("option concurrency must be a positive int, got %v", v)
		}
		opts.Concurrency = n
	}
	return nil
}

// Hungry operations are not called directly; the whole surface is
// Initialize plus Consume.
func (h *hungryStrategy) generateAPI(opts *Options, d declaration) apiEntry {
	name := d.name
	return apiEntry{name, d.kind, func(s *Service, target *WorkerRef, args []any) (any, error) {
		return nil, fmt.Errorf("hungry service %v is consumed, not called; use Consume", opts.ServiceName)
	}}
}

func (h *hungryStrategy) generateDelegator(opts *Options, d declaration) delegatorEntry {
	name := d.name
	return delegatorEntry{name, func(s *Service, target *WorkerRef, args []any) (any, error) {
		return nil, fmt.Errorf("hungry service %v is consumed, not called; use Consume", opts.ServiceName)
	}}
}

func (h *hungryStrategy) emitModule(arts *artifactSet, opts *Options) (*Service, error) {
	if len(arts.impls) != 1 {
		return nil, fmt.Errorf("hungry service %v needs exactly one process operation, got %v",
			opts.ServiceName, len(arts.impls))
	}
	s := assembleService(h, arts, opts)
	s.processImpl = arts.impls[0].fn
	if opts.TopLevel {
		if err := h.start(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (h *hungryStrategy) initialize(s *Service, state any, hasState bool) error {
	if hasState {
		return fmt.Errorf("hungry services hold no state")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return fmt.Errorf("service %v already initialized", s.opts.ServiceName)
	}
	s.initialized = true
	s.sys.sysBus.Publish(ServiceLifecycle, s.opts.ServiceName+" consumer running")
	return nil
}

func (h *hungryStrategy) create(s *Service, state any, hasState bool) (*WorkerRef, error) {
	return nil, fmt.Errorf("hungry service %v has no workers to create; use Consume", s.opts.ServiceName)
}

func (h *hungryStrategy) destroy(s *Service, refs []*WorkerRef) error {
	return fmt.Errorf("hungry service %v has no workers to destroy", s.opts.ServiceName)
}

func (h *hungryStrategy) start(s *Service) error {
	return h.initialize(s, nil, false)
}

func (h *hungryStrategy) shutdown(s *Service) {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
}

func (h *hungryStrategy) live(s *Service) int {
	return 0
}
