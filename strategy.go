// strategy
package component

import "fmt"

// The four artifact shapes every strategy generates from a declaration.
//
// implementation: the operation body with the state bound explicitly.
// handler: mailbox dispatch - interprets the body's return value per
// the operation kind and replaces the worker state.
// delegator: strategy addressing - resolves the target worker and
// performs the send (one-way) or the call with timeout (two-way).
// api: the public entry - validates the addressing expectation, then
// delegates.
type implFunc func(state any, args []any) any
type handlerFunc func(w *worker, m serviceMsg)
type delegatorFunc func(s *Service, target *WorkerRef, args []any) (any, error)
type apiFunc func(s *Service, target *WorkerRef, args []any) (any, error)

type implEntry struct {
	name string
	fn   implFunc
}
type handlerEntry struct {
	name string
	fn   handlerFunc
}
type delegatorEntry struct {
	name string
	fn   delegatorFunc
}
type apiEntry struct {
	name string
	kind Kind
	fn   apiFunc
}

// artifactSet carries the generated artifacts, in declaration order
// within each kind, plus the pieces of the definition that are not
// per-declaration: the system, the lifecycle hooks.
type artifactSet struct {
	apis       []apiEntry
	handlers   []handlerEntry
	impls      []implEntry
	delegators []delegatorEntry
	sys        *System
	enterFunc  func(*WorkerRef)
	exitFunc   func(*WorkerRef)
}

// Strategy is the concurrency shape of a service: Global, Dynamic,
// Pooled or Hungry. A strategy turns each declaration into the four
// artifact kinds, assembles them into a Service, and drives that
// service's worker lifecycle. The interface is sealed; the four
// constructors are the only implementations.
type Strategy interface {
	name() string

	// capability extension point of option resolution; the strategy
	// consumes its own keys from cfg and fills in its defaults
	resolveOptions(cfg Config, opts *Options) error

	generateAPI(opts *Options, d declaration) apiEntry
	generateHandler(opts *Options, d declaration) handlerEntry
	generateImplementation(opts *Options, d declaration) implEntry
	generateDelegator(opts *Options, d declaration) delegatorEntry
	emitModule(arts *artifactSet, opts *Options) (*Service, error)

	// runtime lifecycle behind the Service surface
	create(s *Service, state any, hasState bool) (*WorkerRef, error)
	initialize(s *Service, state any, hasState bool) error
	destroy(s *Service, refs []*WorkerRef) error
	start(s *Service) error
	shutdown(s *Service)
	live(s *Service) int
}

// generateArtifacts runs the per-declaration generators in declaration
// order. Order does not affect correctness - every entry addresses a
// distinct operation name - but it keeps the assembly deterministic.
func generateArtifacts(strat Strategy, opts *Options, decls []declaration) *artifactSet {
	arts := &artifactSet{}
	for _, d := range decls {
		arts.apis = append(arts.apis, strat.generateAPI(opts, d))
		arts.handlers = append(arts.handlers, strat.generateHandler(opts, d))
		arts.impls = append(arts.impls, strat.generateImplementation(opts, d))
		arts.delegators = append(arts.delegators, strat.generateDelegator(opts, d))
	}
	return arts
}

// baseStrategy supplies the artifact shapes that are identical across
// strategies; each variant overrides what differs.
type baseStrategy struct{}

func (baseStrategy) resolveOptions(cfg Config, opts *Options) error {
	return nil
}

// The implementation always receives the state explicitly; there is no
// ambient binding.
func (baseStrategy) generateImplementation(opts *Options, d declaration) implEntry {
	if d.kind == OneWay {
		body := d.oneWay
		return implEntry{d.name, func(state any, args []any) any {
			return body(state, args...)
		}}
	}
	body := d.twoWay
	return implEntry{d.name, func(state any, args []any) any {
		return body(state, args...)
	}}
}

// The handler runs inside the worker loop. A one-way body's return
// value becomes the next state, unconditionally. A two-way body's
// return value is the reply with the state unchanged, unless it is a
// StateChange, which carries both.
func (b baseStrategy) generateHandler(opts *Options, d declaration) handlerEntry {
	impl := b.generateImplementation(opts, d).fn
	if d.kind == OneWay {
		return handlerEntry{d.name, func(w *worker, m serviceMsg) {
			w.state = impl(w.state, m.Args())
		}}
	}
	return handlerEntry{d.name, func(w *worker, m serviceMsg) {
		cm, ok := m.(callMsg)
		if !ok {
			w.sys.ToDeadLetter(DeadLetter{w.name, m.Op(), m.Args(), "two-way operation sent without reply channel"})
			return
		}
		result := impl(w.state, m.Args())
		if sc, isChange := result.(StateChange); isChange {
			w.state = sc.state
			cm.reply(sc.reply, nil)
			return
		}
		cm.reply(result, nil)
	}}
}

// The default api requires an explicit worker handle and hands it to
// the delegator; Global and Hungry override.
func (baseStrategy) generateAPI(opts *Options, d declaration) apiEntry {
	name := d.name
	return apiEntry{name, d.kind, func(s *Service, target *WorkerRef, args []any) (any, error) {
		if target == nil {
			return nil, fmt.Errorf("operation %v.%v needs a worker handle; use CallOn/CastOn", opts.ServiceName, name)
		}
		return s.delegators[name](s, target, args)
	}}
}

// The default delegator sends to the given target: a cast for one-way,
// a call with the resolved timeout for two-way.
func (baseStrategy) generateDelegator(opts *Options, d declaration) delegatorEntry {
	name := d.name
	if d.kind == OneWay {
		return delegatorEntry{name, func(s *Service, target *WorkerRef, args []any) (any, error) {
			target.cast(name, args)
			return nil, nil
		}}
	}
	timeout := opts.Timeout
	return delegatorEntry{name, func(s *Service, target *WorkerRef, args []any) (any, error) {
		return target.call(name, args, timeout)
	}}
}

// assembleService builds the Service record every emitModule starts
// from: artifact maps keyed by operation name plus the declaration
// order.
func assembleService(strat Strategy, arts *artifactSet, opts *Options) *Service {
	s := &Service{
		sys:        arts.sys,
		strat:      strat,
		opts:       opts,
		apis:       make(map[string]apiEntry, len(arts.apis)),
		handlers:   make(map[string]handlerFunc, len(arts.handlers)),
		impls:      make(map[string]implFunc, len(arts.impls)),
		delegators: make(map[string]delegatorFunc, len(arts.delegators)),
		enterFunc:  arts.enterFunc,
		exitFunc:   arts.exitFunc,
	}
	for _, e := range arts.apis {
		s.apis[e.name] = e
		s.order = append(s.order, e.name)
	}
	for _, e := range arts.handlers {
		s.handlers[e.name] = e.fn
	}
	for _, e := range arts.impls {
		s.impls[e.name] = e.fn
	}
	for _, e := range arts.delegators {
		s.delegators[e.name] = e.fn
	}
	return s
}
