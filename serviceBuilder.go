// serviceBuilder
package component

import (
	"fmt"
	"time"
)

// ServiceBuilder collects operation declarations and configuration for
// one service under construction, then emits the runnable Service.
// An instance is created by calling System.BuildService. Errors
// accumulate along the chain and surface from Build.
type ServiceBuilder struct {
	sys       *System
	name      string
	strat     Strategy
	decls     declarationSet
	cfg       Config
	enterFunc func(*WorkerRef)
	exitFunc  func(*WorkerRef)
	err       error
	built     bool
}

// Start building a service with the given name and strategy.
func (sys *System) BuildService(name string, strat Strategy) *ServiceBuilder {
	b := &ServiceBuilder{
		sys:   sys,
		name:  name,
		strat: strat,
		cfg:   Config{},
	}
	if strat == nil {
		b.err = fmt.Errorf("service %v needs a strategy", name)
	} else if !identRx.MatchString(name) {
		b.err = fmt.Errorf("service name must be a simple identifier, got %v", name)
	}
	return b
}

// OneWay declares a fire-and-forget state update. The body receives
// the current state plus the call's arguments and returns the next
// state.
func (b *ServiceBuilder) OneWay(name string, body OneWayFunc) *ServiceBuilder {
	b.declare(declaration{kind: OneWay, name: name, oneWay: body})
	return b
}

// TwoWay declares a request/response operation. The body's return
// value is the reply; SetStateAndReturn and SetStateThen also replace
// the state.
func (b *ServiceBuilder) TwoWay(name string, body TwoWayFunc) *ServiceBuilder {
	b.declare(declaration{kind: TwoWay, name: name, twoWay: body})
	return b
}

func (b *ServiceBuilder) declare(d declaration) {
	if b.err != nil {
		return
	}
	if !identRx.MatchString(d.name) {
		b.err = fmt.Errorf("operation name must be a simple identifier, got %v", d.name)
		return
	}
	if (d.kind == OneWay && d.oneWay == nil) || (d.kind == TwoWay && d.twoWay == nil) {
		b.err = fmt.Errorf("operation %v needs a body", d.name)
		return
	}
	b.err = b.decls.add(d)
}

// WithConfig merges raw configuration; later keys win. See Config for
// the recognized keys.
func (b *ServiceBuilder) WithConfig(cfg Config) *ServiceBuilder {
	if b.err == nil {
		for k, v := range cfg {
			b.cfg[k] = v
		}
	}
	return b
}

// WithInitialState sets the default initial state: a constant, or a
// func(any) any called with the creation override (nil when absent).
func (b *ServiceBuilder) WithInitialState(v any) *ServiceBuilder {
	return b.set("initial_state", v)
}

// WithStateName names the state value in diagnostics.
func (b *ServiceBuilder) WithStateName(name string) *ServiceBuilder {
	return b.set("state_name", name)
}

// WithTimeout bounds two-way calls, pool checkouts and consumes.
func (b *ServiceBuilder) WithTimeout(d time.Duration) *ServiceBuilder {
	return b.set("timeout", d)
}

// WithPoolSize bounds a pooled service.
func (b *ServiceBuilder) WithPoolSize(min, max int) *ServiceBuilder {
	return b.set("pool", PoolSize{min, max})
}

// WithConcurrency sets a hungry service's default in-flight bound.
func (b *ServiceBuilder) WithConcurrency(n int) *ServiceBuilder {
	return b.set("concurrency", n)
}

// TopLevel starts the service as part of Build.
func (b *ServiceBuilder) TopLevel() *ServiceBuilder {
	return b.set("top_level", true)
}

// WithChildSpec customizes the descriptor returned by
// Service.ChildSpec.
func (b *ServiceBuilder) WithChildSpec(o ChildSpecOverrides) *ServiceBuilder {
	return b.set("child_spec", o)
}

func (b *ServiceBuilder) set(key string, v any) *ServiceBuilder {
	if b.err == nil {
		b.cfg[key] = v
	}
	return b
}

// WithEnter adds a hook called once when each worker starts.
func (b *ServiceBuilder) WithEnter(fn func(*WorkerRef)) *ServiceBuilder {
	if b.err == nil {
		b.enterFunc = fn
	}
	return b
}

// WithExit adds a hook called once when each worker stops.
func (b *ServiceBuilder) WithExit(fn func(*WorkerRef)) *ServiceBuilder {
	if b.err == nil {
		b.exitFunc = fn
	}
	return b
}

// Build is the emission pipeline and must be the last call in the
// chain: it resolves the options, runs the strategy's generators over
// the declarations in order, and asks the strategy to emit the
// assembled service. Emission happens exactly once - the declaration
// scope is torn down afterwards, and a second Build fails rather than
// producing partial code.
func (b *ServiceBuilder) Build() (*Service, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, fmt.Errorf("service %v already built: %w", b.name, ErrClosed)
	}

	decls := b.decls.list()
	if len(decls) == 0 {
		return nil, fmt.Errorf("service %v declares no operations", b.name)
	}

	opts, err := resolveOptions(b.cfg, b.strat, b.name)
	if err != nil {
		return nil, err
	}

	arts := generateArtifacts(b.strat, opts, decls)
	arts.sys = b.sys
	arts.enterFunc = b.enterFunc
	arts.exitFunc = b.exitFunc

	svc, err := b.strat.emitModule(arts, opts)

	b.decls.close()
	b.built = true
	if err != nil {
		return nil, err
	}

	b.sys.addService(svc)
	b.sys.sysBus.Publish(ServiceLifecycle, opts.ServiceName+" built ("+b.strat.name()+")")
	return svc, nil
}
