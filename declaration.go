// declaration
package component

import "fmt"

// Kind distinguishes the two operation shapes.
type Kind int

const (
	// OneWay operations are asynchronous state updates. The body's
	// return value always becomes the worker's next state and the
	// caller never waits.
	OneWay Kind = iota
	// TwoWay operations block the caller for a reply and may also
	// replace the state via SetStateAndReturn / SetStateThen.
	TwoWay
)

func (k Kind) String() string {
	switch k {
	case OneWay:
		return "one-way"
	case TwoWay:
		return "two-way"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// OneWayFunc is the body of a one-way operation. It receives the
// current state explicitly, followed by the call's arguments, and
// returns the next state.
type OneWayFunc func(state any, args ...any) any

// TwoWayFunc is the body of a two-way operation. Its return value is
// the reply and the state is left unchanged, unless it returns a
// StateChange built with SetStateAndReturn or SetStateThen.
type TwoWayFunc func(state any, args ...any) any

// declaration is one collected operation. Immutable once collected,
// consumed exactly once at build time, gone at run time.
type declaration struct {
	kind   Kind
	name   string
	oneWay OneWayFunc
	twoWay TwoWayFunc
}

// declarationSet accumulates declarations for one service under
// construction, in declaration order. The owning builder tears it down
// exactly once after emission so no definition-time state leaks into
// other service definitions.
type declarationSet struct {
	decls  []declaration
	closed bool
}

func (ds *declarationSet) add(d declaration) error {
	if ds.closed {
		return fmt.Errorf("declaration of %v after build: %w", d.name, ErrClosed)
	}
	for _, have := range ds.decls {
		if have.name == d.name {
			return fmt.Errorf("operation %v declared twice", d.name)
		}
	}
	ds.decls = append(ds.decls, d)
	return nil
}

func (ds *declarationSet) list() []declaration {
	out := make([]declaration, len(ds.decls))
	copy(out, ds.decls)
	return out
}

func (ds *declarationSet) close() {
	ds.decls = nil
	ds.closed = true
}
