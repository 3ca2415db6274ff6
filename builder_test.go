// builder_test
package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(state any, args ...any) any { return state }

func TestBuildExactlyOnce(t *testing.T) {
	sys := NewSystem()
	b := sys.BuildService("once", Global()).OneWay("tick", noop)

	_, err := b.Build()
	require.NoError(t, err)

	// double emission must be rejected, not silently partial
	_, err = b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)

	// declarations after build are rejected too
	_, err = b.OneWay("tock", noop).Build()
	assert.Error(t, err)
}

func TestBuildNoDeclarations(t *testing.T) {
	sys := NewSystem()
	_, err := sys.BuildService("empty", Global()).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no operations")
}

func TestBuildDuplicateOperation(t *testing.T) {
	sys := NewSystem()
	_, err := sys.BuildService("dup", Global()).
		OneWay("tick", noop).
		TwoWay("tick", noop).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestBuildBadNames(t *testing.T) {
	sys := NewSystem()

	_, err := sys.BuildService("bad name", Global()).OneWay("tick", noop).Build()
	assert.Error(t, err)

	_, err = sys.BuildService("ok", Global()).OneWay("tick tock", noop).Build()
	assert.Error(t, err)

	_, err = sys.BuildService("nostrat", nil).OneWay("tick", noop).Build()
	assert.Error(t, err)
}

func TestBuildBadConfigIsBuildTime(t *testing.T) {
	sys := NewSystem()
	// configuration errors surface from Build, never at call time
	_, err := sys.BuildService("svc", Global()).
		OneWay("tick", noop).
		WithConfig(Config{"state_name": "not an ident"}).
		Build()
	assert.Error(t, err)
}

func TestBuildOperationOrder(t *testing.T) {
	sys := NewSystem()
	svc, err := sys.BuildService("ordered", Global()).
		OneWay("c", noop).
		OneWay("a", noop).
		TwoWay("b", noop).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, svc.Operations())
	assert.Equal(t, "global", svc.Strategy())
}
