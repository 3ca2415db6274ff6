// options_test
package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	opts, err := resolveOptions(Config{}, Global(), "counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", opts.ServiceName)
	assert.Equal(t, "state", opts.StateName)
	assert.Equal(t, 5000*time.Millisecond, opts.Timeout)
	assert.Nil(t, opts.InitialState)
	assert.False(t, opts.TopLevel)
	assert.Nil(t, opts.ChildSpec)
}

func TestResolveStateName(t *testing.T) {
	opts, err := resolveOptions(Config{"state_name": "count"}, Global(), "counter")
	require.NoError(t, err)
	assert.Equal(t, "count", opts.StateName)

	// a variable reference is not an identifier
	_, err = resolveOptions(Config{"state_name": "a.b"}, Global(), "counter")
	assert.Error(t, err)

	_, err = resolveOptions(Config{"state_name": 42}, Global(), "counter")
	assert.Error(t, err)
}

func TestResolveTimeout(t *testing.T) {
	// integer means milliseconds
	opts, err := resolveOptions(Config{"timeout": 250}, Global(), "svc")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, opts.Timeout)

	// float means seconds, floored to ms
	opts, err = resolveOptions(Config{"timeout": 1.5}, Global(), "svc")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, opts.Timeout)

	opts, err = resolveOptions(Config{"timeout": 0.0015}, Global(), "svc")
	require.NoError(t, err)
	assert.Equal(t, 1*time.Millisecond, opts.Timeout)

	// a Duration is taken as-is
	opts, err = resolveOptions(Config{"timeout": 2 * time.Second}, Global(), "svc")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, opts.Timeout)

	_, err = resolveOptions(Config{"timeout": "fast"}, Global(), "svc")
	assert.Error(t, err)

	_, err = resolveOptions(Config{"timeout": -1}, Global(), "svc")
	assert.Error(t, err)
}

func TestResolveUnknownKey(t *testing.T) {
	_, err := resolveOptions(Config{"timeot": 250}, Global(), "svc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeot")

	// pool is a pooled-only key
	_, err = resolveOptions(Config{"pool": PoolSize{1, 2}}, Global(), "svc")
	assert.Error(t, err)
}

func TestResolvePoolOptions(t *testing.T) {
	opts, err := resolveOptions(Config{}, Pooled(), "workers")
	require.NoError(t, err)
	assert.Equal(t, PoolSize{1, 2}, opts.Pool)

	opts, err = resolveOptions(Config{"pool": PoolSize{2, 5}}, Pooled(), "workers")
	require.NoError(t, err)
	assert.Equal(t, PoolSize{2, 5}, opts.Pool)

	_, err = resolveOptions(Config{"pool": PoolSize{3, 2}}, Pooled(), "workers")
	assert.Error(t, err)

	_, err = resolveOptions(Config{"pool": PoolSize{0, 2}}, Pooled(), "workers")
	assert.Error(t, err)
}

func TestResolveConcurrency(t *testing.T) {
	opts, err := resolveOptions(Config{}, Hungry(), "crunch")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, opts.Concurrency, 1)

	opts, err = resolveOptions(Config{"concurrency": 3}, Hungry(), "crunch")
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Concurrency)

	_, err = resolveOptions(Config{"concurrency": 0}, Hungry(), "crunch")
	assert.Error(t, err)
}

func TestResolveChildSpec(t *testing.T) {
	opts, err := resolveOptions(Config{"child_spec": true}, Global(), "svc")
	require.NoError(t, err)
	require.NotNil(t, opts.ChildSpec)

	opts, err = resolveOptions(Config{"child_spec": false}, Global(), "svc")
	require.NoError(t, err)
	assert.Nil(t, opts.ChildSpec)

	opts, err = resolveOptions(Config{"child_spec": ChildSpecOverrides{ID: "primary"}}, Global(), "svc")
	require.NoError(t, err)
	require.NotNil(t, opts.ChildSpec)
	assert.Equal(t, "primary", opts.ChildSpec.ID)
}
