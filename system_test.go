// system_test
package component

import (
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAndList(t *testing.T) {
	sys := NewSystem()
	counter := buildCounter(t, sys, "counter")

	_, err := sys.Lookup("counter")
	require.Error(t, err)

	ref, err := counter.Create()
	require.NoError(t, err)

	found, err := sys.Lookup("counter")
	require.NoError(t, err)
	assert.Equal(t, ref.ID(), found.ID())
	assert.Contains(t, sys.ListWorkers(), "counter")
}

func TestDeadLetterOnPanic(t *testing.T) {
	letters := make(chan DeadLetter, 1)
	sys := BuildSystem().
		WithDeadLetterQueue(func(dl DeadLetter) { letters <- dl }).
		Run()

	svc, err := sys.BuildService("nervous", Global()).
		WithInitialState(0).
		OneWay("touch", func(state any, args ...any) any {
			// panics when args[0] is not an int
			return state.(int) + args[0].(int)
		}).
		TwoWay("value", func(state any, args ...any) any {
			return state
		}).
		Build()
	require.NoError(t, err)

	_, err = svc.Create()
	require.NoError(t, err)

	require.NoError(t, svc.Cast("touch", "not an int"))

	dl := <-letters
	assert.Equal(t, "nervous", dl.Worker)
	assert.Equal(t, "touch", dl.Op)
	assert.Contains(t, dl.Reason, "panic")

	// the worker survives and keeps its state
	v, err := svc.Call("value")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestDeadLetterOnUnknownOp(t *testing.T) {
	letters := make(chan DeadLetter, 1)
	sys := BuildSystem().
		WithDeadLetterQueue(func(dl DeadLetter) { letters <- dl }).
		Run()

	counter := buildCounter(t, sys, "counter")
	ref, err := counter.Create()
	require.NoError(t, err)

	// the api surface rejects unknown names, but a raw ref can still
	// carry one; the worker dead-letters it
	ref.cast("no_such_op", nil)

	dl := <-letters
	assert.Equal(t, "no_such_op", dl.Op)
}

func TestSystemBusLifecycle(t *testing.T) {
	sys := NewSystem()

	var mu sync.Mutex
	var events []string
	err := sys.SystemBus().Subscribe("spy", ServiceLifecycle, nil, func(be BusEvent) {
		mu.Lock()
		events = append(events, be.Data.(string))
		mu.Unlock()
	})
	require.NoError(t, err)

	counter := buildCounter(t, sys, "counter")
	_, err = counter.Create()
	require.NoError(t, err)
	require.NoError(t, counter.Destroy())

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		joined := strings.Join(events, "\n")
		mu.Unlock()
		if strings.Contains(joined, "counter registered") &&
			strings.Contains(joined, "counter running") &&
			strings.Contains(joined, "counter unregistered") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("missing lifecycle events, got:\n%v", joined)
		}
		time.Sleep(5 * time.Millisecond)
	}

	sys.SystemBus().Unsubscribe("spy")
}

func TestSystemDataAvailable(t *testing.T) {
	type world struct{ greeting string }
	sys := BuildSystem().WithSystemData(&world{"hello"}).Run()
	assert.Equal(t, "hello", sys.SystemData().(*world).greeting)
}

func TestSystemShutdown(t *testing.T) {
	sys := NewSystem()

	counter := buildCounter(t, sys, "counter")
	_, err := counter.Create()
	require.NoError(t, err)

	accounts := buildAccounts(t, sys)
	require.NoError(t, accounts.Initialize())
	_, err = accounts.Create()
	require.NoError(t, err)

	sys.Shutdown(time.Second)

	_, err = sys.Lookup("counter")
	assert.Error(t, err)
	assert.Equal(t, 0, accounts.strat.live(accounts))
}

// every system starts one dead letter drainer; Shutdown must release it
func TestShutdownStopsDeadLetterDrain(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		sys := NewSystem()
		counter := buildCounter(t, sys, "counter")
		_, err := counter.Create()
		require.NoError(t, err)
		sys.Shutdown(time.Second)

		// a dead letter after shutdown is dropped, not wedged against
		// a reader that no longer exists
		sys.ToDeadLetter(DeadLetter{Worker: "late", Op: "op"})
	}

	time.Sleep(50 * time.Millisecond)
	assert.Less(t, runtime.NumGoroutine(), before+10)
}

func TestChildSpec(t *testing.T) {
	sys := NewSystem()
	svc, err := sys.BuildService("managed", Global()).
		WithInitialState(0).
		WithChildSpec(ChildSpecOverrides{ID: "managed_primary", Shutdown: 200 * time.Millisecond}).
		OneWay("tick", noop).
		Build()
	require.NoError(t, err)

	spec := svc.ChildSpec()
	assert.Equal(t, "managed_primary", spec.ID)

	require.NoError(t, spec.Start())
	_, err = sys.Lookup("managed")
	require.NoError(t, err)

	require.NoError(t, spec.Shutdown())
	_, err = sys.Lookup("managed")
	assert.Error(t, err)
}

func TestTopLevelBootstrap(t *testing.T) {
	sys := NewSystem()
	_, err := sys.BuildService("eager", Global()).
		WithInitialState(0).
		TopLevel().
		OneWay("tick", noop).
		Build()
	require.NoError(t, err)

	// top_level services are live as soon as Build returns
	_, err = sys.Lookup("eager")
	assert.NoError(t, err)
}
