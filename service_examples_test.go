// service_examples_test
package component

import (
	"fmt"
	"time"
)

func ExampleServiceBuilder() {
	// create the system
	sys := NewSystem()

	// declare a counter service with one worker per system
	counter, err := sys.BuildService("counter", Global()).
		WithInitialState(0).
		OneWay("increment", func(state any, args ...any) any {
			return state.(int) + args[0].(int)
		}).
		TwoWay("value", func(state any, args ...any) any {
			return state
		}).
		Build()

	// check for error
	if err != nil {
		fmt.Printf("Failed to build service: %v\n", err)
	}

	// start the worker, send it some updates, read the result
	counter.Create()
	counter.Cast("increment", 3)
	counter.Cast("increment", 4)
	value, _ := counter.Call("value")
	fmt.Println(value)

	// Output:
	// 7
}

func ExampleSetStateThen() {
	sys := NewSystem()

	// return-old-then-update: the reply is the value before the change
	ticket, _ := sys.BuildService("ticket", Global()).
		WithInitialState(1).
		TwoWay("next_number", func(state any, args ...any) any {
			return SetStateThen(state.(int)+1, state)
		}).
		Build()

	ticket.Create()
	first, _ := ticket.Call("next_number")
	second, _ := ticket.Call("next_number")
	fmt.Println(first, second)

	// Output:
	// 1 2
}

func ExampleService_CreateWith() {
	sys := NewSystem()

	// a dynamic service is a factory: every Create returns an
	// independent worker
	accounts, _ := sys.BuildService("savings", Dynamic()).
		WithInitialState(0).
		OneWay("deposit", func(state any, args ...any) any {
			return state.(int) + args[0].(int)
		}).
		TwoWay("balance", func(state any, args ...any) any {
			return state
		}).
		Build()

	accounts.Initialize()
	yours, _ := accounts.Create()
	mine, _ := accounts.CreateWith(1000)

	accounts.CastOn(yours, "deposit", 50)
	yourBalance, _ := accounts.CallOn(yours, "balance")
	myBalance, _ := accounts.CallOn(mine, "balance")
	fmt.Println(yourBalance, myBalance)

	// Output:
	// 50 1000
}

func ExampleService_Consume() {
	sys := NewSystem()

	// a hungry service applies its process operation to a whole
	// collection with bounded concurrency
	cruncher, _ := sys.BuildService("cruncher", Hungry()).
		TwoWay("process", func(state any, args ...any) any {
			switch v := args[0].(type) {
			case int:
				return v * 3
			case string:
				return v + v
			}
			return args[0]
		}).
		Build()

	cruncher.Initialize()
	result, _ := cruncher.Consume([]any{1, 2, "cat"})
	fmt.Println(result)

	// Output:
	// [3 6 catcat]
}

func ExampleService_Destroy() {
	sys := NewSystem()

	// pooled create/destroy lease and release a member; its state
	// persists across leases
	pool, _ := sys.BuildService("tally", Pooled()).
		WithInitialState(0).
		WithPoolSize(1, 1).
		WithTimeout(100*time.Millisecond).
		OneWay("add", func(state any, args ...any) any {
			return state.(int) + args[0].(int)
		}).
		TwoWay("total", func(state any, args ...any) any {
			return state
		}).
		Build()

	pool.Initialize()

	lease, _ := pool.Create()
	pool.CastOn(lease, "add", 2)
	pool.Destroy(lease)

	lease, _ = pool.Create()
	pool.CastOn(lease, "add", 3)
	total, _ := pool.CallOn(lease, "total")
	pool.Destroy(lease)

	fmt.Println(total)

	// Output:
	// 5
}
