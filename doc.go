// component project doc.go

/*
The component package turns a list of plain operation declarations into a
running stateful service. Developers declare the operations - one-way
(fire-and-forget state update) and two-way (request/response, possibly
updating state) - and the package supplies the concurrency plumbing: a
public calling surface, a stateful worker goroutine with its own private
mailbox, message dispatch, and a supervision or pooling layer where the
chosen strategy needs one.

Four strategies share the single declaration format:

Global runs one named worker per system. Create starts it and registers
the service name; a second Create while one is live fails. Operations
resolve the name on every call.

Dynamic is a factory: Initialize starts a supervisor, Create spawns an
independent worker under it and returns its handle, and every operation
takes the handle as its address.

Pooled pre-starts a fixed number of workers sharing one initial state,
growing to a maximum under load and shrinking back when idle. Create and
Destroy are checkout and checkin of a leased member, not creation and
destruction of state - state written through one lease is visible to the
next holder of the same underlying worker.

Hungry holds no state at all. Consume applies the service's declared
process operation to every element of a collection with a bounded number
of elements in flight, delivering results into a list, a map, a lazy
channel, or a per-element callback.

Workers deal with one message at a time, so operation bodies never need
locking or synchronization. A one-way body returns the next state; a
two-way body returns a reply, or uses SetStateAndReturn / SetStateThen
to change state as well.

The System provides the platform primitives the strategies rely on: a
directory of named workers, a dead letter queue, a lifecycle event bus,
and a pool runner.
*/
package component
