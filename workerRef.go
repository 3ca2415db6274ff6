// workerRef
package component

// WorkerRef is the handle used to address a live worker. Dynamic and
// Pooled operations take one as their explicit addressing parameter;
// Global resolves its worker by name instead. A worker has no methods
// accessible from outside - it can only be reached by passing messages
// through its ref.
type WorkerRef struct {
	sys     *System
	mailbox chan serviceMsg
	id      string
	name    string
}

// ID returns the unique id of the underlying worker. For a pooled
// service the id identifies the pool member, so two leases of the same
// member compare equal.
func (ref *WorkerRef) ID() string {
	return ref.id
}

// Name returns the worker's diagnostic name.
func (ref *WorkerRef) Name() string {
	return ref.name
}

// send a one-way message to the worker
func (ref *WorkerRef) cast(op string, args []any) {
	ref.mailbox <- newCastMsg(op, args)
}

// kill the worker
func (ref *WorkerRef) kill() {
	ref.mailbox <- newPoisonMsg()
}
