// workerCall
package component

import (
	"fmt"
	"time"
)

// Send a two-way request and block for the reply. On timeout the caller
// gets an error and the worker carries on; a slow handler still runs to
// completion, its reply just lands in the buffered channel with no live
// recipient.
func (ref *WorkerRef) call(op string, args []any, timeout time.Duration) (any, error) {
	req := newCallMsg(op, args)
	ref.mailbox <- req
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case rsp := <-req.replyChan:
		return rsp.value, rsp.err
	case <-timer.C:
		return nil, fmt.Errorf("call to %v.%v (%v): %w", ref.name, op, timeout, ErrCallTimeout)
	}
}
