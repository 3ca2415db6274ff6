// errors
package component

import "errors"

// Sentinel errors returned (wrapped) by the package. Callers test
// for them with errors.Is.
var (
	// ErrAlreadyRegistered is returned by a global Create when a worker
	// is already live under the service name.
	ErrAlreadyRegistered = errors.New("name already registered")

	// ErrNotRunning is returned when an operation addresses a service or
	// worker that has not been created/initialized or has been destroyed.
	ErrNotRunning = errors.New("service not running")

	// ErrCallTimeout is returned to the caller of a two-way operation
	// when no reply arrives within the configured timeout. The worker is
	// unaffected and keeps processing.
	ErrCallTimeout = errors.New("call timed out")

	// ErrPoolTimeout is returned by a pool checkout when no worker
	// becomes free and the pool cannot grow within the timeout.
	ErrPoolTimeout = errors.New("pool checkout timed out")

	// ErrNoPoolRunner is returned by Initialize on a pooled service when
	// the system was built without a pool runner.
	ErrNoPoolRunner = errors.New("no pool runner configured")

	// ErrConsumeTimeout is returned by Consume when the overall timeout
	// elapses before every element has been processed.
	ErrConsumeTimeout = errors.New("consume timed out")

	// ErrUnknownOperation is returned when a call names an operation the
	// service never declared.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrClosed is returned when a builder is used after Build, or a
	// pool after shutdown.
	ErrClosed = errors.New("closed")
)
