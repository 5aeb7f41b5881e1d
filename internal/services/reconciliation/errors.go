package reconciliation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a referenced transaction, payment or
	// allocation does not exist in the backing store.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification reports that a payment changed between
	// read and commit and the bounded retries were exhausted.
	ErrConcurrentModification = errors.New("payment modified concurrently")
)

// ImportAdapterError wraps a failure bubbling up from the transaction
// import collaborator. The engine logs it and skips the affected work; it
// never tries to repair import-side problems.
type ImportAdapterError struct {
	Err error
}

func (e *ImportAdapterError) Error() string {
	return fmt.Sprintf("import adapter: %v", e.Err)
}

func (e *ImportAdapterError) Unwrap() error { return e.Err }
