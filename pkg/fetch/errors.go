package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationFailed matches every error stored by a Manager after an
	// Operation fails.
	ErrOperationFailed = errors.New("fetch: operation failed")

	// ErrStaleResult is reported to observers when a settled operation was
	// superseded by a newer Trigger or by Cancel. It is never stored.
	ErrStaleResult = errors.New("fetch: stale result")
)

// OperationError wraps a failure returned (or panicked) by an Operation.
type OperationError struct {
	// Token is the generation token of the failed operation.
	Token uint64

	// Err holds the details reported by the operation.
	Err error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return ErrOperationFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrOperationFailed.Error(), e.Err)
}

// Unwrap returns the operation's own error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is reports ErrOperationFailed as a match.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

func wrapOperationError(token uint64, err error) error {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	return &OperationError{Token: token, Err: err}
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
