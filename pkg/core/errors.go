package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's three externally-surfaced failure kinds
// (spec §7): validation, not-found, and upstream (store/provider) failure.
// Soft failures (chronicle recording inside ingest, post-retrieval
// reinforcement, chronicle matching inside search) are logged by their
// caller and never reach these sentinels.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrProviderFailure = errors.New("provider failure")
	ErrStoreFailure    = errors.New("store failure")
	ErrStoreClosed     = errors.New("store is closed")
)

// OpError wraps an error with the operation that produced it, mirroring the
// teacher's StoreError: a thin, dependency-free wrapper that composes with
// errors.Is/errors.As via %w.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("engram: %v", e.Err)
	}
	return fmt.Sprintf("engram: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return errors.Is(e.Err, target) }

// WrapOp wraps err with operation context, or returns nil if err is nil.
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// Validationf builds an ErrValidation-wrapped error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf builds an ErrNotFound-wrapped error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}
