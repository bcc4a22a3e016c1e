package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for the import pipeline. Per-product failures wrap one of
// these so callers can classify what went wrong without string matching.
var (
	// ErrValidation marks bad cell data, bad dimension keys, conflicting
	// variant flags and similar caller-supplied problems.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing category, product or bundle asset.
	ErrNotFound = errors.New("not found")

	// ErrUpload marks a failed transfer to the asset service.
	ErrUpload = errors.New("upload failed")
)

// Error carries a classification sentinel without polluting the message;
// the failure ledger surfaces Error() verbatim to operators.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationf(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func uploadf(format string, args ...interface{}) error {
	return &Error{Kind: ErrUpload, Message: fmt.Sprintf(format, args...)}
}

// HardFailure aborts an entire batch before any product is processed:
// an unreadable workbook, a corrupt image bundle, an empty sheet.
// Anything that happens after per-product processing starts is recorded
// in the batch ledger instead.
type HardFailure struct {
	Stage string
	Err   error
}

func (e *HardFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *HardFailure) Unwrap() error { return e.Err }

func hardFailure(stage string, err error) error {
	return &HardFailure{Stage: stage, Err: err}
}

// IsHardFailure reports whether err aborted the batch as a whole.
func IsHardFailure(err error) bool {
	var hf *HardFailure
	return errors.As(err, &hf)
}
