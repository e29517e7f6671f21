package billing

import "errors"

var (
	// ErrTableNotFound signals a table id the catalog does not know.
	ErrTableNotFound = errors.New("table not found")
	// ErrEmptyCheckout signals a finalize attempt with nothing to bill.
	ErrEmptyCheckout = errors.New("nothing to bill")
	// ErrPersistence wraps storage failures. In-memory state stays the
	// source of truth for the session; callers surface a dismissable
	// could-not-save signal.
	ErrPersistence = errors.New("could not save")
)
