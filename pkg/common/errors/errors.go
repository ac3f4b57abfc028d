package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors. The class decides how a stage reacts: external-call
// and malformed-output failures skip the unit and continue the batch;
// store-access failures abort the stage; query failures are reported with the
// offending SQL and never retried.
var (
	ErrExternalCall    = errors.New("external call failed")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrStoreAccess     = errors.New("store access failed")
	ErrQueryFailed     = errors.New("query execution failed")
)

// UnitError represents a failure of one unit of work (one document), carrying
// the document identifier so batch summaries can name it.
type UnitError struct {
	Document string
	Err      error
}

func (e *UnitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Document, e.Err)
	}
	return e.Document
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// NewUnitError creates a new UnitError.
func NewUnitError(document string, err error) *UnitError {
	return &UnitError{
		Document: document,
		Err:      err,
	}
}

// IsFatal reports whether an error must abort the whole stage rather than
// skip a single unit.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreAccess)
}
