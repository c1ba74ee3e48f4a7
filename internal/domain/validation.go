package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a dataset is absent or owned by another
// user. The two cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("dataset not found")

// ValidationError is a single structured validation finding. Row is
// 1-based and counts the header row as row 1, so the first data row
// reports as row 2. Column carries the originating column label as it
// appeared in the upload. File-level findings leave both zero-valued.
type ValidationError struct {
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"error"`
}

// ValidationFailure aggregates every validation finding from a single
// normalization pass. It always carries at least one entry and always
// means nothing was committed.
type ValidationFailure struct {
	Errors []ValidationError `json:"errors"`
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(f.Errors))
}

// NewValidationFailure wraps findings into a failure.
func NewValidationFailure(errs ...ValidationError) *ValidationFailure {
	return &ValidationFailure{Errors: errs}
}

// AsValidationFailure unwraps err into a ValidationFailure when it is one.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var failure *ValidationFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
