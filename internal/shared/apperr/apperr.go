// Package apperr defines the error kinds shared by every feature package.
// Feature packages declare their own sentinels wrapping one of these kinds,
// so handlers can classify failures with errors.Is without knowing the feature.
package apperr

import "errors"

var (
	// ErrForbidden means the actor lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a referenced document, user or annotation is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request violated a validation constraint.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means the request collides with current state.
	ErrConflict = errors.New("conflict")
)

// Kind reports which shared kind err belongs to, or nil when it is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrForbidden, ErrNotFound, ErrInvalidInput, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
