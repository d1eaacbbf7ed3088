package domain

import "errors"

var (
	// ErrBadInput is returned when a request carries a malformed id or body.
	ErrBadInput = errors.New("bad input")
	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a requested or referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a guard blocks the operation.
	ErrForbidden = errors.New("forbidden")
)

// ReasonError attaches a human-readable reason to one of the sentinel errors above.
// errors.Is matches the sentinel through Unwrap.
type ReasonError struct {
	Kind   error
	Reason string
}

// NewReasonError creates a ReasonError of the given kind.
func NewReasonError(kind error, reason string) *ReasonError {
	return &ReasonError{Kind: kind, Reason: reason}
}

func (e *ReasonError) Error() string {
	return e.Reason
}

func (e *ReasonError) Unwrap() error {
	return e.Kind
}

// Reason extracts the reason carried anywhere in err's chain.
// Returns false if err carries none.
func Reason(err error) (string, bool) {
	var reasonErr *ReasonError
	if errors.As(err, &reasonErr) {
		return reasonErr.Reason, true
	}

	return "", false
}

// IsRejection reports whether err is one of the taxonomy errors above,
// i.e. a request refused by a business rule rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBadInput) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden)
}
