package ledger

import "fmt"

// Kind classifies ledger errors.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicateTrip
	KindNotFound
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrValidation) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR"}
	ErrDuplicateTrip = &Error{Kind: KindDuplicateTrip, Code: "DUPLICATE_TRIP"}
	ErrNotFound      = &Error{Kind: KindNotFound, Code: "TRIP_NOT_FOUND"}
)

func validationError(details map[string]any, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: fmt.Sprintf(format, args...), Details: details}
}

func duplicateTripError(existing int64) *Error {
	return &Error{
		Kind:    KindDuplicateTrip,
		Code:    "DUPLICATE_TRIP",
		Message: "trip duplicates an existing record",
		Details: map[string]any{"existingTripId": existing},
	}
}

func notFoundError(tripID int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "TRIP_NOT_FOUND",
		Message: "trip not found",
		Details: map[string]any{"tripId": tripID},
	}
}
