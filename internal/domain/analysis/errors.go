package analysis

import (
	"errors"
	"fmt"
)

// ErrNoImageProvided indicates a submit attempt with zero staged images.
// Raised by a local guard before any network call.
var ErrNoImageProvided = errors.New("please upload at least one image")

// ErrUnauthenticated indicates no signed-in session exists for an operation
// that requires one. The HTTP layer redirects to the sign-in route.
var ErrUnauthenticated = errors.New("sign-in required")

// ErrSubmissionInFlight indicates a second submit was attempted while one is
// still running. Only one submission is allowed at a time.
var ErrSubmissionInFlight = errors.New("analysis already in progress")

// FallbackFailureMessage is shown when the backend gives no detail string.
const FallbackFailureMessage = "Analysis failed. Please try again."

// RequestError carries a failed backend response. Detail holds the server's
// structured error string when present.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend request failed: %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend request failed: %d", e.Status)
}

// FailureMessage extracts the user-facing message for a failed submission:
// the server detail verbatim when present, else the generic fallback.
func FailureMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Detail != "" {
		return re.Detail
	}
	return FallbackFailureMessage
}
