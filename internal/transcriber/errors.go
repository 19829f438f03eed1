package transcriber

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTranscript   = errors.New("empty transcript")
	ErrMissingCredential = errors.New("api key required")
	ErrBusy              = errors.New("recognizer already running")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrRecognizerTimeout = errors.New("recognizer did not finish")
)

// Error is the single failure type of every strategy.
type Error struct {
	Strategy string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s transcription failed after %d attempts: %v", e.Strategy, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s transcription failed: %v", e.Strategy, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// BackendError is what a hosted backend reports for a failed request.
// Retryable comes from the server when it says so, otherwise from the status.
type BackendError struct {
	Status    int
	Message   string
	Retryable bool
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsRetryable reports whether err is worth another attempt. Errors that are
// not a BackendError are transport failures and count as retryable.
func IsRetryable(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return true
}

func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}
