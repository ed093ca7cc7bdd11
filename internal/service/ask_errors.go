package service

import (
	"errors"
	"fmt"
	"strings"

	"lucide-core/pkg/llm"
)

// Cancellation causes. Their text is shown to the window as is.
var (
	ErrNewRequest    = errors.New("New request received.")
	ErrWindowClosed  = errors.New("Window closed.")
	ErrUserCancelled = errors.New("Cancelled by user.")
)

// CancelReason is a user cancellation carrying the caller's own wording.
// It matches ErrUserCancelled under errors.Is.
func CancelReason(text string) error {
	return &cancelReason{text: text}
}

type cancelReason struct {
	text string
}

func (e *cancelReason) Error() string { return e.text }

func (e *cancelReason) Is(target error) bool { return target == ErrUserCancelled }

var (
	ErrModelNotConfigured = errors.New("model not configured")
	ErrEmptyQuestion      = errors.New("question is empty")
)

// MultimodalUnsupportedError means the endpoint refused an image. It
// triggers the text-only retry and is never shown to the user.
type MultimodalUnsupportedError struct {
	Cause error
}

func (e *MultimodalUnsupportedError) Error() string {
	return fmt.Sprintf("model rejected image input: %v", e.Cause)
}

func (e *MultimodalUnsupportedError) Unwrap() error { return e.Cause }

// StreamError is a transport or decoding failure after streaming began.
type StreamError struct {
	Cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream interrupted: %v", e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }

var multimodalMarkers = []string{"vision", "image", "multimodal", "400", "unsupported", "invalid"}

// isMultimodalError matches the failure signatures providers return when
// a request carries an image the model cannot take.
func isMultimodalError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 400 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range multimodalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isCancellation(err error) bool {
	return errors.Is(err, ErrNewRequest) || errors.Is(err, ErrWindowClosed) || errors.Is(err, ErrUserCancelled)
}
