package internal

import "errors"

var (
	// ErrParse reports a model reply that does not match the expected shape.
	ErrParse = errors.New("nutrition reply not parseable")

	// ErrExternalCall reports a failed or rejected language-model request.
	ErrExternalCall = errors.New("language model request failed")

	// ErrQuotaExceeded is returned before the model is called once a session
	// has spent its token allowance.
	ErrQuotaExceeded = errors.New("token limit reached")

	ErrSessionNotFound = errors.New("session not found")
)

// AppError is the error body of the JSON envelope.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
