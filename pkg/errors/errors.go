package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUndefinedSimilarity = errors.New("similarity undefined for zero-norm descriptor")
	ErrNoData              = errors.New("no data")
	ErrMalformedTestCase   = errors.New("malformed test case")
	ErrSnapshotCorrupt     = errors.New("descriptor snapshot corrupt")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTimeout             = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedTestCase):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoData), errors.Is(err, ErrUndefinedSimilarity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
