package oneclick

import (
	"errors"
	"fmt"
)

const (
	StatusOK                  = 200
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusConflict            = 409
	StatusUnprocessableEntity = 422
)

const (
	ErrCodeRejected     = "GATEWAY_REJECTED"
	ErrCodeUnauthorized = "GATEWAY_UNAUTHORIZED"
	ErrCodeNotFound     = "GATEWAY_NOT_FOUND"
	ErrCodeConflict     = "GATEWAY_CONFLICT"
	ErrCodeTimeout      = "GATEWAY_TIMEOUT"
	ErrCodeServerError  = "GATEWAY_SERVER_ERROR"
)

var (
	ErrRejected     = errors.New(ErrCodeRejected)
	ErrUnauthorized = errors.New(ErrCodeUnauthorized)
	ErrNotFound     = errors.New(ErrCodeNotFound)
	ErrConflict     = errors.New(ErrCodeConflict)
	ErrTimeout      = errors.New(ErrCodeTimeout)
	ErrServerError  = errors.New(ErrCodeServerError)
)

var statusErrorMap = map[int]error{
	StatusBadRequest:          ErrRejected,
	StatusUnprocessableEntity: ErrRejected,
	StatusUnauthorized:        ErrUnauthorized,
	StatusForbidden:           ErrUnauthorized,
	StatusNotFound:            ErrNotFound,
	StatusConflict:            ErrConflict,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}

	return ErrServerError
}

// withMessage keeps the sentinel matchable and appends the gateway's own text.
func withMessage(err error, message string) error {
	if message == "" {
		return err
	}

	return fmt.Errorf("%w: %s", err, message)
}
