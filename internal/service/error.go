package service

import (
	"errors"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/guard"
	"github.com/danielsotopino/api-transbank/pkg/oneclick"
)

var (
	ErrInscriptionNotCompleted = errors.New("INSCRIPTION_NOT_COMPLETED")
	ErrDuplicateDetail         = errors.New("DUPLICATE_DETAIL")
	ErrTooManyDetails          = errors.New("TOO_MANY_DETAILS")
	ErrAmountOutOfRange        = errors.New("AMOUNT_OUT_OF_RANGE")
	ErrInstallmentsOutOfRange  = errors.New("INSTALLMENTS_OUT_OF_RANGE")
	ErrLimitTooLarge           = errors.New("LIMIT_TOO_LARGE")
	ErrDateRange               = errors.New("INVALID_DATE_RANGE")
	ErrDetailNotInResponse     = errors.New("DETAIL_NOT_IN_GATEWAY_RESPONSE")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// gatewayError keeps a deadline breach apart from every other gateway failure.
func gatewayError(err error) error {
	if errors.Is(err, oneclick.ErrTimeout) {
		return NewServiceError(constants.ErrCodeGatewayTimeout, err)
	}

	return NewServiceError(constants.ErrCodeGatewayError, err)
}

func validationError(err error) error {
	return NewServiceError(constants.ErrCodeValidationFailed, err)
}

func inFlightError(err error) error {
	if errors.Is(err, guard.ErrInFlight) {
		return NewServiceError(constants.ErrCodeOperationInProgress, err)
	}

	return nil
}

// gatewayOutcome labels a gateway call for metrics.
func gatewayOutcome(err error, approved bool) string {
	switch {
	case errors.Is(err, oneclick.ErrTimeout):
		return "timeout"
	case err != nil:
		return "error"
	case !approved:
		return "rejected"
	default:
		return "success"
	}
}
