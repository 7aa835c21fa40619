package middleware

import (
	"errors"
	"fmt"

	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr, logger)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return handleFiberError(c, fiberErr)
		}

		logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("xTrackID", contract.TrackID(c)))

		return contract.Failure(c, fiber.StatusInternalServerError,
			constants.ErrCodeInternalError, constants.GetErrorMessage(constants.ErrCodeInternalError))
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error, logger *zap.Logger) error {
	errorCode := err.Code

	status := constants.GetHTTPStatus(errorCode)
	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("code", errorCode),
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("xTrackID", contract.TrackID(c)))

		if errorCode != constants.ErrCodeInternalError {
			errorCode = constants.ErrCodeInternalError
		}
	}

	message := constants.GetErrorMessage(errorCode)
	if errorCode == constants.ErrCodeValidationFailed && err.Cause != nil {
		message = fmt.Sprintf("%s: %s", message, err.Cause.Error())
	}

	return contract.Failure(c, status, errorCode, message)
}

func handleFiberError(c *fiber.Ctx, err *fiber.Error) error {
	switch {
	case err.Code == fiber.StatusNotFound:
		return contract.Failure(c, err.Code, constants.ErrCodeNotFound, constants.GetErrorMessage(constants.ErrCodeNotFound))
	case err.Code < fiber.StatusInternalServerError:
		return contract.Failure(c, err.Code, constants.ErrCodeInvalidRequestBody, err.Message)
	default:
		return contract.Failure(c, err.Code, constants.ErrCodeInternalError, constants.GetErrorMessage(constants.ErrCodeInternalError))
	}
}
