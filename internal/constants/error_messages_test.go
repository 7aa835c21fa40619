package constants_test

import (
	"testing"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	testCases := []struct {
		code   string
		status int
	}{
		{constants.ErrCodeValidationFailed, 400},
		{constants.ErrCodeInscriptionNotFound, 404},
		{constants.ErrCodeTransactionNotFound, 404},
		{constants.ErrCodeDuplicateBuyOrder, 409},
		{constants.ErrCodeInvalidState, 409},
		{constants.ErrCodeExpiredToken, 410},
		{constants.ErrCodeExpiredWindow, 422},
		{constants.ErrCodeAmountExceedsBalance, 422},
		{constants.ErrCodeGatewayError, 502},
		{constants.ErrCodeGatewayTimeout, 504},
		{constants.ErrCodeVaultError, 500},
		{constants.ErrCodeDatabaseError, 500},
		{"SOMETHING_ELSE", 500},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.status, constants.GetHTTPStatus(tc.code))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, constants.ErrMsgExpiredWindow, constants.GetErrorMessage(constants.ErrCodeExpiredWindow))
	assert.Equal(t, constants.ErrMsgInternalError, constants.GetErrorMessage(constants.ErrCodeVaultError))
}
