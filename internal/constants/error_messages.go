package constants

const MessageErrorFormat = "The '%s' format is invalid"

const CodeSuccess = "SUCCESS"

const (
	ErrCodeValidationFailed          = "VALIDATION_FAILED"
	ErrCodeInvalidRequestBody        = "INVALID_REQUEST_BODY"
	ErrCodeAmountExceedsBalance      = "AMOUNT_EXCEEDS_BALANCE"
	ErrCodeAuthorizationCodeMismatch = "AUTHORIZATION_CODE_MISMATCH"
	ErrCodeInscriptionNotFound       = "INSCRIPTION_NOT_FOUND"
	ErrCodeTransactionNotFound       = "TRANSACTION_NOT_FOUND"
	ErrCodeDuplicateBuyOrder         = "DUPLICATE_BUY_ORDER"
	ErrCodeDuplicateRegistration     = "DUPLICATE_REGISTRATION"
	ErrCodeOperationInProgress       = "OPERATION_IN_PROGRESS"
	ErrCodeInvalidState              = "INVALID_STATE"
	ErrCodeExpiredToken              = "EXPIRED_TOKEN"
	ErrCodeExpiredWindow             = "EXPIRED_WINDOW"
	ErrCodeGatewayTimeout            = "GATEWAY_TIMEOUT"
	ErrCodeGatewayError              = "GATEWAY_ERROR"
	ErrCodeVaultError                = "VAULT_ERROR"
	ErrCodeDatabaseError             = "DATABASE_ERROR"
	ErrCodeInternalError             = "INTERNAL_ERROR"
	ErrCodeNotFound                  = "NOT_FOUND"
)

const (
	ErrMsgValidationFailed          = "request validation failed"
	ErrMsgInvalidRequestBody        = "failed to parse request body"
	ErrMsgAmountExceedsBalance      = "amount exceeds the remaining balance"
	ErrMsgAuthorizationCodeMismatch = "authorization code does not match"
	ErrMsgInscriptionNotFound       = "inscription not found"
	ErrMsgTransactionNotFound       = "transaction not found"
	ErrMsgDuplicateBuyOrder         = "buy order already used"
	ErrMsgDuplicateRegistration     = "registration already exists"
	ErrMsgOperationInProgress       = "an operation for this key is already in progress"
	ErrMsgInvalidState              = "operation not allowed in the current state"
	ErrMsgExpiredToken              = "registration token expired"
	ErrMsgExpiredWindow             = "refund window expired"
	ErrMsgGatewayTimeout            = "payment gateway did not answer in time"
	ErrMsgGatewayError              = "payment gateway error"
	ErrMsgInternalError             = "Internal server error"
	ErrMsgNotFound                  = "resource not found"
)

const (
	MsgInscriptionStarted   = "inscription started"
	MsgInscriptionFinished  = "inscription finished"
	MsgInscriptionDeleted   = "inscription deleted"
	MsgInscriptionsListed   = "inscriptions retrieved"
	MsgTransactionAuthorize = "transaction authorized"
	MsgTransactionCaptured  = "transaction captured"
	MsgTransactionRefunded  = "transaction refunded"
	MsgTransactionStatus    = "transaction status retrieved"
	MsgTransactionHistory   = "transaction history retrieved"
)

var errorMessages = map[string]string{
	ErrCodeValidationFailed:          ErrMsgValidationFailed,
	ErrCodeInvalidRequestBody:        ErrMsgInvalidRequestBody,
	ErrCodeAmountExceedsBalance:      ErrMsgAmountExceedsBalance,
	ErrCodeAuthorizationCodeMismatch: ErrMsgAuthorizationCodeMismatch,
	ErrCodeInscriptionNotFound:       ErrMsgInscriptionNotFound,
	ErrCodeTransactionNotFound:       ErrMsgTransactionNotFound,
	ErrCodeDuplicateBuyOrder:         ErrMsgDuplicateBuyOrder,
	ErrCodeDuplicateRegistration:     ErrMsgDuplicateRegistration,
	ErrCodeOperationInProgress:       ErrMsgOperationInProgress,
	ErrCodeInvalidState:              ErrMsgInvalidState,
	ErrCodeExpiredToken:              ErrMsgExpiredToken,
	ErrCodeExpiredWindow:             ErrMsgExpiredWindow,
	ErrCodeGatewayTimeout:            ErrMsgGatewayTimeout,
	ErrCodeGatewayError:              ErrMsgGatewayError,
	ErrCodeInternalError:             ErrMsgInternalError,
	ErrCodeNotFound:                  ErrMsgNotFound,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidRequestBody:
		return 400
	case ErrCodeInscriptionNotFound, ErrCodeTransactionNotFound, ErrCodeNotFound:
		return 404
	case ErrCodeDuplicateBuyOrder, ErrCodeDuplicateRegistration, ErrCodeOperationInProgress, ErrCodeInvalidState:
		return 409
	case ErrCodeExpiredToken:
		return 410
	case ErrCodeAmountExceedsBalance, ErrCodeAuthorizationCodeMismatch, ErrCodeExpiredWindow:
		return 422
	case ErrCodeGatewayError:
		return 502
	case ErrCodeGatewayTimeout:
		return 504
	default:
		return 500
	}
}
