package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch on failures without parsing human-readable text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeFieldsRequired     = "FIELDS_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeDeliveryFailed     = "DELIVERY_FAILED"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeSessionRevoked     = "SESSION_REVOKED"
	CodeAdminRequired      = "ADMIN_REQUIRED"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeDepositNotFound    = "DEPOSIT_NOT_FOUND"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
	CodeInternalError      = "INTERNAL_ERROR"
)
