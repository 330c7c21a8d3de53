package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeNotFound           = "NOT_FOUND"

	CodeEmailAlreadyExists    = "EMAIL_ALREADY_EXISTS"
	CodeUsernameAlreadyExists = "USERNAME_ALREADY_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeUserNotFound          = "USER_NOT_FOUND"

	CodeMissingAuth         = "MISSING_AUTH"
	CodeInvalidAuthHeader   = "INVALID_AUTH_HEADER"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeInvalidEmailToken   = "INVALID_EMAIL_TOKEN"
	CodeInvalidResetToken   = "INVALID_RESET_TOKEN"

	CodeContactAlreadyExists = "CONTACT_ALREADY_EXISTS"
	CodeInvalidContactID     = "INVALID_CONTACT_ID"

	CodeInvalidFile = "INVALID_FILE"
)
