package httputil

// Machine-readable error codes carried alongside the human-readable message.
// Frontends branch on these instead of parsing message text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInternalError      = "internal_error"
	CodeNotFound           = "not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	// Registration
	CodeNameRequired       = "name_required"
	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeEmailAlreadyExists = "email_already_exists"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodePasswordMismatch   = "password_mismatch"

	// Authentication
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeAccountBanned      = "account_banned"
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeSessionRevoked     = "session_revoked"
	CodeForbidden          = "forbidden"

	// Email verification
	CodeVerificationTokenRequired = "verification_token_required"
	CodeVerificationFailed        = "verification_failed"
	CodeAlreadyVerified           = "already_verified"

	// Password reset
	CodeEmailNotRegistered = "email_not_registered"
	CodeInvalidResetToken  = "invalid_reset_token"
	CodeResetTokenExpired  = "reset_token_expired"
	CodeWrongPassword      = "wrong_password"

	// Admin
	CodeUnknownRole    = "unknown_role"
	CodeCannotBanAdmin = "cannot_ban_admin"
)
