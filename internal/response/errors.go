package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"
	ErrAccessDenied    ErrCode = "ACCESS_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation           ErrCode = "VALIDATION_ERROR"
	ErrInvalidID            ErrCode = "INVALID_ID"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrInvalidAnswer        ErrCode = "INVALID_ANSWER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
	ErrInternal         ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrAccessDenied:
		return "Access denied. Admin privileges required."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrConfirmationRequired:
		return "This deletion is irreversible and must be confirmed."
	case ErrInvalidAnswer:
		return "The correct answer must match one of the four options."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrStoreUnavailable:
		return "The data store is temporarily unavailable. Your last view is unchanged; please retry."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
