// Package i18n maps the stable machine keys used by the service layer
// to display strings. Services always log and fail with the key; only
// the HTTP boundary resolves keys to text, so changing copy never
// touches business logic or tests.
package i18n

var messages = map[string]string{
	"user.not_found":                 "user not found",
	"user.email_exists":              "a user with this email already exists",
	"user.invalid_email":             "email address is not valid",
	"user.invalid_name":              "name must be between 1 and 100 characters",
	"user.invalid_role":              "role must be one of SUPER_ADMIN, MANAGER, USER",
	"auth.insufficient_permissions":  "you do not have permission to perform this action",
	"auth.role_elevation":            "you cannot assign a role above your own",
	"auth.self_deletion":             "you cannot delete your own account",
	"auth.forbidden":                 "forbidden",
	"auth.invalid_credentials":       "invalid email or password",
	"reset.token_invalid":            "password reset link is invalid",
	"reset.token_expired":            "password reset link has expired",
	"reset.weak_password":            "password does not meet the strength requirements",
	"onboarding.password_generation": "could not provision a temporary password",
	"cache.invalidation":             "operation aborted: user cache could not be invalidated",
	"validation":                     "request validation failed",
}

// Translate resolves a key to its display string. Unknown keys are
// returned unchanged so a missing entry degrades to the key itself
// rather than an empty message.
func Translate(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}

// Exists reports whether a display string is registered for the key.
func Exists(key string) bool {
	_, ok := messages[key]
	return ok
}
