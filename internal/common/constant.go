package common

const (
	// SessionCookieName is the default name of the signed session cookie.
	SessionCookieName = "app-session"

	// LoginPath is the entry point unauthenticated callers are sent to.
	LoginPath = "/login"

	// RedirectToParam carries the original destination through the login flow.
	RedirectToParam = "redirectTo"

	// DefaultRedirect is where callers land after login or logout when no
	// destination was requested.
	DefaultRedirect = "/jokes"
)
