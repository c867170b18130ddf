package auth

import (
	"net/http"
	"time"
)

// CookieName returns the name of the session cookie.
func (c *SessionCodec) CookieName() string {
	return c.cookieName
}

// Cookie wraps an encoded session value in the session cookie.
func (c *SessionCodec) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie returns a cookie that makes the browser drop the session.
func (c *SessionCodec) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest decodes the session cookie of r, if any.
func (c *SessionCodec) FromRequest(r *http.Request) (Session, bool) {
	ck, err := r.Cookie(c.cookieName)
	if err != nil {
		return Session{}, false
	}
	return c.Decode(ck.Value)
}
