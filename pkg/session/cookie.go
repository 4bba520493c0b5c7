// Package session manages the browser-transport copy of the bearer token:
// a same-site-strict, http-only cookie set on login and cleared on logout.
// API clients that prefer the Authorization header ignore it; both
// transports stay valid for the token's lifetime.
package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the token cookie.
const CookieName = "jwt"

// Options configures the token cookie.
type Options struct {
	TTL    time.Duration
	Secure bool // true in production: cookie only sent over HTTPS
	Path   string
}

// DefaultOptions matches the token lifetime and local-dev transport.
func DefaultOptions() Options {
	return Options{
		TTL:    24 * time.Hour,
		Secure: false,
		Path:   "/",
	}
}

// SetToken writes the token cookie. HttpOnly blocks client-side script
// access; SameSite=Strict stops the cookie riding on cross-site requests.
func SetToken(w http.ResponseWriter, token string, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     opts.Path,
		Expires:  time.Now().Add(opts.TTL),
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearToken expires the token cookie immediately.
func ClearToken(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token returns the cookie-carried token, or "" when absent.
func Token(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
