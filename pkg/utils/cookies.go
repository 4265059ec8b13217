package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieOptions controls how session cookies are written.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetSessionCookies writes both session credentials as HttpOnly cookies
// that expire with the credentials they carry.
func SetSessionCookies(c *gin.Context, opts CookieOptions, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	setCookie(c, opts, AccessCookieName, access, accessExp)
	setCookie(c, opts, RefreshCookieName, refresh, refreshExp)
}

// ClearSessionCookies expires both session cookies on the client.
func ClearSessionCookies(c *gin.Context, opts CookieOptions) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   opts.Domain,
			MaxAge:   -1,
			Secure:   opts.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func setCookie(c *gin.Context, opts CookieOptions, name, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
