package api

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names are fixed external contract.
const (
	SessionCookieName = "session_token"
	AccessCookieName  = "access_token"
)

// setAuthCookie issues an HttpOnly, Secure, SameSite=Lax cookie scoped to
// the whole origin, with Max-Age equal to the record's TTL.
func setAuthCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie expires an auth cookie on the client. Shared with the gate,
// which clears the access cookie on both grant and denial.
func ClearAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieValue returns the named cookie's value, "" when absent.
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
