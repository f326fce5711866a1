package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const (
	sessionCookieName = "session_token"
	flashCookieName   = "flash_token"
)

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// flashToken returns a token scoping flash messages to this browser. The
// session token is reused when logged in; anonymous visitors get a
// dedicated flash cookie so login-failure messages survive the redirect.
func flashToken(w http.ResponseWriter, r *http.Request) string {
	if token := sessionToken(r); token != "" {
		return token
	}
	return anonFlashToken(w, r)
}

// anonFlashToken always uses the dedicated flash cookie, even when a
// session cookie is present. Logout needs this: its session is gone by
// the time the flash is rendered.
func anonFlashToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(flashCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	token := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
