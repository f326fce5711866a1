package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/zero2prod/newsletter/internal/authentication"
	"github.com/zero2prod/newsletter/internal/session"
)

type AuthHandler struct {
	auth     *authentication.Authenticator
	sessions *session.Store
	logger   *slog.Logger
}

func NewAuthHandler(auth *authentication.Authenticator, sessions *session.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, logger: logger}
}

// LoginForm renders the login page with any pending flash messages.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	token := flashToken(w, r)
	flashes, err := h.sessions.PopFlashes(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to read flash messages", "error", err)
	}
	renderPage(w, "login", struct{ Flashes []string }{Flashes: flashes})
}

// Login validates credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	userID, err := h.auth.ValidateCredentials(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, authentication.ErrInvalidCredentials) {
			token := flashToken(w, r)
			if flashErr := h.sessions.PushFlash(r.Context(), token, "Authentication failed"); flashErr != nil {
				h.logger.Error("failed to push flash message", "error", flashErr)
			}
			seeOther(w, "/login")
			return
		}
		h.logger.Error("credential validation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	setSessionCookie(w, token)
	seeOther(w, "/admin/dashboard")
}

// Logout destroys the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			h.logger.Error("failed to destroy session", "error", err)
		}
	}
	clearSessionCookie(w)

	anon := anonFlashToken(w, r)
	if err := h.sessions.PushFlash(r.Context(), anon, "You have successfully logged out."); err != nil {
		h.logger.Error("failed to push flash message", "error", err)
	}
	seeOther(w, "/login")
}
