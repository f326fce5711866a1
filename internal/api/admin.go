package api

import (
	"log/slog"
	"net/http"

	"github.com/zero2prod/newsletter/internal/authentication"
	"github.com/zero2prod/newsletter/internal/session"
	"github.com/zero2prod/newsletter/internal/store"
)

type AdminHandler struct {
	store    *store.PostgresStore
	auth     *authentication.Authenticator
	sessions *session.Store
	logger   *slog.Logger
}

func NewAdminHandler(st *store.PostgresStore, auth *authentication.Authenticator, sessions *session.Store, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, auth: auth, sessions: sessions, logger: logger}
}

// Dashboard greets the logged-in admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		seeOther(w, "/login")
		return
	}

	username, err := h.store.GetUsername(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to resolve username", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	renderPage(w, "dashboard", struct{ Username string }{Username: username})
}

// PasswordForm renders the change-password page.
func (h *AdminHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	token := flashToken(w, r)
	flashes, err := h.sessions.PopFlashes(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to read flash messages", "error", err)
	}
	renderPage(w, "change_password", struct{ Flashes []string }{Flashes: flashes})
}

// ChangePassword verifies the current password and stores a new one.
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		seeOther(w, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	current := r.PostForm.Get("current_password")
	newPassword := r.PostForm.Get("new_password")
	newPasswordCheck := r.PostForm.Get("new_password_check")

	flash := func(msg string) {
		token := flashToken(w, r)
		if err := h.sessions.PushFlash(r.Context(), token, msg); err != nil {
			h.logger.Error("failed to push flash message", "error", err)
		}
		seeOther(w, "/admin/password")
	}

	if newPassword != newPasswordCheck {
		flash("You entered two different new passwords - the field values must match.")
		return
	}
	if err := authentication.ValidateNewPassword(newPassword); err != nil {
		flash(err.Error())
		return
	}

	username, err := h.store.GetUsername(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to resolve username", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	if _, err := h.auth.ValidateCredentials(r.Context(), username, current); err != nil {
		flash("The current password is incorrect.")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, newPassword); err != nil {
		h.logger.Error("failed to change password", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	flash("Your password has been changed.")
}
