package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/idempotency"
	"github.com/zero2prod/newsletter/internal/publish"
	"github.com/zero2prod/newsletter/internal/session"
)

type NewsletterHandler struct {
	publisher *publish.Publisher
	sessions  *session.Store
	logger    *slog.Logger
}

func NewNewsletterHandler(publisher *publish.Publisher, sessions *session.Store, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{publisher: publisher, sessions: sessions, logger: logger}
}

// Form renders the publish page with a freshly generated idempotency key,
// so a double-submitted form is recognized as the same logical request.
func (h *NewsletterHandler) Form(w http.ResponseWriter, r *http.Request) {
	token := flashToken(w, r)
	flashes, err := h.sessions.PopFlashes(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to read flash messages", "error", err)
	}
	renderPage(w, "newsletter_form", struct {
		Flashes        []string
		IdempotencyKey string
	}{
		Flashes:        flashes,
		IdempotencyKey: uuid.NewString(),
	})
}

// Publish runs the publish orchestrator and replays its response, cached
// or fresh, onto the client.
func (h *NewsletterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		seeOther(w, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	form := publish.Form{
		Title:          r.PostForm.Get("title"),
		TextContent:    r.PostForm.Get("text_content"),
		HTMLContent:    r.PostForm.Get("html_content"),
		IdempotencyKey: r.PostForm.Get("idempotency_key"),
	}

	resp, err := h.publisher.Publish(r.Context(), userID, form)
	if err != nil {
		switch {
		case errors.Is(err, publish.ErrInvalidForm):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, idempotency.ErrMissingSavedResponse):
			// A concurrent submission holds the key, or a previous attempt
			// crashed before finalizing.
			h.logger.Error("idempotency key claimed without a saved response", "error", err)
			respondError(w, http.StatusInternalServerError, "publish already in progress")
		default:
			h.logger.Error("failed to publish newsletter issue", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to publish newsletter issue")
		}
		return
	}

	token := flashToken(w, r)
	if err := h.sessions.PushFlash(r.Context(), token, "The newsletter issue has been published!"); err != nil {
		h.logger.Error("failed to push flash message", "error", err)
	}

	if err := resp.Write(w); err != nil {
		h.logger.Error("failed to write publish response", "error", err)
	}
}
