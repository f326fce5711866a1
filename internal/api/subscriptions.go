package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zero2prod/newsletter/internal/domain"
	"github.com/zero2prod/newsletter/internal/store"
)

// EmailClient is the outbound transport used for confirmation emails.
type EmailClient interface {
	Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

type SubscriptionHandler struct {
	store       *store.PostgresStore
	emailClient EmailClient
	baseURL     string
	logger      *slog.Logger
}

func NewSubscriptionHandler(s *store.PostgresStore, emailClient EmailClient, baseURL string, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: s, emailClient: emailClient, baseURL: baseURL, logger: logger}
}

// Subscribe accepts a name/email form, stores a pending subscription and
// sends the confirmation link.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	name, err := domain.ParseSubscriberName(r.PostForm.Get("name"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	email, err := domain.ParseSubscriberEmail(r.PostForm.Get("email"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub := domain.NewSubscriber{Email: email, Name: name}

	token, err := h.store.CreateSubscription(r.Context(), sub)
	if err != nil {
		h.logger.Error("failed to store subscription", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	if err := h.sendConfirmationEmail(r.Context(), sub, token); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to send confirmation email")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *SubscriptionHandler) sendConfirmationEmail(ctx context.Context, sub domain.NewSubscriber, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", h.baseURL, token)
	htmlBody := fmt.Sprintf(
		`Welcome to our newsletter!<br />Click <a href="%s">here</a> to confirm your subscription.`, link)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.", link)
	return h.emailClient.Send(ctx, sub.Email, "Welcome!", htmlBody, textBody)
}

// Confirm flips a subscription to confirmed via its emailed token.
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "subscription_token is required")
		return
	}

	subscriberID, err := h.store.GetSubscriberIDFromToken(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to look up subscription token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm subscription")
		return
	}
	if subscriberID == nil {
		respondError(w, http.StatusUnauthorized, "unknown subscription token")
		return
	}

	if err := h.store.ConfirmSubscriber(r.Context(), *subscriberID); err != nil {
		h.logger.Error("failed to confirm subscriber", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to confirm subscription")
		return
	}

	w.WriteHeader(http.StatusOK)
}
