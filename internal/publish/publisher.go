// Package publish orchestrates the admin "publish newsletter" action:
// claim the idempotency key, create the issue and its delivery fan-out
// atomically, and cache the response for replays.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/idempotency"
	"github.com/zero2prod/newsletter/internal/store"
)

// ErrInvalidForm marks client input errors: nothing was written.
var ErrInvalidForm = errors.New("invalid publish form")

// Form is the admin publish payload.
type Form struct {
	Title          string
	TextContent    string
	HTMLContent    string
	IdempotencyKey string
}

// Publisher performs the publish action exactly once per (user, key).
type Publisher struct {
	store  *store.PostgresStore
	idem   *idempotency.Store
	logger *slog.Logger
}

func NewPublisher(st *store.PostgresStore, idem *idempotency.Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: st, idem: idem, logger: logger}
}

// Publish returns the HTTP response to send to the admin. A resubmission
// with a key that was already finalized returns the cached response
// verbatim, with no new issue and no new delivery tasks.
func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, form Form) (*idempotency.Response, error) {
	key, err := idempotency.ParseKey(form.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if form.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidForm)
	}

	guard, saved, err := p.idem.TryProcessing(ctx, key, userID)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		p.logger.Info("replaying saved publish response",
			"user_id", userID, "idempotency_key", key.String())
		return saved, nil
	}
	defer guard.Rollback(ctx)

	issueID, err := p.store.InsertNewsletterIssue(ctx, guard.Tx(), form.Title, form.TextContent, form.HTMLContent)
	if err != nil {
		return nil, err
	}

	queued, err := p.store.EnqueueDeliveryTasks(ctx, guard.Tx(), issueID)
	if err != nil {
		return nil, err
	}

	resp := idempotency.SeeOther("/admin/newsletters")

	// The single commit point: issue, queue rows and the cached response
	// become durable together, or not at all.
	resp, err = p.idem.SaveResponse(ctx, guard, key, userID, resp)
	if err != nil {
		return nil, err
	}

	p.logger.Info("newsletter issue published",
		"issue_id", issueID, "deliveries_queued", queued, "user_id", userID)

	return resp, nil
}
