// Package worker drains the issue delivery queue: it claims one task at a
// time under a row lock, sends the email, and deletes the task. Multiple
// worker processes can run against the same queue; SKIP LOCKED keeps
// their claims disjoint.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/zero2prod/newsletter/internal/domain"
	"github.com/zero2prod/newsletter/internal/store"
)

// ExecutionOutcome reports what a single iteration did.
type ExecutionOutcome int

const (
	// TaskCompleted means a task was claimed and removed; poll again
	// immediately.
	TaskCompleted ExecutionOutcome = iota
	// EmptyQueue means no task was pending; idle before the next poll.
	EmptyQueue
)

// EmailClient is the outbound transport the worker delivers through.
type EmailClient interface {
	Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

// Worker polls the delivery queue for the lifetime of its context.
type Worker struct {
	store       *store.PostgresStore
	emailClient EmailClient
	logger      *slog.Logger

	pollInterval time.Duration
	errorBackoff time.Duration
}

// New builds a worker. pollInterval paces polling of an empty queue and
// errorBackoff paces retries after a failed iteration; both are injected
// so tests can run the loop at full speed.
func New(st *store.PostgresStore, emailClient EmailClient, logger *slog.Logger, pollInterval, errorBackoff time.Duration) *Worker {
	return &Worker{
		store:        st,
		emailClient:  emailClient,
		logger:       logger,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
	}
}

// Run loops until the context is cancelled. An empty queue triggers the
// idle poll interval, a failed iteration a short backoff, and a completed
// task an immediate re-poll. Iteration errors never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("delivery worker started")
	for {
		outcome, err := w.TryExecuteTask(ctx)
		var pause time.Duration
		switch {
		case err != nil:
			w.logger.Error("delivery iteration failed", "error", err)
			pause = w.errorBackoff
		case outcome == EmptyQueue:
			pause = w.pollInterval
		default:
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Info("delivery worker stopping")
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

// TryExecuteTask processes at most one queued task. A task whose stored
// email no longer parses, or whose delivery fails at the transport, is
// still deleted: the skip is logged, not retried. Storage errors leave
// the task in the queue for a later attempt.
func (w *Worker) TryExecuteTask(ctx context.Context) (ExecutionOutcome, error) {
	tx, task, err := w.store.DequeueDeliveryTask(ctx)
	if err != nil {
		return EmptyQueue, err
	}
	if task == nil {
		return EmptyQueue, nil
	}
	// Releases the claimed row if anything below fails, so the task stays
	// available to a later attempt. After DeleteDeliveryTask has committed
	// this is a no-op.
	defer tx.Rollback(ctx)

	recipient, err := domain.ParseSubscriberEmail(task.SubscriberEmail)
	if err != nil {
		w.logger.Warn("skipping a confirmed subscriber, stored contact details are invalid",
			"issue_id", task.NewsletterIssueID, "error", err)
	} else {
		issue, err := w.store.GetNewsletterIssue(ctx, task.NewsletterIssueID)
		if err != nil {
			return EmptyQueue, err
		}

		err = w.emailClient.Send(ctx, recipient, issue.Title, issue.HTMLContent, issue.TextContent)
		if err != nil {
			w.logger.Error("failed to deliver issue to a confirmed subscriber, skipping",
				"issue_id", task.NewsletterIssueID,
				"subscriber_email", task.SubscriberEmail,
				"error", err)
		} else {
			w.logger.Info("issue delivered",
				"issue_id", task.NewsletterIssueID,
				"subscriber_email", task.SubscriberEmail)
		}
	}

	if err := w.store.DeleteDeliveryTask(ctx, tx, task); err != nil {
		return EmptyQueue, err
	}
	return TaskCompleted, nil
}
