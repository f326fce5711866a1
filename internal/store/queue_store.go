package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zero2prod/newsletter/internal/domain"
)

// EnqueueDeliveryTasks fans the issue out to every currently-confirmed
// subscriber with a single set-based insert, inside the caller's
// transaction. Returns the number of tasks enqueued.
func (s *PostgresStore) EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email)
		SELECT $1, email
		FROM subscriptions
		WHERE status = $2
	`, issueID, domain.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("enqueuing delivery tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DequeueDeliveryTask claims one pending task under a row-level lock.
// SKIP LOCKED lets concurrent workers claim disjoint rows instead of
// blocking on each other. The returned transaction holds the lock; the
// caller must finish with DeleteDeliveryTask or roll it back. A nil task
// means the queue is empty.
func (s *PostgresStore) DequeueDeliveryTask(ctx context.Context) (pgx.Tx, *domain.DeliveryTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}

	var task domain.DeliveryTask
	err = tx.QueryRow(ctx, `
		SELECT newsletter_issue_id, subscriber_email
		FROM issue_delivery_queue
		FOR UPDATE
		SKIP LOCKED
		LIMIT 1
	`).Scan(&task.NewsletterIssueID, &task.SubscriberEmail)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("dequeuing delivery task: %w", err)
	}

	return tx, &task, nil
}

// DeleteDeliveryTask removes the claimed task and commits, releasing the
// row lock. After this the task is terminal.
func (s *PostgresStore) DeleteDeliveryTask(ctx context.Context, tx pgx.Tx, task *domain.DeliveryTask) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2
	`, task.NewsletterIssueID, task.SubscriberEmail)
	if err != nil {
		return fmt.Errorf("deleting delivery task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing task deletion: %w", err)
	}
	return nil
}
