package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/domain"
)

func setupStoreTest(t *testing.T) *PostgresStore {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pgStore, err := NewPostgres(ctx, url)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(pgStore.Close)

	if err := pgStore.RunMigrations(ctx, "../../migrations"); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	_, err = pgStore.Pool().Exec(ctx, `
		TRUNCATE issue_delivery_queue, idempotency, newsletter_issues,
		         subscription_tokens, subscriptions, users CASCADE
	`)
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}

	return pgStore
}

func mustNewSubscriber(t *testing.T, email, name string) domain.NewSubscriber {
	t.Helper()
	e, err := domain.ParseSubscriberEmail(email)
	if err != nil {
		t.Fatal(err)
	}
	n, err := domain.ParseSubscriberName(name)
	if err != nil {
		t.Fatal(err)
	}
	return domain.NewSubscriber{Email: e, Name: n}
}

func TestSubscriptionFlow(t *testing.T) {
	pgStore := setupStoreTest(t)
	ctx := context.Background()

	token, err := pgStore.CreateSubscription(ctx, mustNewSubscriber(t, "reader@example.com", "Reader"))
	if err != nil {
		t.Fatalf("creating subscription: %v", err)
	}

	var status string
	err = pgStore.Pool().QueryRow(ctx,
		"SELECT status FROM subscriptions WHERE email = $1", "reader@example.com",
	).Scan(&status)
	if err != nil {
		t.Fatalf("querying subscription: %v", err)
	}
	if status != domain.StatusPendingConfirmation {
		t.Errorf("status: got %q, want %q", status, domain.StatusPendingConfirmation)
	}

	subscriberID, err := pgStore.GetSubscriberIDFromToken(ctx, token)
	if err != nil {
		t.Fatalf("resolving token: %v", err)
	}
	if subscriberID == nil {
		t.Fatal("token did not resolve")
	}

	if err := pgStore.ConfirmSubscriber(ctx, *subscriberID); err != nil {
		t.Fatalf("confirming subscriber: %v", err)
	}

	err = pgStore.Pool().QueryRow(ctx,
		"SELECT status FROM subscriptions WHERE id = $1", *subscriberID,
	).Scan(&status)
	if err != nil {
		t.Fatalf("querying subscription: %v", err)
	}
	if status != domain.StatusConfirmed {
		t.Errorf("status after confirm: got %q, want %q", status, domain.StatusConfirmed)
	}
}

func TestGetSubscriberIDFromToken_Unknown(t *testing.T) {
	pgStore := setupStoreTest(t)

	id, err := pgStore.GetSubscriberIDFromToken(context.Background(), "bogus-token")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if id != nil {
		t.Error("unknown token should resolve to nil")
	}
}

func TestEnqueueDeliveryTasks_RollbackLeavesNothing(t *testing.T) {
	pgStore := setupStoreTest(t)
	ctx := context.Background()

	sub := mustNewSubscriber(t, "reader@example.com", "Reader")
	if _, err := pgStore.CreateSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}
	var subscriberID uuid.UUID
	if err := pgStore.Pool().QueryRow(ctx,
		"SELECT id FROM subscriptions WHERE email = $1", "reader@example.com",
	).Scan(&subscriberID); err != nil {
		t.Fatal(err)
	}
	if err := pgStore.ConfirmSubscriber(ctx, subscriberID); err != nil {
		t.Fatal(err)
	}

	tx, err := pgStore.Pool().Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}

	issueID, err := pgStore.InsertNewsletterIssue(ctx, tx, "Title", "text", "html")
	if err != nil {
		t.Fatalf("inserting issue: %v", err)
	}
	queued, err := pgStore.EnqueueDeliveryTasks(ctx, tx, issueID)
	if err != nil {
		t.Fatalf("enqueuing tasks: %v", err)
	}
	if queued != 1 {
		t.Errorf("queued: got %d, want 1", queued)
	}

	// Issue and fan-out share the transaction: rolling back undoes both.
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	var issues, tasks int
	if err := pgStore.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM newsletter_issues").Scan(&issues); err != nil {
		t.Fatal(err)
	}
	if err := pgStore.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM issue_delivery_queue").Scan(&tasks); err != nil {
		t.Fatal(err)
	}
	if issues != 0 || tasks != 0 {
		t.Errorf("rollback left %d issues and %d tasks", issues, tasks)
	}
}
