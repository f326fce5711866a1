package publish

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/domain"
	"github.com/zero2prod/newsletter/internal/idempotency"
	"github.com/zero2prod/newsletter/internal/store"
)

func setupPublishTest(t *testing.T) (*store.PostgresStore, *Publisher, uuid.UUID) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pgStore, err := store.NewPostgres(ctx, url)
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

	userID := uuid.New()
	_, err = pgStore.Pool().Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3)
	`, userID, "admin", "unused")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	publisher := NewPublisher(pgStore, idempotency.NewStore(pgStore.Pool()), logger)

	return pgStore, publisher, userID
}

func seedSubscriber(t *testing.T, pgStore *store.PostgresStore, email, status string) {
	t.Helper()
	_, err := pgStore.Pool().Exec(context.Background(), `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, now(), $4)
	`, uuid.New(), email, "Test Subscriber", status)
	if err != nil {
		t.Fatalf("seeding subscriber %s: %v", email, err)
	}
}

func countRows(t *testing.T, pgStore *store.PostgresStore, table string) int {
	t.Helper()
	var n int
	err := pgStore.Pool().QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	if err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestPublish_FirstSubmissionAndReplay(t *testing.T) {
	pgStore, publisher, userID := setupPublishTest(t)
	ctx := context.Background()

	seedSubscriber(t, pgStore, "one@example.com", domain.StatusConfirmed)
	seedSubscriber(t, pgStore, "two@example.com", domain.StatusConfirmed)
	seedSubscriber(t, pgStore, "three@example.com", domain.StatusConfirmed)
	seedSubscriber(t, pgStore, "pending@example.com", domain.StatusPendingConfirmation)

	form := Form{
		Title:          "Hello",
		TextContent:    "plain body",
		HTMLContent:    "<p>html body</p>",
		IdempotencyKey: "abc-123",
	}

	first, err := publisher.Publish(ctx, userID, form)
	if err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if first.StatusCode != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", first.StatusCode, http.StatusSeeOther)
	}
	if len(first.Headers) != 1 || string(first.Headers[0].Value) != "/admin/newsletters" {
		t.Errorf("redirect headers: got %+v", first.Headers)
	}

	if got := countRows(t, pgStore, "newsletter_issues"); got != 1 {
		t.Errorf("issues after first publish: got %d, want 1", got)
	}
	// Fan-out reaches confirmed subscribers only.
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 3 {
		t.Errorf("queued tasks after first publish: got %d, want 3", got)
	}

	second, err := publisher.Publish(ctx, userID, form)
	if err != nil {
		t.Fatalf("replayed publish failed: %v", err)
	}
	if !reflect.DeepEqual(second, first) {
		t.Errorf("replayed response differs:\n  got:  %+v\n  want: %+v", second, first)
	}

	// No duplicate side effects on replay.
	if got := countRows(t, pgStore, "newsletter_issues"); got != 1 {
		t.Errorf("issues after replay: got %d, want 1", got)
	}
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 3 {
		t.Errorf("queued tasks after replay: got %d, want 3", got)
	}
}

func TestPublish_NoConfirmedSubscribers(t *testing.T) {
	pgStore, publisher, userID := setupPublishTest(t)

	seedSubscriber(t, pgStore, "pending@example.com", domain.StatusPendingConfirmation)

	_, err := publisher.Publish(context.Background(), userID, Form{
		Title:          "Quiet issue",
		TextContent:    "t",
		HTMLContent:    "h",
		IdempotencyKey: "quiet-1",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if got := countRows(t, pgStore, "newsletter_issues"); got != 1 {
		t.Errorf("issues: got %d, want 1", got)
	}
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 0 {
		t.Errorf("queued tasks: got %d, want 0", got)
	}
}

func TestPublish_InvalidForm(t *testing.T) {
	pgStore, publisher, userID := setupPublishTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		form Form
	}{
		{name: "empty idempotency key", form: Form{Title: "Hello", IdempotencyKey: ""}},
		{name: "missing title", form: Form{Title: "", IdempotencyKey: "some-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := publisher.Publish(ctx, userID, tt.form)
			if !errors.Is(err, ErrInvalidForm) {
				t.Fatalf("got %v, want ErrInvalidForm", err)
			}
		})
	}

	// Client input errors leave no trace.
	if got := countRows(t, pgStore, "idempotency"); got != 0 {
		t.Errorf("idempotency rows: got %d, want 0", got)
	}
	if got := countRows(t, pgStore, "newsletter_issues"); got != 0 {
		t.Errorf("issues: got %d, want 0", got)
	}
}

func TestPublish_FanOutFailureRollsBackEverything(t *testing.T) {
	pgStore, publisher, userID := setupPublishTest(t)
	ctx := context.Background()

	seedSubscriber(t, pgStore, "one@example.com", domain.StatusConfirmed)

	form := Form{
		Title:          "Doomed",
		TextContent:    "t",
		HTMLContent:    "h",
		IdempotencyKey: "doomed-1",
	}

	// Take the queue table away so the fan-out insert fails after the
	// placeholder and the issue have been written to the open transaction.
	if _, err := pgStore.Pool().Exec(ctx,
		"ALTER TABLE issue_delivery_queue RENAME TO issue_delivery_queue_offline"); err != nil {
		t.Fatalf("renaming queue table: %v", err)
	}
	restored := false
	restore := func() {
		if restored {
			return
		}
		restored = true
		if _, err := pgStore.Pool().Exec(ctx,
			"ALTER TABLE issue_delivery_queue_offline RENAME TO issue_delivery_queue"); err != nil {
			t.Errorf("restoring queue table: %v", err)
		}
	}
	defer restore()

	if _, err := publisher.Publish(ctx, userID, form); err == nil {
		t.Fatal("expected the publish to fail")
	}
	restore()

	// The storage failure must undo the whole attempt: no issue, no tasks,
	// and no placeholder claiming the key.
	if got := countRows(t, pgStore, "newsletter_issues"); got != 0 {
		t.Errorf("issues after failed publish: got %d, want 0", got)
	}
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 0 {
		t.Errorf("queued tasks after failed publish: got %d, want 0", got)
	}
	if got := countRows(t, pgStore, "idempotency"); got != 0 {
		t.Errorf("idempotency rows after failed publish: got %d, want 0", got)
	}

	// With the key unconsumed, a retry proceeds as a first submission.
	resp, err := publisher.Publish(ctx, userID, form)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("retry status: got %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 1 {
		t.Errorf("queued tasks after retry: got %d, want 1", got)
	}
}

func TestPublish_ConcurrentSameKey(t *testing.T) {
	pgStore, publisher, userID := setupPublishTest(t)
	ctx := context.Background()

	seedSubscriber(t, pgStore, "one@example.com", domain.StatusConfirmed)

	form := Form{
		Title:          "Race",
		TextContent:    "t",
		HTMLContent:    "h",
		IdempotencyKey: "double-click",
	}

	const attempts = 4
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := publisher.Publish(ctx, userID, form)
			results <- err
		}()
	}
	for i := 0; i < attempts; i++ {
		if err := <-results; err != nil {
			t.Errorf("concurrent publish failed: %v", err)
		}
	}

	// Exactly one issue and one fan-out, no matter how many submissions.
	if got := countRows(t, pgStore, "newsletter_issues"); got != 1 {
		t.Errorf("issues: got %d, want 1", got)
	}
	if got := countRows(t, pgStore, "issue_delivery_queue"); got != 1 {
		t.Errorf("queued tasks: got %d, want 1", got)
	}
}
