package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zero2prod/newsletter/internal/domain"
)

// InsertNewsletterIssue creates the issue row inside the caller's
// transaction and returns its freshly generated id.
func (s *PostgresStore) InsertNewsletterIssue(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
	issueID := uuid.New()
	_, err := tx.Exec(ctx, `
		INSERT INTO newsletter_issues (newsletter_issue_id, title, text_content, html_content, published_at)
		VALUES ($1, $2, $3, $4, now())
	`, issueID, title, textContent, htmlContent)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting newsletter issue: %w", err)
	}
	return issueID, nil
}

// GetNewsletterIssue loads one issue by id.
func (s *PostgresStore) GetNewsletterIssue(ctx context.Context, issueID uuid.UUID) (*domain.NewsletterIssue, error) {
	var issue domain.NewsletterIssue
	err := s.pool.QueryRow(ctx, `
		SELECT newsletter_issue_id, title, text_content, html_content, published_at
		FROM newsletter_issues
		WHERE newsletter_issue_id = $1
	`, issueID).Scan(
		&issue.ID, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying newsletter issue: %w", err)
	}
	return &issue, nil
}
