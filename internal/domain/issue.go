package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewsletterIssue is one published issue. Immutable after creation.
type NewsletterIssue struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	TextContent string    `json:"text_content"`
	HTMLContent string    `json:"html_content"`
	PublishedAt time.Time `json:"published_at"`
}

// DeliveryTask is one pending delivery: a single issue to a single
// subscriber. Deleting the row is its terminal state.
type DeliveryTask struct {
	NewsletterIssueID uuid.UUID
	SubscriberEmail   string
}
