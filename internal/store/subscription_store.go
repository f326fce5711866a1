package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zero2prod/newsletter/internal/domain"
)

const tokenLength = 25

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateSubscription inserts a pending subscription together with its
// confirmation token in one transaction and returns the token.
func (s *PostgresStore) CreateSubscription(ctx context.Context, sub domain.NewSubscriber) (string, error) {
	token, err := generateSubscriptionToken()
	if err != nil {
		return "", fmt.Errorf("generating subscription token: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	subscriberID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, now(), $4)
	`, subscriberID, sub.Email.String(), sub.Name.String(), domain.StatusPendingConfirmation)
	if err != nil {
		return "", fmt.Errorf("inserting subscription: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`, token, subscriberID)
	if err != nil {
		return "", fmt.Errorf("storing subscription token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	return token, nil
}

// GetSubscriberIDFromToken resolves a confirmation token. A nil result
// with nil error means the token is unknown.
func (s *PostgresStore) GetSubscriberIDFromToken(ctx context.Context, token string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1
	`, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying subscription token: %w", err)
	}
	return &id, nil
}

// ConfirmSubscriber flips a subscription to confirmed.
func (s *PostgresStore) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $2 WHERE id = $1
	`, subscriberID, domain.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("confirming subscriber: %w", err)
	}
	return nil
}

func generateSubscriptionToken() (string, error) {
	token := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = tokenAlphabet[n.Int64()]
	}
	return string(token), nil
}
