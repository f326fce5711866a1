package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StoredCredentials is a user row as needed for credential validation.
type StoredCredentials struct {
	UserID       uuid.UUID
	PasswordHash string
}

// GetStoredCredentials returns the credentials for a username, or nil if
// the user does not exist.
func (s *PostgresStore) GetStoredCredentials(ctx context.Context, username string) (*StoredCredentials, error) {
	var creds StoredCredentials
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, password_hash FROM users WHERE username = $1
	`, username).Scan(&creds.UserID, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying stored credentials: %w", err)
	}
	return &creds, nil
}

// GetUsername resolves a user id to its username.
func (s *PostgresStore) GetUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := s.pool.QueryRow(ctx, `
		SELECT username FROM users WHERE user_id = $1
	`, userID).Scan(&username)
	if err != nil {
		return "", fmt.Errorf("querying username: %w", err)
	}
	return username, nil
}

// UpdatePasswordHash replaces a user's stored password hash.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE user_id = $1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return nil
}
