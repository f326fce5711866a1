// Package authentication validates admin credentials against argon2id
// hashes stored in Postgres.
package authentication

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zero2prod/newsletter/internal/store"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords,
// indistinguishably.
var ErrInvalidCredentials = errors.New("invalid credentials")

// fallbackHash is verified against when the username is unknown, so that
// lookups with and without a matching user take comparable time.
const fallbackHash = "$argon2id$v=19$m=19456,t=2,p=1$" +
	"Z2VuZXJpY3NhbHR2YWx1ZQ$tZ0QJM9eTSLMCInynKNveBlaBR+cSVorgGF5SibL4u4"

// Authenticator validates and updates credentials.
type Authenticator struct {
	store *store.PostgresStore
}

func NewAuthenticator(st *store.PostgresStore) *Authenticator {
	return &Authenticator{store: st}
}

// ValidateCredentials returns the user id for a valid username/password
// pair, or ErrInvalidCredentials.
func (a *Authenticator) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	creds, err := a.store.GetStoredCredentials(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}

	expectedHash := fallbackHash
	userID := uuid.Nil
	if creds != nil {
		expectedHash = creds.PasswordHash
		userID = creds.UserID
	}

	ok, err := verifyPassword(expectedHash, password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("verifying password hash: %w", err)
	}
	if !ok || creds == nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return userID, nil
}

// ValidateNewPassword enforces the password policy for password changes.
func ValidateNewPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 13 {
		return errors.New("password must be at least 13 characters long")
	}
	if n > 128 {
		return errors.New("password must be at most 128 characters long")
	}
	return nil
}

// ChangePassword re-hashes and stores a new password for the user.
func (a *Authenticator) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	return a.store.UpdatePasswordHash(ctx, userID, hash)
}
