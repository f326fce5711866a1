// Package session keeps login state and one-shot flash messages in Redis,
// keyed by an opaque token carried in a cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionTTL = 24 * time.Hour
	flashTTL   = 5 * time.Minute
)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Store is a Redis-backed session store.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Create opens a session for the user and returns its token. Each login
// gets a fresh token; there is no session fixation to rotate away from.
func (s *Store) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(token), userID.String(), sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// UserID resolves a session token. A nil result with nil error means the
// session does not exist or has expired.
func (s *Store) UserID(ctx context.Context, token string) (*uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil, fmt.Errorf("parsing stored user id: %w", err)
	}
	return &id, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}

// PushFlash queues a one-shot message for the token's next page render.
func (s *Store) PushFlash(ctx context.Context, token, message string) error {
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, flashKey(token), message)
	pipe.Expire(ctx, flashKey(token), flashTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pushing flash message: %w", err)
	}
	return nil
}

// PopFlashes returns and clears all pending flash messages for the token.
func (s *Store) PopFlashes(ctx context.Context, token string) ([]string, error) {
	pipe := s.client.Pipeline()
	rangeCmd := pipe.LRange(ctx, flashKey(token), 0, -1)
	pipe.Del(ctx, flashKey(token))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("popping flash messages: %w", err)
	}
	return rangeCmd.Val(), nil
}

func sessionKey(token string) string {
	return "session:" + token
}

func flashKey(token string) string {
	return "flash:" + token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
