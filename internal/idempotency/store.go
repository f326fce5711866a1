package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingSavedResponse means the key's placeholder row exists but no
// response was ever finalized: either a concurrent request holds the key
// right now, or a previous attempt crashed before committing.
var ErrMissingSavedResponse = errors.New("saved response not found for a claimed idempotency key")

// Store persists HTTP responses keyed by (user, idempotency key).
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Guard is the unit of work handed to the first caller for a key. It owns
// an open transaction: the caller adds its business writes to it, then
// SaveResponse commits everything at a single point. Rollback after commit
// is a no-op, so `defer guard.Rollback(ctx)` is always safe.
type Guard struct {
	tx        pgx.Tx
	committed bool
}

// Tx exposes the underlying transaction for business writes that must
// commit atomically with the saved response.
func (g *Guard) Tx() pgx.Tx {
	return g.tx
}

// Rollback aborts the unit of work unless it was already committed.
func (g *Guard) Rollback(ctx context.Context) {
	if g.committed {
		return
	}
	_ = g.tx.Rollback(ctx)
}

func (g *Guard) commit(ctx context.Context) error {
	if err := g.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing idempotency transaction: %w", err)
	}
	g.committed = true
	return nil
}

// TryProcessing atomically claims the (user, key) pair. Exactly one of the
// two return values is non-nil on success:
//   - a *Guard when the key is fresh and the caller should process the
//     request, finishing with SaveResponse;
//   - a *Response when the key was already finalized and the caller should
//     replay it verbatim.
//
// A claimed-but-unfinalized key yields ErrMissingSavedResponse.
func (s *Store) TryProcessing(ctx context.Context, key Key, userID uuid.UUID) (*Guard, *Response, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency (user_id, idempotency_key, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING
	`, userID, key.String())
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, fmt.Errorf("inserting idempotency placeholder: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return &Guard{tx: tx}, nil, nil
	}

	// Someone already claimed this key; the transaction held no effect.
	_ = tx.Rollback(ctx)

	saved, err := s.getSavedResponse(ctx, key, userID)
	if err != nil {
		return nil, nil, err
	}
	return nil, saved, nil
}

// SaveResponse persists resp into the placeholder row and commits the
// guard. This is the single commit point: the business writes added to the
// guard transaction and the cached response become durable together. The
// returned response is the one to send to the client.
func (s *Store) SaveResponse(ctx context.Context, guard *Guard, key Key, userID uuid.UUID, resp *Response) (*Response, error) {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		return nil, fmt.Errorf("encoding response headers: %w", err)
	}

	_, err = guard.Tx().Exec(ctx, `
		UPDATE idempotency
		SET response_status_code = $3,
		    response_headers = $4,
		    response_body = $5
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key.String(), resp.StatusCode, headers, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("updating idempotency record: %w", err)
	}

	if err := guard.commit(ctx); err != nil {
		return nil, err
	}

	return resp, nil
}

// getSavedResponse reconstructs the finalized response for a key, or
// reports ErrMissingSavedResponse if only the placeholder exists.
func (s *Store) getSavedResponse(ctx context.Context, key Key, userID uuid.UUID) (*Response, error) {
	var (
		statusCode int
		headersRaw []byte
		body       []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT response_status_code, response_headers, response_body
		FROM idempotency
		WHERE user_id = $1
		  AND idempotency_key = $2
		  AND response_status_code IS NOT NULL
	`, userID, key.String()).Scan(&statusCode, &headersRaw, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMissingSavedResponse
		}
		return nil, fmt.Errorf("querying saved response: %w", err)
	}

	var headers []HeaderPair
	if err := json.Unmarshal(headersRaw, &headers); err != nil {
		return nil, fmt.Errorf("decoding response headers: %w", err)
	}

	return &Response{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}
