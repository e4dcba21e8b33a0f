package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// PostgresIdempotencyStore implements the store.IdempotencyStore interface
// using PostgreSQL. Response headers are serialized as JSONB; status code
// and body stay null while a record is reserved.
type PostgresIdempotencyStore struct {
	db store.DBTX
}

// NewPostgresIdempotencyStore creates a new PostgresIdempotencyStore.
func NewPostgresIdempotencyStore(db store.DBTX) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{
		db: db,
	}
}

// Ensure PostgresIdempotencyStore implements store.IdempotencyStore
var _ store.IdempotencyStore = (*PostgresIdempotencyStore)(nil)

// WithTx returns a new IdempotencyStore bound to the provided transaction.
func (s *PostgresIdempotencyStore) WithTx(tx *sql.Tx) store.IdempotencyStore {
	return &PostgresIdempotencyStore{db: tx}
}

// Reserve implements store.IdempotencyStore.Reserve
func (s *PostgresIdempotencyStore) Reserve(ctx context.Context, ownerID uuid.UUID, key string) (bool, error) {
	query := `
		INSERT INTO idempotency (owner_id, idempotency_key, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, ownerID, key)
	if err != nil {
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetResponse implements store.IdempotencyStore.GetResponse
func (s *PostgresIdempotencyStore) GetResponse(ctx context.Context, ownerID uuid.UUID, key string) (*store.SavedResponse, error) {
	query := `
		SELECT response_status_code, response_headers, response_body
		FROM idempotency
		WHERE owner_id = $1
		AND idempotency_key = $2
	`

	var statusCode sql.NullInt32
	var headersJSON []byte
	var body []byte

	err := s.db.QueryRowContext(ctx, query, ownerID, key).
		Scan(&statusCode, &headersJSON, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, MapError(err)
	}

	// A record with a null status code is still reserved: the first
	// request holding the key has not finished processing.
	if !statusCode.Valid {
		return nil, store.ErrReservationInFlight
	}

	var headers []store.HeaderPair
	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &headers); err != nil {
			return nil, fmt.Errorf("failed to decode saved response headers: %w", err)
		}
	}

	return &store.SavedResponse{
		StatusCode: int(statusCode.Int32),
		Headers:    headers,
		Body:       body,
	}, nil
}

// SaveResponse implements store.IdempotencyStore.SaveResponse
func (s *PostgresIdempotencyStore) SaveResponse(ctx context.Context, ownerID uuid.UUID, key string, resp *store.SavedResponse) error {
	log := logger.FromContext(ctx)

	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode response headers: %w", err)
	}

	query := `
		UPDATE idempotency
		SET response_status_code = $3,
			response_headers = $4,
			response_body = $5,
			updated_at = now()
		WHERE owner_id = $1
		AND idempotency_key = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		ownerID,
		key,
		resp.StatusCode,
		headersJSON,
		resp.Body,
	)
	if err != nil {
		log.Error("failed to save idempotency response",
			"owner_id", ownerID,
			"error", err)
		return MapError(err)
	}

	return CheckRowsAffected(result, "idempotency record")
}

// DeleteExpired implements store.IdempotencyStore.DeleteExpired
func (s *PostgresIdempotencyStore) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM idempotency WHERE updated_at < $1`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
