package postgres

import (
	"context"
	"database/sql"

	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// PostgresProfileStore implements the store.ProfileStore interface using
// PostgreSQL. It only reads profile contact details; registration and
// confirmation are owned by a separate surface.
type PostgresProfileStore struct {
	db store.DBTX
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db store.DBTX) *PostgresProfileStore {
	return &PostgresProfileStore{
		db: db,
	}
}

// Ensure PostgresProfileStore implements store.ProfileStore
var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// WithTx returns a new ProfileStore bound to the provided transaction.
func (s *PostgresProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &PostgresProfileStore{db: tx}
}

// GetConfirmedEmails implements store.ProfileStore.GetConfirmedEmails
func (s *PostgresProfileStore) GetConfirmedEmails(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM profiles WHERE status = 'confirmed'`)
	if err != nil {
		log.Error("failed to query confirmed profiles", "error", err)
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "error", err)
		}
	}()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, MapError(err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return emails, nil
}
