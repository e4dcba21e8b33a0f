package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a new TaskStore bound to the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := `
		INSERT INTO tasks (id, owner_id, task_type, state, source_file, result_file)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.TaskType,
		task.State,
		task.SourceFile,
		task.ResultFile,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"task_type", task.TaskType,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, owner_id, task_type, state, source_file, result_file
		FROM tasks
		WHERE id = $1
	`

	var task domain.Task
	var resultFile sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.OwnerID,
		&task.TaskType,
		&task.State,
		&task.SourceFile,
		&resultFile,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
		}
		return nil, MapError(err)
	}

	if resultFile.Valid {
		task.ResultFile = &resultFile.String
	}

	return &task, nil
}

// Update implements store.TaskStore.Update. The SET clause is built from
// only the fields present in the patch; each optional field contributes at
// most one assignment with a bound parameter. An empty patch returns
// without touching the database.
func (s *PostgresTaskStore) Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) error {
	log := logger.FromContext(ctx)

	if update.IsEmpty() {
		log.Debug("skipping task update with no fields", "task_id", id)
		return nil
	}

	var assignments []string
	var args []any

	appendAssignment := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.TaskType != nil {
		appendAssignment("task_type", *update.TaskType)
	}
	if update.SourceFile != nil {
		appendAssignment("source_file", *update.SourceFile)
	}
	if update.State != nil {
		appendAssignment("state", *update.State)
	}
	if update.ResultFile != nil {
		appendAssignment("result_file", *update.ResultFile)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d",
		strings.Join(assignments, ", "),
		len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task",
			"task_id", id,
			"error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}

	return nil
}
