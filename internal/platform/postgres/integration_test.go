package postgres_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/platform/postgres"
	"github.com/tasktrack/tasktrack-api/internal/store"
	"github.com/tasktrack/tasktrack-api/internal/testdb"
)

func createTask(t *testing.T, db *sql.DB) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(uuid.New(), "feature", "init.txt")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresTaskStore(db).Create(context.Background(), task))
	return task
}

func insertProfile(t *testing.T, db *sql.DB, email, status string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO profiles (email, status) VALUES ($1, $2)`, email, status)
	require.NoError(t, err)
}

func TestTaskStoreLifecycle(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	tasks := postgres.NewPostgresTaskStore(db)
	task := createTask(t, db)

	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, domain.TaskStateNotStarted, got.State)
	assert.Nil(t, got.ResultFile)

	// Sparse update: only the provided fields change.
	state := domain.TaskStateCompleted
	resultFile := "out.txt"
	err = tasks.Update(ctx, task.ID, domain.TaskUpdate{State: &state, ResultFile: &resultFile})
	require.NoError(t, err)

	got, err = tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateCompleted, got.State)
	require.NotNil(t, got.ResultFile)
	assert.Equal(t, "out.txt", *got.ResultFile)
	assert.Equal(t, "feature", got.TaskType)

	// An empty patch is a no-op, not an error.
	require.NoError(t, tasks.Update(ctx, task.ID, domain.TaskUpdate{}))

	// Unknown task IDs surface as not found.
	_, err = tasks.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	err = tasks.Update(ctx, uuid.New(), domain.TaskUpdate{State: &state})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestProfileStoreReturnsConfirmedOnly(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)

	insertProfile(t, db, "confirmed1@example.com", "confirmed")
	insertProfile(t, db, "confirmed2@example.com", "confirmed")
	insertProfile(t, db, "pending@example.com", "pending_confirmation")

	emails, err := postgres.NewPostgresProfileStore(db).GetConfirmedEmails(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"confirmed1@example.com", "confirmed2@example.com"}, emails)
}

func TestDeliveryQueueClaiming(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	queue := postgres.NewPostgresDeliveryQueueStore(db)
	task := createTask(t, db)

	require.NoError(t, queue.Enqueue(ctx, task.ID, []string{"a@example.com", "b@example.com"}))

	count, err := queue.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A claimed row is invisible to a second dequeue until released.
	first, err := queue.DequeueOne(ctx)
	require.NoError(t, err)

	second, err := queue.DequeueOne(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Entry().RecipientEmail, second.Entry().RecipientEmail)

	_, err = queue.DequeueOne(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Finishing removes the row; releasing puts it back up for grabs.
	require.NoError(t, first.Finish(ctx))
	require.NoError(t, second.Release())

	count, err = queue.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reclaimed, err := queue.DequeueOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Entry().RecipientEmail, reclaimed.Entry().RecipientEmail)
	require.NoError(t, reclaimed.Finish(ctx))
}

func TestIdempotencyStoreReserveAndSave(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	idem := postgres.NewPostgresIdempotencyStore(db)
	ownerID := uuid.New()

	inserted, err := idem.Reserve(ctx, ownerID, "key-1")
	require.NoError(t, err)
	assert.True(t, inserted)

	// The same key cannot be reserved twice.
	inserted, err = idem.Reserve(ctx, ownerID, "key-1")
	require.NoError(t, err)
	assert.False(t, inserted)

	// While reserved, the record has no response yet.
	_, err = idem.GetResponse(ctx, ownerID, "key-1")
	assert.ErrorIs(t, err, store.ErrReservationInFlight)

	saved := &store.SavedResponse{
		StatusCode: http.StatusOK,
		Headers: []store.HeaderPair{
			{Name: "Content-Type", Value: []byte("application/json")},
		},
		Body: []byte(`{"message":"Task successfully created"}`),
	}
	require.NoError(t, idem.SaveResponse(ctx, ownerID, "key-1", saved))

	got, err := idem.GetResponse(ctx, ownerID, "key-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	// The same key under another owner is independent.
	_, err = idem.GetResponse(ctx, uuid.New(), "key-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIdempotencyStoreDeleteExpired(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	idem := postgres.NewPostgresIdempotencyStore(db)
	ownerID := uuid.New()

	_, err := idem.Reserve(ctx, ownerID, "old-key")
	require.NoError(t, err)
	_, err = idem.Reserve(ctx, ownerID, "fresh-key")
	require.NoError(t, err)

	// Age one record past the retention window.
	_, err = db.Exec(
		`UPDATE idempotency SET updated_at = $1 WHERE idempotency_key = 'old-key'`,
		time.Now().UTC().Add(-72*time.Hour))
	require.NoError(t, err)

	purged, err := idem.DeleteExpired(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = idem.GetResponse(ctx, ownerID, "fresh-key")
	assert.ErrorIs(t, err, store.ErrReservationInFlight)
	_, err = idem.GetResponse(ctx, ownerID, "old-key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGateReplayAfterCompletion(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	gate := idempotency.NewGate(db, postgres.NewPostgresIdempotencyStore(db))
	ownerID := uuid.New()
	key, err := idempotency.NewKey("submission-1")
	require.NoError(t, err)

	reservation, saved, err := gate.BeginProcessing(ctx, ownerID, key)
	require.NoError(t, err)
	require.NotNil(t, reservation)
	require.Nil(t, saved)

	response := &store.SavedResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"message":"Task successfully created"}`),
	}
	require.NoError(t, reservation.Complete(ctx, response))

	// Retries replay the recorded response.
	replayReservation, replayed, err := gate.BeginProcessing(ctx, ownerID, key)
	require.NoError(t, err)
	assert.Nil(t, replayReservation)
	require.NotNil(t, replayed)
	assert.Equal(t, response.StatusCode, replayed.StatusCode)
	assert.Equal(t, response.Body, replayed.Body)
}

func TestGateStrandedReservationIsAnError(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	gate := idempotency.NewGate(db, postgres.NewPostgresIdempotencyStore(db))
	ownerID := uuid.New()
	key, err := idempotency.NewKey("stranded")
	require.NoError(t, err)

	// A committed reservation with no recorded response, as left behind by
	// a crash between reservation and completion.
	_, err = db.Exec(
		`INSERT INTO idempotency (owner_id, idempotency_key) VALUES ($1, $2)`,
		ownerID, key.String())
	require.NoError(t, err)

	_, _, err = gate.BeginProcessing(ctx, ownerID, key)
	assert.ErrorIs(t, err, idempotency.ErrConcurrentDuplicate)
}

func TestGateRollbackFreesKey(t *testing.T) {
	db := testdb.MustOpen(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	gate := idempotency.NewGate(db, postgres.NewPostgresIdempotencyStore(db))
	ownerID := uuid.New()
	key, err := idempotency.NewKey("submission-2")
	require.NoError(t, err)

	reservation, _, err := gate.BeginProcessing(ctx, ownerID, key)
	require.NoError(t, err)
	require.NoError(t, reservation.Rollback())

	// Nothing persisted; the key is claimable again.
	reclaimed, saved, err := gate.BeginProcessing(ctx, ownerID, key)
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Nil(t, saved)
	require.NoError(t, reclaimed.Rollback())
}
