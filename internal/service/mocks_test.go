package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// mockGate implements IdempotencyGate over an in-memory record map.
type mockGate struct {
	mu       sync.Mutex
	reserved map[string]bool
	saved    map[string]*store.SavedResponse
}

func newMockGate() *mockGate {
	return &mockGate{
		reserved: make(map[string]bool),
		saved:    make(map[string]*store.SavedResponse),
	}
}

func gateKey(ownerID uuid.UUID, key idempotency.Key) string {
	return ownerID.String() + "/" + key.String()
}

func (g *mockGate) BeginProcessing(
	_ context.Context,
	ownerID uuid.UUID,
	key idempotency.Key,
) (idempotency.Reservation, *store.SavedResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := gateKey(ownerID, key)

	if resp, ok := g.saved[k]; ok {
		return nil, resp, nil
	}

	if g.reserved[k] {
		return nil, nil, idempotency.ErrConcurrentDuplicate
	}

	g.reserved[k] = true
	return &mockReservation{gate: g, key: k}, nil, nil
}

// mockReservation mirrors the gate's commit/rollback contract without a
// real transaction.
type mockReservation struct {
	gate       *mockGate
	key        string
	done       bool
	completed  bool
	rolledBack bool
}

func (r *mockReservation) Tx() *sql.Tx {
	return nil
}

func (r *mockReservation) Complete(_ context.Context, resp *store.SavedResponse) error {
	if r.done {
		return fmt.Errorf("reservation already finished")
	}
	r.done = true
	r.completed = true

	r.gate.mu.Lock()
	defer r.gate.mu.Unlock()
	r.gate.saved[r.key] = resp
	delete(r.gate.reserved, r.key)
	return nil
}

func (r *mockReservation) Rollback() error {
	if r.done {
		return nil
	}
	r.done = true
	r.rolledBack = true

	r.gate.mu.Lock()
	defer r.gate.mu.Unlock()
	delete(r.gate.reserved, r.key)
	return nil
}

// mockTaskStore keeps tasks in a map; WithTx returns the store itself.
type mockTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *mockTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *mockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *mockTaskStore) Update(_ context.Context, id uuid.UUID, update domain.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if update.TaskType != nil {
		task.TaskType = *update.TaskType
	}
	if update.SourceFile != nil {
		task.SourceFile = *update.SourceFile
	}
	if update.State != nil {
		task.State = *update.State
	}
	if update.ResultFile != nil {
		task.ResultFile = update.ResultFile
	}
	return nil
}

func (s *mockTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return s
}

func (s *mockTaskStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// mockProfileStore serves a fixed recipient list.
type mockProfileStore struct {
	emails []string
	err    error
}

func (s *mockProfileStore) GetConfirmedEmails(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.emails, nil
}

func (s *mockProfileStore) WithTx(_ *sql.Tx) store.ProfileStore {
	return s
}

// mockDeliveryStore records enqueued rows; DequeueOne is not used by the
// service layer.
type mockDeliveryStore struct {
	mu         sync.Mutex
	rows       []store.DeliveryQueueEntry
	enqueueErr error
}

func (s *mockDeliveryStore) Enqueue(_ context.Context, taskID uuid.UUID, recipients []string) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recipients {
		s.rows = append(s.rows, store.DeliveryQueueEntry{TaskID: taskID, RecipientEmail: r})
	}
	return nil
}

func (s *mockDeliveryStore) DequeueOne(_ context.Context) (store.ClaimedDelivery, error) {
	return nil, store.ErrNotFound
}

func (s *mockDeliveryStore) CountByTask(_ context.Context, taskID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows {
		if row.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

func (s *mockDeliveryStore) WithTx(_ *sql.Tx) store.DeliveryQueueStore {
	return s
}

func (s *mockDeliveryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
