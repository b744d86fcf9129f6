package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/domain/accounttask"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
)

// InMemoryAccountTaskStore implements accounttask.Repository as a FIFO queue. A claimed
// task stays hidden from ClaimNext until it is deleted or Release is called; wire Release
// to MockPostgresClient.OnTxEnd to get postgres lock semantics.
type InMemoryAccountTaskStore struct {
	mu      sync.Mutex
	tasks   []*accounttask.AccountTask
	claimed map[string]bool
}

// NewInMemoryAccountTaskStore creates a new in-memory account task store
func NewInMemoryAccountTaskStore() *InMemoryAccountTaskStore {
	return &InMemoryAccountTaskStore{
		claimed: make(map[string]bool),
	}
}

func (s *InMemoryAccountTaskStore) Create(ctx context.Context, task *accounttask.AccountTask) error {
	if task == nil {
		return ierr.NewError("account task cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == uuid.Nil {
		task.ID = types.NewEntityID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	c := *task
	s.tasks = append(s.tasks, &c)
	return nil
}

func (s *InMemoryAccountTaskStore) ClaimNext(ctx context.Context) (*accounttask.AccountTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if s.claimed[t.ID.String()] {
			continue
		}
		s.claimed[t.ID.String()] = true
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (s *InMemoryAccountTaskStore) Delete(ctx context.Context, task *accounttask.AccountTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID == task.ID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			delete(s.claimed, t.ID.String())
			return nil
		}
	}
	return ierr.NewError("account task not found").
		WithReportableDetails(map[string]any{"id": task.ID}).
		Mark(ierr.ErrNotFound)
}

// Release makes every claimed task visible again, as ending a transaction does
func (s *InMemoryAccountTaskStore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = make(map[string]bool)
}

// Pending returns a copy of the queued tasks in order
func (s *InMemoryAccountTaskStore) Pending() []*accounttask.AccountTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*accounttask.AccountTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		c := *t
		result = append(result, &c)
	}
	return result
}

// Clear removes all tasks
func (s *InMemoryAccountTaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.claimed = make(map[string]bool)
}
