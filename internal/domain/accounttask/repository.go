package accounttask

import (
	"context"
)

// Repository is the queue of account tasks
type Repository interface {
	// Create enqueues a task
	Create(ctx context.Context, task *AccountTask) error

	// ClaimNext locks and returns the oldest task, or nil when the queue is empty.
	// The lock is held until the surrounding transaction ends. When the stored arguments
	// cannot be decoded the task is returned alongside an ErrDataIntegrity error so the
	// caller can discard it.
	ClaimNext(ctx context.Context) (*AccountTask, error)

	// Delete removes a processed task
	Delete(ctx context.Context, task *AccountTask) error
}
