package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/accounttask"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
)

type accountTaskRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewAccountTaskRepository creates a new instance of the account task queue
func NewAccountTaskRepository(db postgres.IClient, logger *logger.Logger) accounttask.Repository {
	return &accountTaskRepository{
		db:     db,
		logger: logger,
	}
}

type accountTaskRow struct {
	ID        uuid.UUID             `db:"id"`
	CreatedAt time.Time             `db:"created_at"`
	AccountID int64                 `db:"acct_id"`
	TaskType  types.AccountTaskType `db:"task_type"`
	Data      []byte                `db:"task_data"`
}

func (r *accountTaskRepository) Create(ctx context.Context, task *accounttask.AccountTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == uuid.Nil {
		task.ID = types.NewEntityID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(task.Extra)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode account task data").
			Mark(ierr.ErrSystem)
	}

	r.logger.Debugw("creating account task",
		"task_id", task.ID,
		"account_id", task.AccountID,
		"task_type", task.TaskType,
	)

	_, err = r.db.Querier(ctx).ExecContext(ctx, `
		INSERT INTO account_task (id, created_at, acct_id, task_type, task_data)
		VALUES ($1, $2, $3, $4, $5)`,
		task.ID,
		task.CreatedAt,
		task.AccountID,
		task.TaskType,
		string(data),
	)
	if err != nil {
		return postgres.WrapError(err, "Account task", map[string]any{
			"task_id":    task.ID,
			"account_id": task.AccountID,
		})
	}
	return nil
}

// ClaimNext must run inside a transaction for the row lock to outlive the statement
func (r *accountTaskRepository) ClaimNext(ctx context.Context) (*accounttask.AccountTask, error) {
	var row accountTaskRow
	err := r.db.Querier(ctx).GetContext(ctx, &row, `
		SELECT id, created_at, acct_id, task_type, task_data
		FROM account_task
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, postgres.WrapError(err, "Account task", nil)
	}

	task := &accounttask.AccountTask{
		ID:        row.ID,
		AccountID: row.AccountID,
		TaskType:  row.TaskType,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &task.Extra); err != nil {
			task.Extra = accounttask.Extra{}
			return task, ierr.WithError(err).
				WithHint("Stored account task data is not valid").
				WithReportableDetails(map[string]any{"task_id": row.ID}).
				Mark(ierr.ErrDataIntegrity)
		}
	}
	return task, nil
}

func (r *accountTaskRepository) Delete(ctx context.Context, task *accounttask.AccountTask) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM account_task WHERE id = $1`, task.ID)
	if err != nil {
		return postgres.WrapError(err, "Account task", map[string]any{"task_id": task.ID})
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("account task not found").
			WithHintf("Account task %s does not exist", task.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
