package postgres

import (
	"context"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/invoicer/internal/domain/accounttask"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
)

var accountTaskColumns = []string{"id", "created_at", "acct_id", "task_type", "task_data"}

func (s *RepositorySuite) TestAccountTaskCreate() {
	repo := NewAccountTaskRepository(s.db, s.logger)
	start := types.NewDate(2020, time.July, 1)
	end := types.NewDate(2020, time.August, 1)

	task := &accounttask.AccountTask{
		AccountID: 3,
		TaskType:  types.AccountTaskTypeGenerateInvoice,
		Extra:     accounttask.Extra{StartDate: &start, EndDate: &end},
	}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO account_task")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3), "generate_invoice",
			`{"start_date":"2020-07-01T00:00:00Z","end_date":"2020-08-01T00:00:00Z"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(repo.Create(context.Background(), task))
	s.NotEqual(uuid.Nil, task.ID)
}

func (s *RepositorySuite) TestAccountTaskCreateRejectsMissingArguments() {
	repo := NewAccountTaskRepository(s.db, s.logger)

	err := repo.Create(context.Background(), &accounttask.AccountTask{
		AccountID: 3,
		TaskType:  types.AccountTaskTypeDeliverInvoice,
	})
	s.True(ierr.IsValidation(err))
}

func (s *RepositorySuite) TestAccountTaskClaimNext() {
	repo := NewAccountTaskRepository(s.db, s.logger)
	id := uuid.New()
	invoiceID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WillReturnRows(sqlmock.NewRows(accountTaskColumns).
			AddRow(id.String(), s.now, int64(3), "deliver_invoice", []byte(`{"invoice_id":"`+invoiceID.String()+`"}`)))

	task, err := repo.ClaimNext(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(task)
	s.Equal(id, task.ID)
	s.Equal(types.AccountTaskTypeDeliverInvoice, task.TaskType)
	s.Require().NotNil(task.Extra.InvoiceID)
	s.Equal(invoiceID, *task.Extra.InvoiceID)
}

func (s *RepositorySuite) TestAccountTaskClaimNextEmptyQueue() {
	repo := NewAccountTaskRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM account_task")).
		WillReturnRows(sqlmock.NewRows(accountTaskColumns))

	task, err := repo.ClaimNext(context.Background())
	s.Require().NoError(err)
	s.Nil(task)
}

func (s *RepositorySuite) TestAccountTaskDelete() {
	repo := NewAccountTaskRepository(s.db, s.logger)
	task := &accounttask.AccountTask{ID: uuid.New()}

	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM account_task WHERE id = $1")).
		WithArgs(task.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM account_task WHERE id = $1")).
		WithArgs(task.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s.Require().NoError(repo.Delete(context.Background(), task))
	s.True(ierr.IsNotFound(repo.Delete(context.Background(), task)))
}

func (s *RepositorySuite) TestAccountTaskClaimNextCorruptData() {
	repo := NewAccountTaskRepository(s.db, s.logger)
	id := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WillReturnRows(sqlmock.NewRows(accountTaskColumns).
			AddRow(id.String(), s.now, int64(3), "deliver_invoice", []byte(`{"invoice_id":`)))

	task, err := repo.ClaimNext(context.Background())
	s.True(ierr.IsDataIntegrity(err))
	s.Require().NotNil(task)
	s.Equal(id, task.ID)
	s.Nil(task.Extra.InvoiceID)
}
