package postgres

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

type accountRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewAccountRepository creates a new instance of the billing account repository
func NewAccountRepository(db postgres.IClient, logger *logger.Logger) account.Repository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

const accountSelect = `
	SELECT a.id, a.created_at, a.user_id, a.currency_code, a.locale,` + addressColumns + `
	FROM account a
	JOIN address ad ON ad.id = a.address_id`

type accountRow struct {
	ID           int64     `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	UserID       int64     `db:"user_id"`
	CurrencyCode string    `db:"currency_code"`
	Locale       string    `db:"locale"`
	addressRow
}

func (r *accountRow) toDomain() *account.Account {
	return &account.Account{
		ID:           r.ID,
		UserID:       r.UserID,
		Address:      r.addressRow.toDomain(),
		CurrencyCode: r.CurrencyCode,
		Locale:       r.Locale,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *accountRepository) Get(ctx context.Context, id int64) (*account.Account, error) {
	r.logger.Debugw("getting account", "account_id", id)

	var row accountRow
	err := r.db.Querier(ctx).GetContext(ctx, &row, accountSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, postgres.WrapError(err, "Account", map[string]any{"account_id": id})
	}
	return row.toDomain(), nil
}

func (r *accountRepository) GetForUser(ctx context.Context, userID int64) (*account.Account, error) {
	r.logger.Debugw("getting account for user", "user_id", userID)

	var row accountRow
	err := r.db.Querier(ctx).GetContext(ctx, &row, accountSelect+` WHERE a.user_id = $1`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "Account", map[string]any{"user_id": userID})
	}
	return row.toDomain(), nil
}

func (r *accountRepository) List(ctx context.Context, filter *account.Filter) ([]*account.Account, error) {
	if filter == nil {
		filter = account.NewDefaultFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	w := accountWhere(filter)
	query := accountSelect + w.clause() + ` ORDER BY a.id` + w.page(filter.GetLimit(), filter.GetOffset())

	var rows []accountRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, postgres.WrapError(err, "Accounts", nil)
	}

	return lo.Map(rows, func(row accountRow, _ int) *account.Account {
		return row.toDomain()
	}), nil
}

func (r *accountRepository) Count(ctx context.Context, filter *account.Filter) (int, error) {
	if filter == nil {
		filter = account.NewDefaultFilter()
	}

	w := accountWhere(filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM account a`+w.clause(), w.args...); err != nil {
		return 0, postgres.WrapError(err, "Accounts", nil)
	}
	return count, nil
}

func accountWhere(filter *account.Filter) *whereBuilder {
	w := &whereBuilder{}
	if len(filter.UserIDs) > 0 {
		w.add("a.user_id = ANY($%d)", pq.Array(filter.UserIDs))
	}
	return w
}
