package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/shopspring/decimal"
)

type creditRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewCreditRepository creates a repository over the account_balance ledger
func NewCreditRepository(db postgres.IClient, logger *logger.Logger) credit.Repository {
	return &creditRepository{
		db:     db,
		logger: logger,
	}
}

// ClaimAccountBalanceCredit debits in a single statement so concurrent claims against
// the same balance can never take more than is available.
func (r *creditRepository) ClaimAccountBalanceCredit(ctx context.Context, accountID int64, upTo decimal.Decimal) (*credit.Claim, error) {
	claim := &credit.Claim{
		AccountID:      accountID,
		Claimed:        decimal.Zero,
		AvailableAfter: decimal.Zero,
	}
	if !upTo.IsPositive() {
		return claim, nil
	}

	query := `
		WITH prev AS (
			SELECT account_id, avail_credit
			FROM account_balance
			WHERE account_id = $1
			FOR UPDATE
		)
		UPDATE account_balance b
		SET avail_credit = b.avail_credit - LEAST(prev.avail_credit, $2),
			updated_at = now()
		FROM prev
		WHERE b.account_id = prev.account_id
		AND prev.avail_credit > 0
		RETURNING LEAST(prev.avail_credit, $2) AS claimed, b.avail_credit AS available_after`

	var row struct {
		Claimed        decimal.Decimal `db:"claimed"`
		AvailableAfter decimal.Decimal `db:"available_after"`
	}
	err := r.db.Querier(ctx).GetContext(ctx, &row, query, accountID, upTo)
	if errors.Is(err, sql.ErrNoRows) {
		// no balance row or nothing available
		r.logger.Debugw("no account credit to claim", "account_id", accountID)
		return claim, nil
	}
	if err != nil {
		return nil, postgres.WrapError(err, "Account balance", map[string]any{
			"account_id": accountID,
			"up_to":      upTo.String(),
		})
	}

	r.logger.Infow("claimed account credit",
		"account_id", accountID,
		"claimed", row.Claimed.String(),
		"available_after", row.AvailableAfter.String(),
	)

	claim.Claimed = row.Claimed
	claim.AvailableAfter = row.AvailableAfter
	return claim, nil
}

func (r *creditRepository) GetBalanceForUser(ctx context.Context, userID int64) (*credit.Balance, error) {
	query := `
		SELECT a.id AS account_id, a.user_id, COALESCE(b.avail_credit, 0) AS avail_credit,
			COALESCE(b.updated_at, a.created_at) AS updated_at
		FROM account a
		LEFT JOIN account_balance b ON b.account_id = a.id
		WHERE a.user_id = $1`

	var row struct {
		AccountID       int64           `db:"account_id"`
		UserID          int64           `db:"user_id"`
		AvailableCredit decimal.Decimal `db:"avail_credit"`
		UpdatedAt       time.Time       `db:"updated_at"`
	}
	if err := r.db.Querier(ctx).GetContext(ctx, &row, query, userID); err != nil {
		return nil, postgres.WrapError(err, "Account balance", map[string]any{"user_id": userID})
	}

	return &credit.Balance{
		AccountID:       row.AccountID,
		UserID:          row.UserID,
		AvailableCredit: row.AvailableCredit,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}
