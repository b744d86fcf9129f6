package postgres

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type taxCodeRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewTaxCodeRepository creates a new instance of the tax code repository
func NewTaxCodeRepository(db postgres.IClient, logger *logger.Logger) tax.Repository {
	return &taxCodeRepository{
		db:     db,
		logger: logger,
	}
}

type taxCodeRow struct {
	ID        int64           `db:"id"`
	CreatedAt time.Time       `db:"created_at"`
	Zone      string          `db:"tax_zone"`
	ItemKey   string          `db:"item_key"`
	Code      string          `db:"tax_code"`
	Rate      decimal.Decimal `db:"tax_rate"`
	ValidFrom time.Time       `db:"valid_from"`
	ValidTo   *time.Time      `db:"valid_to"`
}

func (r taxCodeRow) toDomain() *tax.TaxCode {
	return &tax.TaxCode{
		ID:        r.ID,
		Zone:      r.Zone,
		ItemKey:   r.ItemKey,
		Code:      r.Code,
		Rate:      r.Rate,
		ValidFrom: r.ValidFrom,
		ValidTo:   r.ValidTo,
		CreatedAt: r.CreatedAt,
	}
}

func (r *taxCodeRepository) Find(ctx context.Context, filter *tax.Filter) ([]*tax.TaxCode, error) {
	if filter == nil {
		filter = &tax.Filter{}
	}

	w := &whereBuilder{}
	if len(filter.Zones) > 0 {
		w.add("tax_zone = ANY($%d)", pq.Array(filter.Zones))
	}
	if filter.ItemKey != "" {
		w.add("LOWER(item_key) = LOWER($%d)", filter.ItemKey)
	}
	if filter.Code != "" {
		w.add("tax_code = $%d", filter.Code)
	}
	if filter.Date != nil {
		w.add("valid_from <= $%d", *filter.Date)
		w.add("(valid_to IS NULL OR valid_to > $%d)", *filter.Date)
	}

	query := `
		SELECT id, created_at, tax_zone, item_key, tax_code, tax_rate, valid_from, valid_to
		FROM tax_code` + w.clause() + `
		ORDER BY tax_zone, item_key, tax_code, valid_from`

	r.logger.Debugw("finding tax codes",
		"zones", filter.Zones,
		"item_key", filter.ItemKey,
		"date", filter.Date,
	)

	var rows []taxCodeRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, postgres.WrapError(err, "Tax codes", map[string]any{"zones": filter.Zones})
	}

	return lo.Map(rows, func(row taxCodeRow, _ int) *tax.TaxCode {
		return row.toDomain()
	}), nil
}
