package postgres

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
)

type usageTierRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewUsageTierRepository creates a repository over the usage_tier schedule history
func NewUsageTierRepository(db postgres.IClient, logger *logger.Logger) usage.TierRepository {
	return &usageTierRepository{
		db:     db,
		logger: logger,
	}
}

type usageTierRow struct {
	EffectiveDate time.Time `db:"effective_date"`
	usage.Tier
}

func (r *usageTierRepository) GetEffective(ctx context.Context, date time.Time) (*usage.EffectiveTierSchedule, error) {
	query := `
		SELECT effective_date, min_quantity, cost_properties_in, cost_datum_out, cost_datum_days_stored
		FROM usage_tier
		WHERE effective_date = (
			SELECT MAX(effective_date) FROM usage_tier WHERE effective_date <= $1
		)
		ORDER BY min_quantity`

	day := types.DateOf(date).Format(types.DateLayout)
	r.logger.Debugw("getting effective usage tiers", "date", day)

	var rows []usageTierRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, day); err != nil {
		return nil, postgres.WrapError(err, "Usage tiers", map[string]any{"date": day})
	}
	if len(rows) == 0 {
		return nil, ierr.NewError("no usage tiers effective on date").
			WithHintf("No usage tier schedule is effective on %s", day).
			WithReportableDetails(map[string]any{"date": day}).
			Mark(ierr.ErrNotFound)
	}

	schedules, err := groupTierRows(rows)
	if err != nil {
		return nil, err
	}
	return schedules[0], nil
}

func (r *usageTierRepository) List(ctx context.Context) ([]*usage.EffectiveTierSchedule, error) {
	query := `
		SELECT effective_date, min_quantity, cost_properties_in, cost_datum_out, cost_datum_days_stored
		FROM usage_tier
		ORDER BY effective_date, min_quantity`

	var rows []usageTierRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query); err != nil {
		return nil, postgres.WrapError(err, "Usage tiers", nil)
	}
	return groupTierRows(rows)
}

// groupTierRows folds rows ordered by effective date into one schedule per date
func groupTierRows(rows []usageTierRow) ([]*usage.EffectiveTierSchedule, error) {
	var (
		result  []*usage.EffectiveTierSchedule
		current time.Time
		tiers   []usage.Tier
	)

	flush := func() error {
		if tiers == nil {
			return nil
		}
		s, err := usage.NewEffectiveTierSchedule(current, tiers)
		if err != nil {
			return err
		}
		result = append(result, s)
		tiers = nil
		return nil
	}

	for _, row := range rows {
		day := types.DateOf(row.EffectiveDate)
		if tiers != nil && !day.Equal(current) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		current = day
		tiers = append(tiers, row.Tier)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return result, nil
}
