package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
)

const tierScheduleCacheTTL = 15 * time.Minute

// UsageService turns raw node tallies into rated account usage
type UsageService interface {
	// FindUsageForAccount rates the summed usage of all of a user's nodes for
	// [start, end). The result holds one account level aggregate, or nothing when
	// no node recorded usage.
	FindUsageForAccount(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RatedUsage, error)

	// FindNodeUsageForAccount returns the unrated per-node tallies for [start, end)
	FindNodeUsageForAccount(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RawUsageSnapshot, error)

	// RateAccountUsage rates already fetched node tallies against the schedule in
	// effect on date
	RateAccountUsage(ctx context.Context, snapshots []*usage.RawUsageSnapshot, date time.Time) ([]*usage.RatedUsage, error)

	// EffectiveTierSchedule returns the schedule in effect on date, or ErrNotFound
	EffectiveTierSchedule(ctx context.Context, date time.Time) (*usage.EffectiveTierSchedule, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{ServiceParams: params}
}

func (s *usageService) FindUsageForAccount(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RatedUsage, error) {
	snapshots, err := s.FindNodeUsageForAccount(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return s.RateAccountUsage(ctx, snapshots, start)
}

func (s *usageService) FindNodeUsageForAccount(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RawUsageSnapshot, error) {
	if end.Before(start) {
		return nil, ierr.NewError("usage period ends before it starts").
			WithHint("The end date must not be before the start date").
			WithReportableDetails(map[string]any{
				"start_date": start.Format(types.DateLayout),
				"end_date":   end.Format(types.DateLayout),
			}).
			Mark(ierr.ErrValidation)
	}

	snapshots, err := s.UsageRepo.FindNodeUsage(ctx, userID, start, end)
	if err != nil {
		s.Logger.Errorw("failed to fetch node usage",
			"error", err,
			"user_id", userID,
			"start_date", start.Format(types.DateLayout),
			"end_date", end.Format(types.DateLayout),
		)
		return nil, err
	}
	return snapshots, nil
}

func (s *usageService) RateAccountUsage(ctx context.Context, snapshots []*usage.RawUsageSnapshot, date time.Time) ([]*usage.RatedUsage, error) {
	counts := usage.SumSnapshots(snapshots)
	if counts.IsZero() {
		return []*usage.RatedUsage{}, nil
	}

	schedule, err := s.EffectiveTierSchedule(ctx, date)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		// usage with no schedule in effect costs nothing
		s.Logger.Warnw("no usage tier schedule in effect, rating usage as free",
			"date", date.Format(types.DateLayout),
		)
		schedule = &usage.EffectiveTierSchedule{}
	}

	return []*usage.RatedUsage{usage.Rate(nil, counts, schedule)}, nil
}

func (s *usageService) EffectiveTierSchedule(ctx context.Context, date time.Time) (*usage.EffectiveTierSchedule, error) {
	day := types.DateOf(date)
	key := cache.GenerateKey(cache.PrefixUsageTier, day.Format(types.DateLayout))

	if s.Cache != nil {
		if cached, found := s.Cache.Get(ctx, key); found {
			if schedule, ok := cached.(*usage.EffectiveTierSchedule); ok {
				return schedule, nil
			}
		}
	}

	schedule, err := s.UsageTierRepo.GetEffective(ctx, day)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, schedule, tierScheduleCacheTTL)
	}
	return schedule, nil
}
