package usage

import (
	"context"
	"time"
)

// Repository reads raw usage tallies produced by the metering pipeline
type Repository interface {
	// FindNodeUsage returns per-node counters of a user's nodes for [start, end),
	// ordered by node id. Nodes without usage are omitted.
	FindNodeUsage(ctx context.Context, userID int64, start, end time.Time) ([]*RawUsageSnapshot, error)
}

// TierRepository stores the history of tier schedules
type TierRepository interface {
	// GetEffective returns the schedule in effect on date, or ErrNotFound
	GetEffective(ctx context.Context, date time.Time) (*EffectiveTierSchedule, error)
	// List returns every schedule ordered by effective date
	List(ctx context.Context) ([]*EffectiveTierSchedule, error)
}
