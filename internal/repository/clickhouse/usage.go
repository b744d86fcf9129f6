package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/flexprice/invoicer/internal/clickhouse"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
)

// ConnProvider hands out connections, *clickhouse.ClickHouseStore satisfies it
type ConnProvider interface {
	GetConn() clickhouse.Conn
}

type UsageRepository struct {
	store  ConnProvider
	logger *logger.Logger
}

// NewUsageRepository reads the daily node tallies written by the metering pipeline
func NewUsageRepository(store ConnProvider, logger *logger.Logger) usage.Repository {
	return &UsageRepository{
		store:  store,
		logger: logger,
	}
}

const nodeUsageQuery = `
	SELECT
		node_id,
		sum(prop_in) AS prop_in,
		sum(datum_out) AS datum_out,
		sum(datum_stored) AS datum_stored
	FROM node_usage_daily
	WHERE user_id = ?
		AND day >= toDate(?)
		AND day < toDate(?)
	GROUP BY node_id
	HAVING prop_in > 0 OR datum_out > 0 OR datum_stored > 0
	ORDER BY node_id
`

// FindNodeUsage sums the daily tallies of each node over the calendar dates [start, end)
func (r *UsageRepository) FindNodeUsage(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RawUsageSnapshot, error) {
	from := types.DateOf(start).Format(types.DateLayout)
	to := types.DateOf(end).Format(types.DateLayout)

	r.logger.Debugw("querying node usage",
		"user_id", userID,
		"start", from,
		"end", to,
	)

	rows, err := r.store.GetConn().Query(ctx, nodeUsageQuery, userID, from, to)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query node usage").
			WithReportableDetails(map[string]any{
				"user_id": userID,
				"start":   from,
				"end":     to,
			}).
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*usage.RawUsageSnapshot
	for rows.Next() {
		var nodeID, propIn, datumOut, datumStored uint64
		if err := rows.Scan(&nodeID, &propIn, &datumOut, &datumStored); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan node usage").
				WithReportableDetails(map[string]any{
					"user_id": userID,
				}).
				Mark(ierr.ErrDatabase)
		}

		counters, err := toInt64(nodeID, propIn, datumOut, datumStored)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Stored node usage is out of range").
				WithReportableDetails(map[string]any{
					"user_id": userID,
					"node_id": nodeID,
				}).
				Mark(ierr.ErrDataIntegrity)
		}

		result = append(result, &usage.RawUsageSnapshot{
			NodeID: counters[0],
			Counts: usage.Counts{
				DatumPropertiesIn: counters[1],
				DatumOut:          counters[2],
				DatumDaysStored:   counters[3],
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read node usage").
			Mark(ierr.ErrDatabase)
	}

	return result, nil
}

// toInt64 converts unsigned column values, failing on any that would wrap negative
func toInt64(values ...uint64) ([]int64, error) {
	result := make([]int64, len(values))
	for i, v := range values {
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d exceeds int64", v)
		}
		result[i] = int64(v)
	}
	return result, nil
}
