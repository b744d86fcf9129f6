package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
)

// NodeUsageRecord is one day of usage of a node, as the metering pipeline records it
type NodeUsageRecord struct {
	UserID int64
	NodeID int64
	Day    time.Time
	usage.Counts
}

// InMemoryUsageStore implements usage.Repository over daily records
type InMemoryUsageStore struct {
	mu      sync.RWMutex
	records []NodeUsageRecord
	// Err, when set, is returned by every read
	Err   error
	calls int
}

// NewInMemoryUsageStore creates a new in-memory usage store
func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{}
}

// Record adds a day of node usage
func (s *InMemoryUsageStore) Record(userID, nodeID int64, day time.Time, counts usage.Counts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, NodeUsageRecord{
		UserID: userID,
		NodeID: nodeID,
		Day:    types.DateOf(day),
		Counts: counts,
	})
}

// Calls returns how many times usage was read
func (s *InMemoryUsageStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *InMemoryUsageStore) FindNodeUsage(ctx context.Context, userID int64, start, end time.Time) ([]*usage.RawUsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.Err != nil {
		return nil, s.Err
	}

	from, to := types.DateOf(start), types.DateOf(end)
	byNode := make(map[int64]*usage.RawUsageSnapshot)
	for _, r := range s.records {
		if r.UserID != userID || r.Day.Before(from) || !r.Day.Before(to) {
			continue
		}
		snap, ok := byNode[r.NodeID]
		if !ok {
			snap = &usage.RawUsageSnapshot{NodeID: r.NodeID}
			byNode[r.NodeID] = snap
		}
		snap.Counts = snap.Counts.Add(r.Counts)
	}

	result := make([]*usage.RawUsageSnapshot, 0, len(byNode))
	for _, snap := range byNode {
		if snap.Counts.IsZero() {
			continue
		}
		result = append(result, snap)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NodeID < result[j].NodeID
	})
	return result, nil
}

// Clear removes all records
func (s *InMemoryUsageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.Err = nil
	s.calls = 0
}

// InMemoryUsageTierStore implements usage.TierRepository
type InMemoryUsageTierStore struct {
	mu        sync.RWMutex
	schedules []*usage.EffectiveTierSchedule
	calls     int
}

// NewInMemoryUsageTierStore creates a new in-memory tier store
func NewInMemoryUsageTierStore() *InMemoryUsageTierStore {
	return &InMemoryUsageTierStore{}
}

// Add stores a schedule
func (s *InMemoryUsageTierStore) Add(schedule *usage.EffectiveTierSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule)
	sort.Slice(s.schedules, func(i, j int) bool {
		return s.schedules[i].EffectiveDate.Before(s.schedules[j].EffectiveDate)
	})
}

// Calls returns how many times GetEffective was called
func (s *InMemoryUsageTierStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *InMemoryUsageTierStore) GetEffective(ctx context.Context, date time.Time) (*usage.EffectiveTierSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	found := usage.ScheduleFor(s.schedules, date)
	if found == nil {
		return nil, ierr.NewError("no usage tier schedule in effect").
			WithHintf("No usage tiers are effective on %s", date.Format(types.DateLayout)).
			Mark(ierr.ErrNotFound)
	}
	return found, nil
}

func (s *InMemoryUsageTierStore) List(ctx context.Context) ([]*usage.EffectiveTierSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*usage.EffectiveTierSchedule(nil), s.schedules...), nil
}

// Clear removes all schedules
func (s *InMemoryUsageTierStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = nil
	s.calls = 0
}
