package store

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no air quality data for city")
)

// SnapshotHistory holds a time-ordered list of snapshots for a city.
type SnapshotHistory struct {
	Snapshots []airquality.Snapshot
}

// MemoryStore is a concurrency-safe in-memory history of city measurements.
type MemoryStore struct {
	mu sync.RWMutex

	// key: city key, value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per city
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveMeasurement appends a new snapshot for the measurement's city and enforces retention.
func (s *MemoryStore) SaveMeasurement(m airquality.CityMeasurement, recordedAt time.Time) airquality.Snapshot {
	snap := airquality.Snapshot{
		ID:          ulid.Make().String(),
		Measurement: m,
		RecordedAt:  recordedAt.UTC(),
	}
	key := m.City.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snap)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if !history.Snapshots[i].RecordedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}

	return snap
}

// GetLatest returns the most recent snapshot for a city.
func (s *MemoryStore) GetLatest(city airquality.CitySpec) (airquality.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return airquality.Snapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a city recorded between from and to (inclusive).
func (s *MemoryStore) GetRange(city airquality.CitySpec, from, to time.Time) ([]airquality.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []airquality.Snapshot
	for _, snap := range history.Snapshots {
		if !snap.RecordedAt.Before(from) && !snap.RecordedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

var _ airquality.HistoryStore = (*MemoryStore)(nil)
