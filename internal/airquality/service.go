package airquality

import (
	"context"
	"log/slog"
	"time"
)

// Service orchestrates the aggregator and the measurement history store.
// Live requests always go through the aggregator. The store feeds the
// history endpoints and the assistant's last-known reading.
type Service struct {
	agg    *Aggregator
	store  HistoryStore
	logger *slog.Logger
}

// NewService creates a new Service. store may be nil when history is disabled.
func NewService(agg *Aggregator, store HistoryStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		agg:    agg,
		store:  store,
		logger: logger,
	}
}

// Aggregator returns the underlying aggregator.
func (s *Service) Aggregator() *Aggregator {
	return s.agg
}

// Aggregate runs a full fan-out for scope.
func (s *Service) Aggregate(ctx context.Context, scope string) (AggregationResult, error) {
	return s.agg.Aggregate(ctx, scope)
}

// City fetches a single configured city by key or display name.
func (s *Service) City(ctx context.Context, name string) (CityMeasurement, error) {
	spec, err := s.agg.Catalog().Lookup(name)
	if err != nil {
		return CityMeasurement{}, err
	}
	return s.agg.FetchCity(ctx, spec)
}

// Latest returns the most recently recorded snapshot for a configured city.
func (s *Service) Latest(name string) (Snapshot, error) {
	if s.store == nil {
		return Snapshot{}, ErrHistoryDisabled
	}
	spec, err := s.agg.Catalog().Lookup(name)
	if err != nil {
		return Snapshot{}, err
	}
	return s.store.GetLatest(spec)
}

// Record aggregates scope and saves every measurement into the history store.
// It returns the number of measurements saved.
func (s *Service) Record(ctx context.Context, scope string) (int, error) {
	if s.store == nil {
		return 0, ErrHistoryDisabled
	}

	res, err := s.agg.Aggregate(ctx, scope)
	if err != nil {
		return 0, err
	}

	for _, m := range res.Measurements {
		s.store.SaveMeasurement(m, res.GeneratedAt)
	}
	if res.SucceededCount() == 0 {
		s.logger.Warn("history: no measurements recorded", "scope", res.Scope, "requested", res.RequestedCount)
	}
	return res.SucceededCount(), nil
}

// History returns recorded snapshots for a configured city between from and to (inclusive).
func (s *Service) History(name string, from, to time.Time) (CitySpec, []Snapshot, error) {
	if s.store == nil {
		return CitySpec{}, nil, ErrHistoryDisabled
	}
	spec, err := s.agg.Catalog().Lookup(name)
	if err != nil {
		return CitySpec{}, nil, err
	}
	snaps, err := s.store.GetRange(spec, from, to)
	if err != nil {
		return spec, nil, err
	}
	return spec, snaps, nil
}
