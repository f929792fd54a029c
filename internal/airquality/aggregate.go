package airquality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultCityTimeout bounds a single provider call when no timeout is configured.
const DefaultCityTimeout = 8 * time.Second

// Aggregator fans out one provider request per city of a scope and
// assembles the successful readings into an AggregationResult.
type Aggregator struct {
	provider    Provider
	catalog     *Catalog
	cityTimeout time.Duration
	limit       int
	now         func() time.Time
	logger      *slog.Logger
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithCityTimeout sets the per-city deadline. Non-positive values keep the default.
func WithCityTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.cityTimeout = d
		}
	}
}

// WithFanoutLimit caps concurrent provider calls. Zero or less means one
// goroutine per city.
func WithFanoutLimit(n int) Option {
	return func(a *Aggregator) { a.limit = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger used for per-city diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates a new Aggregator.
func NewAggregator(provider Provider, catalog *Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider:    provider,
		catalog:     catalog,
		cityTimeout: DefaultCityTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the scope catalog the aggregator resolves against.
func (a *Aggregator) Catalog() *Catalog {
	return a.catalog
}

// Source returns the provenance string of the configured provider.
func (a *Aggregator) Source() string {
	if a.provider == nil {
		return ""
	}
	return a.provider.Source()
}

// Aggregate resolves scope, fetches every city concurrently and returns the
// cities that produced a usable reading. Per-city failures are dropped and
// never fail the call; only systemic problems (no provider, empty scope)
// return an error. If ctx is cancelled mid-flight the cities completed so far
// are returned.
func (a *Aggregator) Aggregate(ctx context.Context, scope string) (AggregationResult, error) {
	if a.provider == nil {
		return AggregationResult{}, ErrNoProvider
	}
	if a.catalog == nil {
		return AggregationResult{}, fmt.Errorf("%w: no catalog", ErrEmptyScope)
	}

	resolved, cities, err := a.catalog.Resolve(scope)
	if err != nil {
		return AggregationResult{}, err
	}
	if requested := strings.ToLower(strings.TrimSpace(scope)); requested != "" && requested != resolved {
		a.logger.Warn("aqi: scope not recognized, using default", "requested", scope, "scope", resolved)
	}

	batchID := uuid.NewString()
	log := a.logger.With("batch", batchID, "scope", resolved, "provider", a.provider.Name())
	log.Debug("aqi: aggregation started", "cities", len(cities))

	var (
		mu      sync.Mutex
		results = make([]CityMeasurement, 0, len(cities))
		g       errgroup.Group
	)
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, city := range cities {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				m, err := a.FetchCity(ctx, city)
				if err != nil {
					// Dropped: a failing city never fails the batch.
					log.Debug("aqi: city dropped", "city", city.Name, "error", err)
					return nil
				}
				mu.Lock()
				results = append(results, m)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Info("aqi: aggregation cancelled, returning completed cities", "error", ctx.Err())
	}

	mu.Lock()
	measurements := make([]CityMeasurement, len(results))
	copy(measurements, results)
	mu.Unlock()

	log.Info("aqi: aggregation finished", "requested", len(cities), "succeeded", len(measurements))

	return AggregationResult{
		ID:             batchID,
		Scope:          resolved,
		Measurements:   measurements,
		RequestedCount: len(cities),
		GeneratedAt:    a.now(),
		Source:         a.provider.Source(),
	}, nil
}

// FetchCity performs one bounded provider call and builds the classified
// measurement for city.
func (a *Aggregator) FetchCity(ctx context.Context, city CitySpec) (CityMeasurement, error) {
	if a.provider == nil {
		return CityMeasurement{}, ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, a.cityTimeout)
	defer cancel()

	r, err := a.provider.Fetch(ctx, city)
	if err != nil {
		return CityMeasurement{}, fmt.Errorf("%s: %w", city.Name, err)
	}
	return a.measurement(city, r), nil
}

func (a *Aggregator) measurement(city CitySpec, r Reading) CityMeasurement {
	if !city.HasGeo() && r.Lat != nil && r.Lng != nil && finite(*r.Lat) && finite(*r.Lng) {
		city.Lat = *r.Lat
		city.Lng = *r.Lng
	}

	observed := r.ObservedAt
	if observed.IsZero() {
		observed = a.now()
	}

	m := NewMeasurement(city, r.AQI, observed.UTC())
	m.Pollutants = r.Pollutants
	m.Ambient = r.Ambient
	m.StationURL = r.StationURL
	return m
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
