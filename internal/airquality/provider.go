package airquality

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoAQI is returned by providers when a response carries no usable index value.
	ErrNoAQI = errors.New("provider response has no usable aqi")

	// ErrNoProvider is returned when the aggregator has no provider to call.
	ErrNoProvider = errors.New("no air quality provider configured")

	// ErrEmptyScope is returned when a scope resolves to no cities.
	ErrEmptyScope = errors.New("scope has no configured cities")

	// ErrUnknownCity is returned when a city lookup matches no configured city.
	ErrUnknownCity = errors.New("unknown city")

	// ErrHistoryDisabled is returned by history operations when no store is configured.
	ErrHistoryDisabled = errors.New("history store not configured")
)

// Reading is a single provider's validated reading for one city.
// Optional values stay nil when the provider did not report them.
type Reading struct {
	AQI        int
	Pollutants Pollutants
	Ambient    Ambient

	// Lat/Lng reported by the provider, used when the CitySpec has none.
	Lat, Lng *float64

	// ObservedAt is zero when the provider did not report an observation time.
	ObservedAt time.Time
	StationURL string
}

// Provider abstracts an air-quality data source (e.g. AQICN/WAQI, Open-Meteo).
type Provider interface {
	Name() string
	// Source is the human-readable provenance string attached to results.
	Source() string
	Fetch(ctx context.Context, city CitySpec) (Reading, error)
}

// Snapshot is one recorded measurement in the history store.
type Snapshot struct {
	ID          string          `json:"id"`
	Measurement CityMeasurement `json:"measurement"`
	RecordedAt  time.Time       `json:"recordedAt"`
}

// HistoryStore is the contract the in-memory history store (and any future persistent store) must satisfy.
type HistoryStore interface {
	SaveMeasurement(m CityMeasurement, recordedAt time.Time) Snapshot
	GetLatest(city CitySpec) (Snapshot, error)
	GetRange(city CitySpec, from, to time.Time) ([]Snapshot, error)
}
