package airquality

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// CitySpec is a static descriptor of a queryable location.
// Lat/Lng may both be zero when the coordinates are unknown.
type CitySpec struct {
	Name        string  `yaml:"name" json:"name"`
	Country     string  `yaml:"country" json:"country"`
	Lat         float64 `yaml:"lat" json:"lat"`
	Lng         float64 `yaml:"lng" json:"lng"`
	ProviderKey string  `yaml:"key" json:"key"`
}

// Key returns a canonical string key for indexing this city in stores.
func (c CitySpec) Key() string {
	if c.ProviderKey != "" {
		return strings.ToLower(c.ProviderKey)
	}
	return strings.ToLower(c.Name)
}

// HasGeo reports whether the spec carries coordinates.
func (c CitySpec) HasGeo() bool {
	return c.Lat != 0 || c.Lng != 0
}

// Pollutants holds optional concentrations. A nil field means the provider
// did not report that pollutant.
type Pollutants struct {
	PM25 *float64
	PM10 *float64
	O3   *float64
	NO2  *float64
	SO2  *float64
	CO   *float64
}

// Empty reports whether no pollutant was reported.
func (p Pollutants) Empty() bool {
	return p.PM25 == nil && p.PM10 == nil && p.O3 == nil && p.NO2 == nil && p.SO2 == nil && p.CO == nil
}

// Ambient holds optional weather readings reported next to the index.
type Ambient struct {
	Temperature *float64
	Humidity    *float64
}

// CityMeasurement is a point-in-time observation for one city.
// Category is always derived from AQI; use NewMeasurement to build one.
type CityMeasurement struct {
	City       CitySpec
	AQI        int
	Pollutants Pollutants
	Ambient    Ambient
	Category   Category
	ObservedAt time.Time
	StationURL string
}

// NewMeasurement classifies aqi and returns the resulting measurement.
func NewMeasurement(city CitySpec, aqi int, observedAt time.Time) CityMeasurement {
	return CityMeasurement{
		City:       city,
		AQI:        aqi,
		Category:   Classify(aqi),
		ObservedAt: observedAt,
	}
}

// Status returns the health-risk label.
func (m CityMeasurement) Status() string { return m.Category.String() }

// Color returns the display color paired with the status.
func (m CityMeasurement) Color() string { return m.Category.Color() }

type measurementJSON struct {
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	AQI         int       `json:"aqi"`
	Status      string    `json:"status"`
	Color       string    `json:"color"`
	PM25        *float64  `json:"pm25,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	O3          *float64  `json:"o3,omitempty"`
	NO2         *float64  `json:"no2,omitempty"`
	SO2         *float64  `json:"so2,omitempty"`
	CO          *float64  `json:"co,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	StationURL  string    `json:"stationUrl,omitempty"`
}

// MarshalJSON flattens the measurement into the wire shape served to clients.
func (m CityMeasurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(measurementJSON{
		Name:        m.City.Name,
		Country:     m.City.Country,
		Lat:         m.City.Lat,
		Lng:         m.City.Lng,
		AQI:         m.AQI,
		Status:      m.Status(),
		Color:       m.Color(),
		PM25:        m.Pollutants.PM25,
		PM10:        m.Pollutants.PM10,
		O3:          m.Pollutants.O3,
		NO2:         m.Pollutants.NO2,
		SO2:         m.Pollutants.SO2,
		CO:          m.Pollutants.CO,
		Temperature: m.Ambient.Temperature,
		Humidity:    m.Ambient.Humidity,
		LastUpdated: m.ObservedAt.UTC(),
		StationURL:  m.StationURL,
	})
}

// UnmarshalJSON parses the wire shape. Status and color are re-derived from
// the AQI rather than trusted from the payload.
func (m *CityMeasurement) UnmarshalJSON(data []byte) error {
	var w measurementJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = CityMeasurement{
		City: CitySpec{
			Name:    w.Name,
			Country: w.Country,
			Lat:     w.Lat,
			Lng:     w.Lng,
		},
		AQI:      w.AQI,
		Category: Classify(w.AQI),
		Pollutants: Pollutants{
			PM25: w.PM25,
			PM10: w.PM10,
			O3:   w.O3,
			NO2:  w.NO2,
			SO2:  w.SO2,
			CO:   w.CO,
		},
		Ambient: Ambient{
			Temperature: w.Temperature,
			Humidity:    w.Humidity,
		},
		ObservedAt: w.LastUpdated,
		StationURL: w.StationURL,
	}
	return nil
}

// AggregationResult is the response envelope for one aggregation pass.
type AggregationResult struct {
	ID             string
	Scope          string
	Measurements   []CityMeasurement
	RequestedCount int
	GeneratedAt    time.Time
	Source         string
}

// SucceededCount is the number of cities that produced a usable reading.
func (r AggregationResult) SucceededCount() int {
	return len(r.Measurements)
}

// MostPolluted returns the measurement with the highest AQI.
func (r AggregationResult) MostPolluted() (CityMeasurement, bool) {
	return r.extreme(func(a, b int) bool { return a > b })
}

// LeastPolluted returns the measurement with the lowest AQI.
func (r AggregationResult) LeastPolluted() (CityMeasurement, bool) {
	return r.extreme(func(a, b int) bool { return a < b })
}

func (r AggregationResult) extreme(better func(a, b int) bool) (CityMeasurement, bool) {
	if len(r.Measurements) == 0 {
		return CityMeasurement{}, false
	}
	best := r.Measurements[0]
	for _, m := range r.Measurements[1:] {
		if better(m.AQI, best.AQI) {
			best = m
		}
	}
	return best, true
}

type resultJSON struct {
	Success         bool              `json:"success"`
	BatchID         string            `json:"batchId,omitempty"`
	Scope           string            `json:"scope,omitempty"`
	Data            []CityMeasurement `json:"data"`
	TotalCities     int               `json:"totalCities"`
	RequestedCities int               `json:"requestedCities"`
	MostPolluted    *CityMeasurement  `json:"mostPolluted,omitempty"`
	LeastPolluted   *CityMeasurement  `json:"leastPolluted,omitempty"`
	LastUpdated     time.Time         `json:"lastUpdated"`
	Source          string            `json:"source"`
}

// MarshalJSON renders the success envelope.
func (r AggregationResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Success:         true,
		BatchID:         r.ID,
		Scope:           r.Scope,
		Data:            r.Measurements,
		TotalCities:     r.SucceededCount(),
		RequestedCities: r.RequestedCount,
		LastUpdated:     r.GeneratedAt.UTC(),
		Source:          r.Source,
	}
	if out.Data == nil {
		out.Data = []CityMeasurement{}
	}
	if m, ok := r.MostPolluted(); ok {
		out.MostPolluted = &m
	}
	if m, ok := r.LeastPolluted(); ok {
		out.LeastPolluted = &m
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a success envelope back into a result.
func (r *AggregationResult) UnmarshalJSON(data []byte) error {
	var w resultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = AggregationResult{
		ID:             w.BatchID,
		Scope:          w.Scope,
		Measurements:   w.Data,
		RequestedCount: w.RequestedCities,
		GeneratedAt:    w.LastUpdated,
		Source:         w.Source,
	}
	return nil
}
