package airquality

import (
	"fmt"
	"math"
)

// Category is a discrete health-risk band of the AQI scale.
type Category uint8

const (
	CategoryGood Category = iota
	CategoryModerate
	CategoryUnhealthySensitive
	CategoryUnhealthy
	CategoryVeryUnhealthy
	CategoryHazardous
)

type band struct {
	upper     int // inclusive
	label     string
	color     string
	advice    string
	sensitive string
}

// bands is the only classification table in the module. Every consumer
// (aggregation, forecast, HTTP, assistant) derives status and color from it.
var bands = [...]band{
	CategoryGood: {
		upper:     50,
		label:     "Good",
		color:     "#22c55e",
		advice:    "Air quality is satisfactory. Enjoy outdoor activities!",
		sensitive: "Air quality is satisfactory. Enjoy outdoor activities!",
	},
	CategoryModerate: {
		upper:     100,
		label:     "Moderate",
		color:     "#eab308",
		advice:    "Air quality is acceptable. Sensitive individuals should limit prolonged outdoor exposure.",
		sensitive: "Unusually sensitive people should consider reducing prolonged outdoor exertion.",
	},
	CategoryUnhealthySensitive: {
		upper:     150,
		label:     "Unhealthy for Sensitive Groups",
		color:     "#f97316",
		advice:    "Sensitive groups should limit outdoor activities. Others can be active but take breaks.",
		sensitive: "Avoid prolonged outdoor exertion. Keep rescue medications handy.",
	},
	CategoryUnhealthy: {
		upper:     200,
		label:     "Unhealthy",
		color:     "#ef4444",
		advice:    "Everyone should reduce prolonged outdoor exertion. Sensitive groups should avoid outdoor activities.",
		sensitive: "Stay indoors and keep windows closed. Use air purifier if available.",
	},
	CategoryVeryUnhealthy: {
		upper:     300,
		label:     "Very Unhealthy",
		color:     "#8b5cf6",
		advice:    "Health alert! Everyone should avoid outdoor exertion. Stay indoors with air filtration.",
		sensitive: "Health alert! Everyone should avoid outdoor exertion. Stay indoors with air filtration.",
	},
	CategoryHazardous: {
		upper:     math.MaxInt,
		label:     "Hazardous",
		color:     "#7f1d1d",
		advice:    "Health emergency! Avoid all outdoor activities. Keep doors and windows closed. Use N95 mask if going outside is unavoidable.",
		sensitive: "Health emergency! Avoid all outdoor activities. Keep doors and windows closed. Use N95 mask if going outside is unavoidable.",
	},
}

// Classify maps an AQI value to its band. Non-positive values fall into
// CategoryGood, anything above 300 into CategoryHazardous.
func Classify(aqi int) Category {
	for i, b := range bands {
		if aqi <= b.upper {
			return Category(i)
		}
	}
	return CategoryHazardous
}

// MaxAQI is the largest index magnitude accepted from providers or callers.
const MaxAQI = math.MaxInt32

// RoundAQI rounds v to an index value. It reports false for NaN, infinities
// and values whose magnitude exceeds MaxAQI.
func RoundAQI(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	r := math.Round(v)
	if r > MaxAQI || r < -MaxAQI {
		return 0, false
	}
	return int(r), true
}

// Categories returns all bands in ascending order.
func Categories() []Category {
	out := make([]Category, len(bands))
	for i := range bands {
		out[i] = Category(i)
	}
	return out
}

func (c Category) band() band {
	if int(c) >= len(bands) {
		return bands[CategoryHazardous]
	}
	return bands[c]
}

// String returns the status label, e.g. "Moderate".
func (c Category) String() string { return c.band().label }

// Color returns the display color token for the band.
func (c Category) Color() string { return c.band().color }

// UpperBound returns the inclusive AQI upper bound of the band.
func (c Category) UpperBound() int { return c.band().upper }

// Advice returns the health recommendation for the band. sensitive selects
// the variant for people with a health condition.
func (c Category) Advice(sensitive bool) string {
	if sensitive {
		return c.band().sensitive
	}
	return c.band().advice
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	for i, b := range bands {
		if b.label == string(text) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown aqi category %q", text)
}
