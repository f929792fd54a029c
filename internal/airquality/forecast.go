package airquality

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"
)

// ForecastHour is one entry of an illustrative hourly forecast.
type ForecastHour struct {
	Time        time.Time `json:"time"`
	Hour        string    `json:"hour"`
	AQI         int       `json:"aqi"`
	Temperature int       `json:"temp"`
	Humidity    int       `json:"humidity"`
	Category    Category  `json:"status"`
	Color       string    `json:"color"`
}

// Forecaster generates demo forecast series. The values are base AQI plus a
// time-of-day factor and bounded jitter; they are not a prediction.
type Forecaster struct {
	rng *rand.Rand
}

// NewForecaster returns a generator whose output is fully determined by seed.
func NewForecaster(seed uint64) *Forecaster {
	return &Forecaster{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SeedFor derives a stable seed from a city and the hour containing t, so the
// same city gets the same series for the whole hour.
func SeedFor(city string, t time.Time) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(slug(city)))
	return h.Sum64() ^ uint64(t.UTC().Truncate(time.Hour).Unix())
}

// TimeOfDayFactor returns the rush-hour and night multipliers for hour (0-23).
func TimeOfDayFactor(hour int) float64 {
	f := 1.0
	if (hour >= 8 && hour <= 10) || (hour >= 17 && hour <= 20) {
		f *= 1.2
	}
	if hour >= 22 || hour <= 5 {
		f *= 0.85
	}
	return f
}

// AQIAt returns the illustrative AQI for base at the given hour:
// round(base * TimeOfDayFactor(hour) * j) with j in [0.85, 1.15).
func (f *Forecaster) AQIAt(base, hour int) int {
	jitter := 0.85 + f.rng.Float64()*0.3
	return int(math.Round(float64(base) * TimeOfDayFactor(hour) * jitter))
}

// Hourly returns n hourly entries starting at start, in start's location.
func (f *Forecaster) Hourly(base int, start time.Time, n int) []ForecastHour {
	out := make([]ForecastHour, 0, n)
	for i := 0; i < n; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		hour := at.Hour()

		aqi := f.AQIAt(base, hour)
		cat := Classify(aqi)

		variation := tempVariation(hour)
		temp := int(math.Round(25 + variation + (f.rng.Float64()*4 - 2)))
		humidity := int(math.Round(60 - variation*2 + (f.rng.Float64()*10 - 5)))

		out = append(out, ForecastHour{
			Time:        at,
			Hour:        at.Format("3 PM"),
			AQI:         aqi,
			Temperature: temp,
			Humidity:    humidity,
			Category:    cat,
			Color:       cat.Color(),
		})
	}
	return out
}

func tempVariation(hour int) float64 {
	switch {
	case hour >= 10 && hour <= 16:
		return 5
	case hour >= 6 && hour <= 9:
		return 2
	default:
		return -2
	}
}
