package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

const (
	// WAQISource is the provenance string attached to WAQI batches.
	WAQISource = "AQICN World Air Quality Index (Real-time)"

	defaultWAQIBaseURL = "https://api.waqi.info"
)

// WAQIProvider implements the airquality.Provider interface for the
// World Air Quality Index project (aqicn.org).
type WAQIProvider struct {
	name    string
	token   string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWAQIProvider(cfg HTTPClientConfig, baseURL, token string) *WAQIProvider {
	if baseURL == "" {
		baseURL = defaultWAQIBaseURL
	}
	if token == "" {
		token = "demo"
	}
	return &WAQIProvider{
		name:    "waqi",
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newBreaker("waqi", cfg),
	}
}

func (p *WAQIProvider) Name() string {
	return p.name
}

func (p *WAQIProvider) Source() string {
	return WAQISource
}

type waqiResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type waqiValue struct {
	V flexNumber `json:"v"`
}

type waqiData struct {
	AQI  flexNumber `json:"aqi"`
	City struct {
		Name string       `json:"name"`
		Geo  []flexNumber `json:"geo"`
		URL  string       `json:"url"`
	} `json:"city"`
	IAQI map[string]waqiValue `json:"iaqi"`
	Time struct {
		S   string `json:"s"`
		TZ  string `json:"tz"`
		ISO string `json:"iso"`
	} `json:"time"`
}

func (p *WAQIProvider) Fetch(ctx context.Context, city airquality.CitySpec) (airquality.Reading, error) {
	if city.ProviderKey == "" {
		return airquality.Reading{}, fmt.Errorf("waqi requires a station key for %s", city.Name)
	}

	u := fmt.Sprintf("%s/feed/%s/?token=%s", p.baseURL, url.PathEscape(city.ProviderKey), url.QueryEscape(p.token))

	body, err := getWithResilience(ctx, p.httpCfg, p.circuit, u)
	if err != nil {
		return airquality.Reading{}, err
	}

	var payload waqiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return airquality.Reading{}, fmt.Errorf("waqi: decode response: %w", err)
	}
	if payload.Status != "ok" {
		var msg string
		_ = json.Unmarshal(payload.Data, &msg)
		return airquality.Reading{}, fmt.Errorf("%w: waqi status %q: %s", errUpstream, payload.Status, msg)
	}

	var data waqiData
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return airquality.Reading{}, fmt.Errorf("waqi: decode data: %w", err)
	}

	aqi, ok := data.AQI.aqi()
	if !ok {
		return airquality.Reading{}, airquality.ErrNoAQI
	}

	r := airquality.Reading{
		AQI: aqi,
		Pollutants: airquality.Pollutants{
			PM25: data.iaqi("pm25").nonNegative(),
			PM10: data.iaqi("pm10").nonNegative(),
			O3:   data.iaqi("o3").nonNegative(),
			NO2:  data.iaqi("no2").nonNegative(),
			SO2:  data.iaqi("so2").nonNegative(),
			CO:   data.iaqi("co").nonNegative(),
		},
		Ambient: airquality.Ambient{
			Temperature: data.iaqi("t").ptr(),
			Humidity:    data.iaqi("h").nonNegative(),
		},
		ObservedAt: parseWAQITime(data.Time.ISO, data.Time.S, data.Time.TZ),
		StationURL: data.City.URL,
	}
	if len(data.City.Geo) == 2 {
		r.Lat = data.City.Geo[0].ptr()
		r.Lng = data.City.Geo[1].ptr()
	}
	return r, nil
}

func (d waqiData) iaqi(code string) flexNumber {
	return d.IAQI[code].V
}

// parseWAQITime prefers the ISO timestamp and falls back to the local
// "s" + "tz" pair. A zero time means the observation time is unknown.
func parseWAQITime(iso, s, tz string) time.Time {
	if iso != "" {
		if ts, err := time.Parse(time.RFC3339, iso); err == nil {
			return ts.UTC()
		}
	}
	if s == "" {
		return time.Time{}
	}
	if tz != "" {
		if ts, err := time.Parse("2006-01-02 15:04:05-07:00", s+tz); err == nil {
			return ts.UTC()
		}
	}
	if ts, err := time.Parse(time.DateTime, s); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

var _ airquality.Provider = (*WAQIProvider)(nil)
