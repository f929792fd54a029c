package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

const (
	// OpenMeteoSource is the provenance string attached to Open-Meteo batches.
	OpenMeteoSource = "Open-Meteo Air Quality API"

	defaultOpenMeteoBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	openMeteoCurrentFields  = "us_aqi,pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone"
)

// OpenMeteoProvider implements the airquality.Provider interface for the
// Open-Meteo air-quality API. It is keyed by coordinates and needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newBreaker("openmeteo", cfg),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Source() string {
	return OpenMeteoSource
}

type openMeteoResponse struct {
	Error   bool   `json:"error"`
	Reason  string `json:"reason"`
	Current *struct {
		Time  string     `json:"time"`
		AQI   flexNumber `json:"us_aqi"`
		PM10  flexNumber `json:"pm10"`
		PM25  flexNumber `json:"pm2_5"`
		CO    flexNumber `json:"carbon_monoxide"`
		NO2   flexNumber `json:"nitrogen_dioxide"`
		SO2   flexNumber `json:"sulphur_dioxide"`
		Ozone flexNumber `json:"ozone"`
	} `json:"current"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, city airquality.CitySpec) (airquality.Reading, error) {
	if !city.HasGeo() {
		return airquality.Reading{}, fmt.Errorf("openmeteo requires latitude and longitude for %s", city.Name)
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(city.Lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(city.Lng, 'f', 4, 64))
	values.Set("current", openMeteoCurrentFields)
	values.Set("timezone", "GMT")
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	body, err := getWithResilience(ctx, p.httpCfg, p.circuit, u)
	if err != nil {
		return airquality.Reading{}, err
	}

	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return airquality.Reading{}, fmt.Errorf("openmeteo: decode response: %w", err)
	}
	if payload.Error {
		return airquality.Reading{}, fmt.Errorf("%w: openmeteo: %s", errUpstream, payload.Reason)
	}
	if payload.Current == nil {
		return airquality.Reading{}, airquality.ErrNoAQI
	}

	cur := payload.Current
	aqi, ok := cur.AQI.aqi()
	if !ok {
		return airquality.Reading{}, airquality.ErrNoAQI
	}

	var observed time.Time
	if ts, err := time.Parse("2006-01-02T15:04", cur.Time); err == nil {
		observed = ts.UTC()
	}

	return airquality.Reading{
		AQI: aqi,
		Pollutants: airquality.Pollutants{
			PM25: cur.PM25.nonNegative(),
			PM10: cur.PM10.nonNegative(),
			O3:   cur.Ozone.nonNegative(),
			NO2:  cur.NO2.nonNegative(),
			SO2:  cur.SO2.nonNegative(),
			CO:   cur.CO.nonNegative(),
		},
		ObservedAt: observed,
	}, nil
}

var _ airquality.Provider = (*OpenMeteoProvider)(nil)
