package providers

import (
	"fmt"
	"strings"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

const (
	KindWAQI      = "waqi"
	KindOpenMeteo = "openmeteo"
)

// Settings selects and configures the single provider serving a deployment.
type Settings struct {
	Kind             string
	HTTP             HTTPClientConfig
	WAQIBaseURL      string
	WAQIToken        string
	OpenMeteoBaseURL string
}

// New builds the provider named by s.Kind.
func New(s Settings) (airquality.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Kind)) {
	case "", KindWAQI:
		return NewWAQIProvider(s.HTTP, s.WAQIBaseURL, s.WAQIToken), nil
	case KindOpenMeteo:
		return NewOpenMeteoProvider(s.HTTP, s.OpenMeteoBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (allowed: %s, %s)", s.Kind, KindWAQI, KindOpenMeteo)
	}
}
