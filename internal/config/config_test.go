package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

func TestEmbeddedScopes(t *testing.T) {
	f, err := LoadScopes("")
	if err != nil {
		t.Fatalf("LoadScopes: %v", err)
	}
	if f.Default != "world" {
		t.Fatalf("expected default scope world, got %q", f.Default)
	}
	for _, scope := range []string{"world", "india"} {
		cities := f.Scopes[scope]
		if len(cities) == 0 {
			t.Fatalf("scope %q is empty", scope)
		}
		for _, c := range cities {
			if c.Name == "" || c.Country == "" || c.ProviderKey == "" {
				t.Fatalf("scope %q has incomplete city %+v", scope, c)
			}
		}
	}
	if _, err := airquality.NewCatalog(f.Scopes, f.Default); err != nil {
		t.Fatalf("embedded scopes do not build a catalog: %v", err)
	}
}

func TestParseScopes(t *testing.T) {
	f, err := ParseScopes([]byte(`
scopes:
  Europe:
    - {name: Paris, country: France, key: paris, lat: 48.85, lng: 2.35}
    - name: Berlin
      country: Germany
`))
	if err != nil {
		t.Fatalf("ParseScopes: %v", err)
	}
	if f.Default != "world" {
		t.Fatalf("expected world as implicit default, got %q", f.Default)
	}
	europe := f.Scopes["europe"]
	if len(europe) != 2 || europe[0].Lat != 48.85 || europe[1].Name != "Berlin" {
		t.Fatalf("unexpected europe scope %+v", europe)
	}

	if _, err := ParseScopes([]byte(`default: world`)); err == nil {
		t.Fatalf("expected error for catalog without scopes")
	}
	if _, err := ParseScopes([]byte(`scopes: [`)); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "PORT", "AQI_PROVIDER", "AQICN_API_TOKEN", "CITY_TIMEOUT",
		"FANOUT_LIMIT", "DEFAULT_SCOPE", "HISTORY_SCOPE", "HISTORY_INTERVAL", "SCOPES_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != EnvDev || cfg.Port != "8080" || cfg.Provider != "waqi" || cfg.AQICNToken != "demo" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CityTimeout != 8*time.Second || cfg.ProviderMaxRetries != 0 || cfg.FanoutLimit != 0 {
		t.Fatalf("unexpected fan-out defaults %+v", cfg)
	}
	if cfg.DefaultScope != "world" || cfg.HistoryScope != "india" || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected scope defaults %+v", cfg)
	}
}

func TestLoadOverridesAndValidation(t *testing.T) {
	t.Setenv("APP_ENV", "PROD")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AQI_PROVIDER", "openmeteo")
	t.Setenv("CITY_TIMEOUT", "3s")
	t.Setenv("FANOUT_LIMIT", "16")
	t.Setenv("DEFAULT_SCOPE", "India")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != EnvProd || cfg.LogLevel != slog.LevelDebug || cfg.Provider != "openmeteo" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.CityTimeout != 3*time.Second || cfg.FanoutLimit != 16 || cfg.DefaultScope != "india" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}

	bad := []struct{ key, value string }{
		{"AQI_PROVIDER", "purpleair"},
		{"LOG_LEVEL", "loud"},
		{"CITY_TIMEOUT", "soon"},
		{"DEFAULT_SCOPE", "mars"},
		{"PORT", "http"},
	}
	for _, b := range bad {
		t.Run(b.key, func(t *testing.T) {
			t.Setenv(b.key, b.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", b.key, b.value)
			}
		})
	}
}

func TestBackfillCoordinates(t *testing.T) {
	scopes := map[string][]airquality.CitySpec{
		"world": {{Name: "Paris", Country: "France"}, {Name: "Oslo", Country: "Norway", Lat: 59.9, Lng: 10.7}},
		"eu":    {{Name: "Paris", Country: "France"}, {Name: "Nowhere", Country: "None"}},
	}
	calls := 0
	geocode := func(c airquality.CitySpec) (float64, float64, error) {
		calls++
		if c.Name == "Nowhere" {
			return 0, 0, errors.New("zero results")
		}
		return 48.85, 2.35, nil
	}

	n := BackfillCoordinates(scopes, geocode, slog.Default())
	if n != 2 {
		t.Fatalf("expected 2 cities updated, got %d", n)
	}
	if calls != 2 {
		t.Fatalf("expected Paris to be geocoded once, got %d calls", calls)
	}
	if scopes["world"][0].Lat != 48.85 || scopes["eu"][0].Lng != 2.35 {
		t.Fatalf("coordinates not applied: %+v", scopes)
	}
	if scopes["world"][1].Lat != 59.9 || scopes["eu"][1].HasGeo() {
		t.Fatalf("unexpected coordinates: %+v", scopes)
	}
}
