package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/i474232898/air-quality-aggregation/internal/config"
)

func TestProdLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.AppConfig{AppEnv: config.EnvProd, LogLevel: slog.LevelInfo}

	log := NewWithWriter(&buf, cfg, "1.2.3", "aqi-test")
	log.Debug("hidden")
	log.Info("aqi: aggregation finished", "succeeded", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("prod logs must be JSON: %v", err)
	}
	if rec["app"] != "aqi-test" || rec["version"] != "1.2.3" || rec["env"] != config.EnvProd {
		t.Fatalf("missing base attributes: %v", rec)
	}
	if rec["succeeded"] != float64(2) {
		t.Fatalf("missing record attribute: %v", rec)
	}
}

func TestDevLoggerIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.AppConfig{AppEnv: config.EnvDev, LogLevel: slog.LevelDebug}

	NewWithWriter(&buf, cfg, "dev", "aqi-test").Debug("aqi: city dropped", "city", "Kolkata")

	out := buf.String()
	if !strings.Contains(out, "aqi: city dropped") || !strings.Contains(out, "Kolkata") {
		t.Fatalf("unexpected dev output %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("dev output must not be JSON: %q", out)
	}
}
