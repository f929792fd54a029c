package airquality

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestMeasurementJSONOmitsMissingPollutants(t *testing.T) {
	m := NewMeasurement(CitySpec{Name: "Delhi", Country: "India", Lat: 28.61, Lng: 77.21}, 161, fixedNow)

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"name":"Delhi"`, `"aqi":161`, `"status":"Unhealthy"`, `"color":"#ef4444"`, `"lastUpdated":"2025-03-01T12:00:00Z"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
	for _, absent := range []string{"pm25", "pm10", "o3", "temperature", "stationUrl"} {
		if strings.Contains(s, absent) {
			t.Fatalf("did not expect %q in %s", absent, s)
		}
	}
}

func TestMeasurementJSONRoundTrip(t *testing.T) {
	pm25, temp := 88.0, 31.5
	m := NewMeasurement(CitySpec{Name: "Mumbai", Country: "India", Lat: 19.07, Lng: 72.87}, 88, fixedNow)
	m.Pollutants.PM25 = &pm25
	m.Ambient.Temperature = &temp
	m.StationURL = "https://aqicn.org/city/mumbai"

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back CityMeasurement
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.City.Name != "Mumbai" || back.AQI != 88 || back.Category != CategoryModerate {
		t.Fatalf("unexpected measurement: %+v", back)
	}
	if back.Pollutants.PM25 == nil || *back.Pollutants.PM25 != pm25 || back.Pollutants.PM10 != nil {
		t.Fatalf("unexpected pollutants: %+v", back.Pollutants)
	}
	if back.Ambient.Temperature == nil || *back.Ambient.Temperature != temp {
		t.Fatalf("unexpected ambient: %+v", back.Ambient)
	}
	if !back.ObservedAt.Equal(fixedNow) || back.StationURL != m.StationURL {
		t.Fatalf("unexpected metadata: %+v", back)
	}
}

func TestMeasurementUnmarshalRederivesStatus(t *testing.T) {
	var m CityMeasurement
	err := json.Unmarshal([]byte(`{"name":"X","country":"Y","lat":0,"lng":0,"aqi":250,"status":"Good","color":"#000000","lastUpdated":"2025-03-01T12:00:00Z"}`), &m)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Category != CategoryVeryUnhealthy || m.Color() != "#8b5cf6" {
		t.Fatalf("expected status derived from aqi, got %v %s", m.Category, m.Color())
	}
}

func TestResultEnvelope(t *testing.T) {
	res := AggregationResult{
		ID:    "batch-1",
		Scope: "india",
		Measurements: []CityMeasurement{
			NewMeasurement(CitySpec{Name: "Delhi", Country: "India"}, 42, fixedNow),
			NewMeasurement(CitySpec{Name: "Mumbai", Country: "India"}, 88, fixedNow),
		},
		RequestedCount: 3,
		GeneratedAt:    fixedNow,
		Source:         "Fake Source",
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["success"] != true {
		t.Fatalf("expected success true, got %v", raw["success"])
	}
	if raw["totalCities"] != float64(2) || raw["requestedCities"] != float64(3) {
		t.Fatalf("unexpected counts: %v / %v", raw["totalCities"], raw["requestedCities"])
	}
	if raw["source"] != "Fake Source" || raw["lastUpdated"] != "2025-03-01T12:00:00Z" {
		t.Fatalf("unexpected provenance: %v %v", raw["source"], raw["lastUpdated"])
	}
	most, _ := raw["mostPolluted"].(map[string]any)
	least, _ := raw["leastPolluted"].(map[string]any)
	if most["name"] != "Mumbai" || least["name"] != "Delhi" {
		t.Fatalf("unexpected extremes: %v / %v", most, least)
	}

	var back AggregationResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.SucceededCount() != 2 || back.RequestedCount != 3 || back.Scope != "india" || back.ID != "batch-1" {
		t.Fatalf("unexpected result: %+v", back)
	}
	names := map[string]bool{}
	for _, m := range back.Measurements {
		names[m.City.Name] = true
	}
	if !names["Delhi"] || !names["Mumbai"] {
		t.Fatalf("measurements lost in round trip: %+v", back.Measurements)
	}
}

func TestEmptyResultEnvelope(t *testing.T) {
	b, err := json.Marshal(AggregationResult{GeneratedAt: time.Unix(0, 0)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"data":[]`) || !strings.Contains(s, `"totalCities":0`) || !strings.Contains(s, `"success":true`) {
		t.Fatalf("unexpected empty envelope: %s", s)
	}
	if strings.Contains(s, "mostPolluted") {
		t.Fatalf("extremes must be omitted when there is no data: %s", s)
	}
}

func TestCitySpecKey(t *testing.T) {
	if got := (CitySpec{Name: "New York", ProviderKey: "NewYork"}).Key(); got != "newyork" {
		t.Fatalf("expected provider key, got %q", got)
	}
	if got := (CitySpec{Name: "Paris"}).Key(); got != "paris" {
		t.Fatalf("expected name fallback, got %q", got)
	}
	if (CitySpec{}).HasGeo() {
		t.Fatalf("zero coordinates must report no geo")
	}
}
