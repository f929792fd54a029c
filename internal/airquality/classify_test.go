package airquality

import (
	"math"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		aqi   int
		want  Category
		label string
		color string
	}{
		{-10, CategoryGood, "Good", "#22c55e"},
		{0, CategoryGood, "Good", "#22c55e"},
		{50, CategoryGood, "Good", "#22c55e"},
		{51, CategoryModerate, "Moderate", "#eab308"},
		{100, CategoryModerate, "Moderate", "#eab308"},
		{101, CategoryUnhealthySensitive, "Unhealthy for Sensitive Groups", "#f97316"},
		{150, CategoryUnhealthySensitive, "Unhealthy for Sensitive Groups", "#f97316"},
		{151, CategoryUnhealthy, "Unhealthy", "#ef4444"},
		{200, CategoryUnhealthy, "Unhealthy", "#ef4444"},
		{201, CategoryVeryUnhealthy, "Very Unhealthy", "#8b5cf6"},
		{300, CategoryVeryUnhealthy, "Very Unhealthy", "#8b5cf6"},
		{301, CategoryHazardous, "Hazardous", "#7f1d1d"},
		{999, CategoryHazardous, "Hazardous", "#7f1d1d"},
	}

	for _, tt := range tests {
		got := Classify(tt.aqi)
		if got != tt.want {
			t.Fatalf("Classify(%d) = %v, want %v", tt.aqi, got, tt.want)
		}
		if got.String() != tt.label {
			t.Fatalf("Classify(%d).String() = %q, want %q", tt.aqi, got.String(), tt.label)
		}
		if got.Color() != tt.color {
			t.Fatalf("Classify(%d).Color() = %q, want %q", tt.aqi, got.Color(), tt.color)
		}
	}
}

func TestRoundAQI(t *testing.T) {
	tests := []struct {
		in   float64
		want int
		ok   bool
	}{
		{42.4, 42, true},
		{42.5, 43, true},
		{-3, -3, true},
		{MaxAQI, MaxAQI, true},
		{MaxAQI + 1, 0, false},
		{1e30, 0, false},
		{-1e19, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, ok := RoundAQI(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("RoundAQI(%v) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if Classify(MaxAQI) != CategoryHazardous {
		t.Fatalf("largest accepted aqi must be Hazardous")
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(0)
	for aqi := 1; aqi <= 600; aqi++ {
		cur := Classify(aqi)
		if cur < prev {
			t.Fatalf("Classify(%d) = %v went below Classify(%d) = %v", aqi, cur, aqi-1, prev)
		}
		if Classify(aqi) != cur {
			t.Fatalf("Classify(%d) is not deterministic", aqi)
		}
		prev = cur
	}
}

func TestCategoryTextRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		text, err := c.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", c, err)
		}
		var back Category
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != c {
			t.Fatalf("round trip of %v gave %v", c, back)
		}
		if c.Advice(false) == "" || c.Advice(true) == "" {
			t.Fatalf("category %v has no advice", c)
		}
	}

	var c Category
	if err := c.UnmarshalText([]byte("Fine")); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestCategoriesUpperBoundsAscend(t *testing.T) {
	cats := Categories()
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	for i := 1; i < len(cats); i++ {
		if cats[i].UpperBound() <= cats[i-1].UpperBound() {
			t.Fatalf("upper bound of %v does not exceed %v", cats[i], cats[i-1])
		}
	}
}
