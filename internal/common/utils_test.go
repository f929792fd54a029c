package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("air quality", "qual") || HasAny("air quality", "Qual") {
		t.Fatalf("HasAny must be case-sensitive")
	}
	if !HasAnyFold("Air QUALITY", "quality") {
		t.Fatalf("HasAnyFold must ignore case")
	}
}

func TestHasWord(t *testing.T) {
	tests := []struct {
		s     string
		words []string
		want  bool
	}{
		{"Hi, how are you?", []string{"hi"}, true},
		{"this is it", []string{"hi"}, false},
		{"go RUNNING today", []string{"run", "running"}, true},
		{"", []string{"hi"}, false},
	}
	for _, tt := range tests {
		if got := HasWord(tt.s, tt.words...); got != tt.want {
			t.Fatalf("HasWord(%q, %v) = %v, want %v", tt.s, tt.words, got, tt.want)
		}
	}
}
