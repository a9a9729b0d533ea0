package main

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0s"},
		{42, "42s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{3725, "1h 2m 5s"},
		{90061, "1d 1h 1m 1s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%f) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
