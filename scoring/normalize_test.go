package scoring

import "testing"

func TestNormalizeEphemeralID(t *testing.T) {
	cases := []struct {
		count int
		want  float64
	}{
		{0, 0},
		{1, 10},
		{5, 70},  // threshold, block=70
		{6, 100}, // beyond threshold
	}
	for _, tc := range cases {
		got := normalizeEphemeralID(tc.count, 5, 70)
		if got != tc.want {
			t.Errorf("normalizeEphemeralID(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestNormalizeValidationCount(t *testing.T) {
	cases := []struct {
		count int
		want  float64
	}{
		{1, 0},
		{2, 40}, // warn threshold
		{3, 100}, // block threshold
		{10, 100},
	}
	for _, tc := range cases {
		got := normalizeValidationCount(tc.count, 2, 3)
		if got != tc.want {
			t.Errorf("normalizeValidationCount(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestNormalizeUniqueIPCount(t *testing.T) {
	cases := []struct {
		count int
		want  float64
	}{
		{1, 0},
		{3, 50}, // threshold
		{4, 100},
	}
	for _, tc := range cases {
		got := normalizeUniqueIPCount(tc.count, 3)
		if got != tc.want {
			t.Errorf("normalizeUniqueIPCount(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestNormalizeJA4(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{0, 0},
		{70, 70},  // at block threshold, maps to itself
		{230, 100}, // max raw maps to 100
	}
	for _, tc := range cases {
		got := normalizeJA4(tc.raw, 70)
		if got != tc.want {
			t.Errorf("normalizeJA4(%v) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
