package blocklist

import (
	"testing"
	"time"
)

func TestDurationSchedule(t *testing.T) {
	cases := []struct {
		offenses int
		want     time.Duration
	}{
		{-1, time.Hour},
		{0, time.Hour},
		{1, time.Hour},
		{2, 4 * time.Hour},
		{5, 24 * time.Hour},
		{100, 24 * time.Hour},
	}
	for _, tc := range cases {
		got := Duration(tc.offenses, nil)
		if got != tc.want {
			t.Errorf("Duration(%d) = %v, want %v", tc.offenses, got, tc.want)
		}
	}
}

func TestDurationNonDecreasing(t *testing.T) {
	prev := time.Duration(0)
	for k := 1; k <= 10; k++ {
		d := Duration(k, nil)
		if d < prev {
			t.Errorf("Duration(%d) = %v is less than Duration(%d) = %v", k, d, k-1, prev)
		}
		if d > 24*time.Hour {
			t.Errorf("Duration(%d) = %v exceeds the 24h maximum", k, d)
		}
		prev = d
	}
}
