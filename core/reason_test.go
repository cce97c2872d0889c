package core

import (
	"strings"
	"testing"
	"time"

	"github.com/caasmo/fraudgate/db"
)

func TestBlockMessageVariesByTrigger(t *testing.T) {
	cases := []struct {
		trigger db.BlockTrigger
		want    string
	}{
		{db.TriggerEmailFraud, "fraud check"},
		{db.TriggerDuplicateEmail, "already been registered"},
		{db.TriggerValidationFrequency, "verification attempts"},
		{db.TriggerTokenReplay, "already been used"},
		{"", "was blocked"},
	}
	for _, tc := range cases {
		got := blockMessage(tc.trigger, time.Hour)
		if !strings.Contains(got, tc.want) {
			t.Errorf("blockMessage(%q) = %q, want substring %q", tc.trigger, got, tc.want)
		}
	}
}

func TestFormatWait(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "a moment"},
		{-time.Second, "a moment"},
		{time.Hour, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{30 * time.Second, "30 seconds"},
	}
	for _, tc := range cases {
		if got := formatWait(tc.d); got != tc.want {
			t.Errorf("formatWait(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestPrimaryTrigger(t *testing.T) {
	components := map[db.BlockTrigger]float64{
		db.TriggerEmailFraud:        10,
		db.TriggerEphemeralIDFraud:  40,
		db.TriggerJA4SessionHopping: 25,
	}
	if got := primaryTrigger(components); got != db.TriggerEphemeralIDFraud {
		t.Errorf("primaryTrigger = %q, want %q", got, db.TriggerEphemeralIDFraud)
	}
}

func TestPrimaryTriggerEmpty(t *testing.T) {
	if got := primaryTrigger(map[db.BlockTrigger]float64{}); got != "" {
		t.Errorf("primaryTrigger(empty) = %q, want empty", got)
	}
}
