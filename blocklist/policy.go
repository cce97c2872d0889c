package blocklist

import "time"

// DefaultSchedule is the progressive-timeout schedule (spec §4.4): 1h,
// 4h, 8h, 12h, 24h.
var DefaultSchedule = []time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	8 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// Duration maps an offense count to a block duration using schedule.
// Offense counts ≤ 0 clamp to the first bucket; counts beyond the
// schedule's length clamp to the last (maximum) bucket.
func Duration(offenseCount int, schedule []time.Duration) time.Duration {
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	idx := offenseCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}
