package signals

// CollectIPRate counts recent submissions from ip within the configured
// window and maps the count to a 0..100 contribution. Never a standalone
// block trigger (spec §4.5.4) — callers must not set blockTrigger from
// this signal alone.
func CollectIPRate(deps Deps, ip string) IPRateSignal {
	count := int(deps.IPRateTracker.Observe(ip))
	return IPRateSignal{Count: count, Score: ipRateScore(count)}
}

func ipRateScore(count int) float64 {
	switch {
	case count <= 1:
		return 0
	case count == 2:
		return 25
	case count == 3:
		return 50
	case count == 4:
		return 75
	default:
		return 100
	}
}
