package signals

import "time"

// Config holds every threshold and window the collectors need. Defaults
// match spec.md §4.5.
type Config struct {
	Email EmailConfig

	EphemeralID EphemeralIDConfig

	JA4 JA4Config

	IPRate IPRateConfig

	Fingerprint FingerprintConfig
}

type EmailConfig struct {
	Consumer string
	Flow     string
}

type EphemeralIDConfig struct {
	SubmissionWarnThreshold  int // default 2
	ValidationBlockThreshold int // default 3
	ValidationWarnThreshold  int // default 2
	IPWarnThreshold          int // default 2
}

type JA4Config struct {
	LayerAWindow                 time.Duration // default 60m
	RapidGlobalWindow             time.Duration // default 5m
	ExtendedGlobalWindow          time.Duration // default 60m
	VelocityThreshold             time.Duration // default 10m
	IPsQuantileThreshold          float64       // default 0.95
	ReqsQuantileThreshold         float64       // default 0.99
}

type IPRateConfig struct {
	Window time.Duration // default 1h
}

type FingerprintConfig struct {
	HeaderReuseWindow       time.Duration // default per deployment, e.g. 60m
	HeaderReuseIPThreshold  int
	HeaderReuseJA4Threshold int
	HeaderReuseCountThreshold int
	MinJA4Observations     int
	BaselineWindow          time.Duration
	MobileRTTThresholdMs    float64
	DatacenterASNs          map[int64]bool
}

// DefaultConfig returns the spec-documented defaults.
func DefaultConfig() Config {
	return Config{
		EphemeralID: EphemeralIDConfig{
			SubmissionWarnThreshold:  2,
			ValidationBlockThreshold: 3,
			ValidationWarnThreshold:  2,
			IPWarnThreshold:          2,
		},
		JA4: JA4Config{
			LayerAWindow:          60 * time.Minute,
			RapidGlobalWindow:     5 * time.Minute,
			ExtendedGlobalWindow:  60 * time.Minute,
			VelocityThreshold:     10 * time.Minute,
			IPsQuantileThreshold:  0.95,
			ReqsQuantileThreshold: 0.99,
		},
		IPRate: IPRateConfig{
			Window: time.Hour,
		},
		Fingerprint: FingerprintConfig{
			HeaderReuseWindow:         60 * time.Minute,
			HeaderReuseIPThreshold:    2,
			HeaderReuseJA4Threshold:   2,
			HeaderReuseCountThreshold: 3,
			MinJA4Observations:        5,
			BaselineWindow:            24 * time.Hour,
			MobileRTTThresholdMs:      10,
			DatacenterASNs:            map[int64]bool{},
		},
	}
}
