package config

import (
	"time"

	"github.com/caasmo/fraudgate/captcha"
)

// NewDefaultConfig creates a Config with sensible defaults for local
// development. Secrets (Captcha.SecretKey, Email.APIKey, Testing.APIKey)
// are intentionally left blank; Load fills them from the environment or
// a SecureConfig-decrypted file.
func NewDefaultConfig() *Config {
	return &Config{
		DBFile:     "fraudgate.db",
		CacheLevel: "medium",
		Server: Server{
			Addr:                    ":8080",
			ShutdownGracefulTimeout: Duration{DefaultShutdownTimeout},
			ReadTimeout:             Duration{DefaultReadTimeout},
			ReadHeaderTimeout:       Duration{DefaultReadHeaderTimeout},
			WriteTimeout:            Duration{DefaultWriteTimeout},
			IdleTimeout:             Duration{DefaultIdleTimeout},
			ClientIPProxyHeader:     "CF-Connecting-IP",
			AllowedOrigins:          []string{},
			Environment:             "development",
		},
		Scheduler: Scheduler{
			Interval:              Duration{60 * time.Second},
			MaxJobsPerTick:        10,
			ConcurrencyMultiplier: 2,
		},
		Metrics: Metrics{
			Enabled:    false,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Captcha: Captcha{
			SiteverifyURL: captcha.DefaultSiteverifyURL,
			Timeout:       Duration{5 * time.Second},
		},
		Email: EmailReputation{
			Endpoint: "",
			Consumer: "fraudgate",
			Flow:     "submission-check",
			Timeout:  Duration{3 * time.Second},
		},
		Discord: Discord{
			Activated:  false,
			WebhookURL: "",
		},
		Erfid: Erfid{
			Prefix: "erf",
			Format: "uuid",
		},
		Testing: Testing{
			AllowBypass: false,
		},
		Fraud: Fraud{
			BlockSchedule: []Duration{
				{1 * time.Hour},
				{4 * time.Hour},
				{8 * time.Hour},
				{12 * time.Hour},
				{24 * time.Hour},
			},
			Weights: ScoringWeights{
				TokenReplay:         0.30,
				EmailFraud:          0.15,
				EphemeralID:         0.15,
				ValidationFrequency: 0.11,
				IPDiversity:         0.08,
				JA4SessionHopping:   0.07,
				IPRateLimit:         0.06,
				HeaderFingerprint:   0.03,
				TLSAnomaly:          0.03,
				LatencyMismatch:     0.02,
			},
			Thresholds: ScoringThresholds{
				Block:            70,
				EphemeralIDCount: 5,
				ValidationWarn:   2,
				ValidationBlock:  3,
				IPDiversity:      3,
			},
			Email: EmailSignalConfig{
				Consumer: "fraudgate",
				Flow:     "submission-check",
			},
			EphemeralID: EphemeralIDSignalConfig{
				SubmissionWarnThreshold:  5,
				ValidationBlockThreshold: 3,
				ValidationWarnThreshold:  2,
				IPWarnThreshold:          3,
			},
			JA4: JA4SignalConfig{
				LayerAWindow:          Duration{10 * time.Second},
				RapidGlobalWindow:     Duration{60 * time.Second},
				ExtendedGlobalWindow:  Duration{10 * time.Minute},
				VelocityThreshold:     Duration{2 * time.Second},
				IPsQuantileThreshold:  0.95,
				ReqsQuantileThreshold: 0.95,
			},
			IPRate: IPRateSignalConfig{
				Window: Duration{5 * time.Minute},
			},
			Fingerprint: FingerprintSignalConfig{
				HeaderReuseWindow:         Duration{24 * time.Hour},
				HeaderReuseIPThreshold:    3,
				HeaderReuseJA4Threshold:   3,
				HeaderReuseCountThreshold: 5,
				MinJA4Observations:        20,
				BaselineWindow:            Duration{30 * 24 * time.Hour},
				MobileRTTThresholdMs:      30,
				DatacenterASNs:            []int64{},
			},
		},
	}
}
