package signals

import (
	"context"
	"testing"
	"time"

	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/db/mock"
)

func TestCollectFingerprintNoSignalsIsNeutral(t *testing.T) {
	d := &mock.Db{}
	deps := Deps{DB: d, Baselines: d}

	sig := CollectFingerprint(context.Background(), deps, DefaultConfig().Fingerprint, db.RequestMetadata{}, time.Now())
	if sig.Primary != "" {
		t.Errorf("expected no primary trigger, got %q", sig.Primary)
	}
	if sig.PrimaryScore != 0 {
		t.Errorf("PrimaryScore = %v, want 0", sig.PrimaryScore)
	}
}

func TestCollectFingerprintHeaderReuseTriggers(t *testing.T) {
	cfg := DefaultConfig().Fingerprint
	d := &mock.Db{
		HeaderFingerprintStatsFunc: func(ctx context.Context, headerFingerprint string, since time.Time) (int, int, int, error) {
			return cfg.HeaderReuseCountThreshold, cfg.HeaderReuseIPThreshold, cfg.HeaderReuseJA4Threshold, nil
		},
	}
	deps := Deps{DB: d, Baselines: d}

	meta := db.RequestMetadata{HeaderFingerprint: "abc123"}
	sig := CollectFingerprint(context.Background(), deps, cfg, meta, time.Now())
	if sig.Primary != FingerprintHeaderReuse {
		t.Errorf("Primary = %q, want %q", sig.Primary, FingerprintHeaderReuse)
	}
	if sig.HeaderReuseScore != 80 {
		t.Errorf("HeaderReuseScore = %v, want 80", sig.HeaderReuseScore)
	}
}

func TestCollectFingerprintTLSAnomalyTriggersOnUnknownPair(t *testing.T) {
	cfg := DefaultConfig().Fingerprint
	d := &mock.Db{
		TLSPairObservationsFunc: func(ctx context.Context, tlsClientExtensionHash, ja4 string, since time.Time) (int, int, error) {
			return cfg.MinJA4Observations, 0, nil
		},
	}
	deps := Deps{DB: d, Baselines: d}

	meta := db.RequestMetadata{JA4: "t13d1516h2", TLSClientExtensionHash: "deadbeef"}
	sig := CollectFingerprint(context.Background(), deps, cfg, meta, time.Now())
	if sig.Primary != FingerprintTLSAnomaly {
		t.Errorf("Primary = %q, want %q", sig.Primary, FingerprintTLSAnomaly)
	}
	if sig.TLSAnomalyScore != 100 {
		t.Errorf("TLSAnomalyScore = %v, want 100", sig.TLSAnomalyScore)
	}
}

func TestCollectFingerprintLatencyMismatchTriggers(t *testing.T) {
	cfg := DefaultConfig().Fingerprint
	d := &mock.Db{}
	deps := Deps{DB: d, Baselines: d}

	rtt := cfg.MobileRTTThresholdMs - 1
	meta := db.RequestMetadata{
		UserAgent:  "Mozilla/5.0 (Linux; Android 10; Mobile)",
		DeviceType: "desktop",
		ClientTCPRTTMs: &rtt,
	}
	sig := CollectFingerprint(context.Background(), deps, cfg, meta, time.Now())
	if sig.Primary != FingerprintLatencyMismatch {
		t.Errorf("Primary = %q, want %q", sig.Primary, FingerprintLatencyMismatch)
	}
}

func TestCollectFingerprintQueryFailureFailsOpen(t *testing.T) {
	d := &mock.Db{
		HeaderFingerprintStatsFunc: func(ctx context.Context, headerFingerprint string, since time.Time) (int, int, int, error) {
			return 0, 0, 0, context.DeadlineExceeded
		},
	}
	deps := Deps{DB: d, Baselines: d}

	meta := db.RequestMetadata{HeaderFingerprint: "abc123"}
	sig := CollectFingerprint(context.Background(), deps, DefaultConfig().Fingerprint, meta, time.Now())
	if sig.Primary != "" {
		t.Errorf("expected fail-open (no primary trigger) on query error, got %q", sig.Primary)
	}
	if len(sig.Warnings) == 0 {
		t.Error("expected a warning recorded for the failed query")
	}
}
