package scoring

import (
	"testing"

	"github.com/caasmo/fraudgate/db"
)

func TestScoreTokenReplayForcesTotal100(t *testing.T) {
	b := Score(Inputs{TokenReplay: true}, DefaultConfig())
	if b.Total != 100 {
		t.Errorf("Total = %v, want 100", b.Total)
	}
}

func TestScoreHappyPathBelowBlockThreshold(t *testing.T) {
	b := Score(Inputs{
		EmailRiskScore:   10,
		EphemeralIDCount: 0,
		ValidationCount:  1,
		UniqueIPCount:    1,
	}, DefaultConfig())

	if b.Total >= DefaultThresholds().Block {
		t.Errorf("Total = %v, want below block threshold %v", b.Total, DefaultThresholds().Block)
	}
}

func TestScoreBlockTriggerEnforcesFloor(t *testing.T) {
	cfg := DefaultConfig()
	b := Score(Inputs{BlockTrigger: db.TriggerIPDiversity}, cfg)
	wantFloor := cfg.Thresholds.Block + 10
	if b.Total < wantFloor {
		t.Errorf("Total = %v, want >= floor %v", b.Total, wantFloor)
	}
}

func TestScoreBlockTriggerNeverExceeds100(t *testing.T) {
	cfg := DefaultConfig()
	b := Score(Inputs{
		BlockTrigger:           db.TriggerJA4SessionHopping,
		EmailRiskScore:         100,
		EphemeralIDCount:       100,
		ValidationCount:        100,
		UniqueIPCount:          100,
		JA4RawScore:            230,
		IPRateLimitScore:       100,
		HeaderFingerprintScore: 100,
		TLSAnomalyScore:        100,
		LatencyMismatchScore:   100,
	}, cfg)
	if b.Total > 100 {
		t.Errorf("Total = %v, want <= 100", b.Total)
	}
}

func TestScoreNoTriggerUsesRoundedBase(t *testing.T) {
	cfg := DefaultConfig()
	b := Score(Inputs{EmailRiskScore: 50}, cfg)
	want := cfg.Weights.EmailFraud * 50
	// rounded to one decimal place per spec §4.6 step 3
	if b.Total < want-0.1 || b.Total > want+0.1 {
		t.Errorf("Total = %v, want ~%v", b.Total, want)
	}
}

func TestScoreEphemeralIDJustBelowThresholdDoesNotReachBlock(t *testing.T) {
	cfg := DefaultConfig()
	in := Inputs{EphemeralIDCount: cfg.Thresholds.EphemeralIDCount - 1}
	b := Score(in, cfg)
	if b.Total >= cfg.Thresholds.Block {
		t.Errorf("Total = %v, want below block threshold on its own (one signal below threshold)", b.Total)
	}
}
