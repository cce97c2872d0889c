// Package scoring implements the normalized risk-scoring engine (spec
// §4.6): a pure function over collector outputs and configured
// weights/thresholds, with no I/O.
package scoring

import (
	"math"

	"github.com/caasmo/fraudgate/db"
)

// Inputs is the full set of scoring inputs enumerated in spec §4.6.
type Inputs struct {
	TokenReplay bool

	EmailRiskScore float64 // 0..100

	EphemeralIDCount int
	ValidationCount  int
	UniqueIPCount    int

	JA4RawScore float64 // 0..230

	IPRateLimitScore float64 // 0..100

	HeaderFingerprintScore float64 // 0..100
	TLSAnomalyScore        float64 // 0..100
	LatencyMismatchScore   float64 // 0..100

	BlockTrigger db.BlockTrigger // "" when no trigger is set
}

// Component is one line of the scoring breakdown.
type Component struct {
	Score        float64 // normalized 0..100
	Weight       float64
	Contribution float64
	RawScore     *float64 // present when the normalized score derives from a distinct raw value
	Reason       string
}

// Breakdown is the full output of Score: one Component per input plus
// the total.
type Breakdown struct {
	TokenReplay         Component
	EmailFraud          Component
	EphemeralID         Component
	ValidationFrequency Component
	IPDiversity         Component
	JA4SessionHopping   Component
	IPRateLimit         Component
	HeaderFingerprint   Component
	TLSAnomaly          Component
	LatencyMismatch     Component

	Base  float64
	Total float64
}

func raw(v float64) *float64 { return &v }

// floor resolves the per-trigger floor table (spec §4.6 step 2).
func floor(trigger db.BlockTrigger, block float64) (float64, bool) {
	switch trigger {
	case db.TriggerIPDiversity:
		return block + 10, true
	case db.TriggerJA4SessionHopping:
		return block + 5, true
	case db.TriggerHeaderFingerprint, db.TriggerTLSAnomaly, db.TriggerLatencyMismatch:
		return block + 5, true
	case db.TriggerEphemeralIDFraud, db.TriggerValidationFrequency, db.TriggerEmailFraud:
		return block, true
	case db.TriggerTurnstileFailed:
		return block - 5, true
	case db.TriggerDuplicateEmail:
		return block - 10, true
	default:
		return 0, false
	}
}

// Score computes the full breakdown for one submission's collected
// signals. It is a pure function: identical inputs always yield an
// identical breakdown.
func Score(in Inputs, cfg Config) Breakdown {
	w := cfg.Weights
	th := cfg.Thresholds

	tokenReplayScore := 0.0
	if in.TokenReplay {
		tokenReplayScore = 100
	}

	b := Breakdown{
		TokenReplay: component(tokenReplayScore, w.TokenReplay, nil, ""),
		EmailFraud:  component(in.EmailRiskScore, w.EmailFraud, nil, ""),
		EphemeralID: component(
			normalizeEphemeralID(in.EphemeralIDCount, th.EphemeralIDCount, th.Block),
			w.EphemeralID, raw(float64(in.EphemeralIDCount)), "",
		),
		ValidationFrequency: component(
			normalizeValidationCount(in.ValidationCount, th.ValidationWarn, th.ValidationBlock),
			w.ValidationFrequency, raw(float64(in.ValidationCount)), "",
		),
		IPDiversity: component(
			normalizeUniqueIPCount(in.UniqueIPCount, th.IPDiversity),
			w.IPDiversity, raw(float64(in.UniqueIPCount)), "",
		),
		JA4SessionHopping: component(
			normalizeJA4(in.JA4RawScore, th.Block),
			w.JA4SessionHopping, raw(in.JA4RawScore), "",
		),
		IPRateLimit:       component(in.IPRateLimitScore, w.IPRateLimit, nil, ""),
		HeaderFingerprint: component(in.HeaderFingerprintScore, w.HeaderFingerprint, nil, ""),
		TLSAnomaly:        component(in.TLSAnomalyScore, w.TLSAnomaly, nil, ""),
		LatencyMismatch:   component(in.LatencyMismatchScore, w.LatencyMismatch, nil, ""),
	}

	base := b.TokenReplay.Contribution + b.EmailFraud.Contribution + b.EphemeralID.Contribution +
		b.ValidationFrequency.Contribution + b.IPDiversity.Contribution + b.JA4SessionHopping.Contribution +
		b.IPRateLimit.Contribution + b.HeaderFingerprint.Contribution + b.TLSAnomaly.Contribution +
		b.LatencyMismatch.Contribution
	b.Base = base

	switch {
	case in.TokenReplay:
		b.Total = 100
	default:
		if f, ok := floor(in.BlockTrigger, th.Block); ok {
			b.Total = math.Min(100, math.Max(base, f))
		} else {
			b.Total = math.Min(100, math.Round(base*10)/10)
		}
	}

	return b
}

func component(score, weight float64, rawScore *float64, reason string) Component {
	return Component{
		Score:        score,
		Weight:       weight,
		Contribution: score * weight,
		RawScore:     rawScore,
		Reason:       reason,
	}
}
