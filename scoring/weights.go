package scoring

// Weights holds the per-component contribution weights (spec §4.6).
// Defaults sum to 1.0 across all ten components.
type Weights struct {
	TokenReplay         float64
	EmailFraud          float64
	EphemeralID         float64
	ValidationFrequency float64
	IPDiversity         float64
	JA4SessionHopping   float64
	IPRateLimit         float64
	HeaderFingerprint   float64
	TLSAnomaly          float64
	LatencyMismatch     float64
}

// DefaultWeights resolves the Open Question on the ip-rate and
// fingerprint components: they get explicit weights and the table is
// renormalized to still sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
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
	}
}

// Thresholds holds the per-component breakpoints used by the
// normalization formulas and by the block-trigger floor table. Block is
// the single global block threshold: the point past which a submission
// is rejected (spec §4.6, §4.7 "if total ≥ blockThreshold").
type Thresholds struct {
	Block float64

	EphemeralIDCount int // count at which the ephemeral-id score reaches Block
	ValidationWarn   int // count at which the validation score reaches 40
	ValidationBlock  int // count at which the validation score reaches 100
	IPDiversity      int // count at which the unique-IP score reaches 50
}

// DefaultThresholds picks a global block threshold of 70, consistent
// with the example scenarios in spec.md §8 (e.g. "ephemeralIdCount =
// threshold-1 does not block on its own").
func DefaultThresholds() Thresholds {
	return Thresholds{
		Block:            70,
		EphemeralIDCount: 5,
		ValidationWarn:   2,
		ValidationBlock:  3,
		IPDiversity:      3,
	}
}

// Config bundles the weights and thresholds the engine needs.
type Config struct {
	Weights    Weights
	Thresholds Thresholds
}

// DefaultConfig returns the spec-documented defaults.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), Thresholds: DefaultThresholds()}
}
