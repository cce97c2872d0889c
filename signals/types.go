// Package signals implements the five per-submission signal collectors
// (spec §4.5): pure functions over (metadata, db, config) producing
// structured signal records, run concurrently by the submission pipeline.
package signals

import "github.com/caasmo/fraudgate/db"

// EmailReputationClient is the external email-reputation RPC contract
// (spec §4.5.1), implemented by an HTTP adapter in production and a stub
// in tests.
type EmailReputationClient interface {
	Validate(req EmailReputationRequest) (EmailReputationResponse, error)
}

type EmailReputationRequest struct {
	Email    string
	Consumer string
	Flow     string
	Headers  map[string]string
}

type EmailReputationDecision string

const (
	DecisionAllow EmailReputationDecision = "allow"
	DecisionWarn  EmailReputationDecision = "warn"
	DecisionBlock EmailReputationDecision = "block"
)

type EmailReputationResponse struct {
	Valid     bool
	RiskScore float64 // 0..1
	Decision  EmailReputationDecision
	Signals   map[string]any
}

// EmailSignal is the email-fraud collector's output.
type EmailSignal struct {
	Present   bool
	RiskScore float64 // scaled 0..100
	Decision  EmailReputationDecision
	Blocked   bool
	Signals   map[string]any
	Warnings  []string
}

// EphemeralIDSignal is the ephemeral-id collector's output.
type EphemeralIDSignal struct {
	SubmissionCount  int
	ValidationCount  int
	UniqueIPCount    int
	Warnings         []string
}

// JA4Detection names which analysis layer triggered.
type JA4Detection string

const (
	JA4IPClustering   JA4Detection = "ja4_ip_clustering"
	JA4RapidGlobal    JA4Detection = "ja4_rapid_global"
	JA4ExtendedGlobal JA4Detection = "ja4_extended_global"
)

// JA4Signal is the JA4 session-hopping collector's output.
type JA4Signal struct {
	Present       bool
	RawScore      float64 // 0..230
	Detection     JA4Detection
	TriggerLayer  string
	Warnings      []string
}

// IPRateSignal is the IP-rate collector's output. Never a standalone
// block trigger (spec §4.5.4).
type IPRateSignal struct {
	Count int
	Score float64 // 0..100
}

// FingerprintTrigger names one of the three fingerprint sub-checks.
type FingerprintTrigger string

const (
	FingerprintHeaderReuse    FingerprintTrigger = "header_fingerprint"
	FingerprintTLSAnomaly     FingerprintTrigger = "tls_anomaly"
	FingerprintLatencyMismatch FingerprintTrigger = "latency_mismatch"
)

// FingerprintSignal is the fingerprint-anomaly collector's output. At
// most one sub-check is elected primary (the highest-scoring).
type FingerprintSignal struct {
	HeaderReuseScore    float64
	TLSAnomalyScore     float64
	LatencyMismatchScore float64
	Primary             FingerprintTrigger
	PrimaryScore        float64
	Warnings            []string
}

// Bundle is the aggregate result of running all five collectors
// concurrently for one submission.
type Bundle struct {
	Email       EmailSignal
	EphemeralID EphemeralIDSignal
	JA4         JA4Signal
	IPRate      IPRateSignal
	Fingerprint FingerprintSignal
}

// Deps bundles the read-only dependencies every collector needs: the
// persistence layer (read paths only — spec §3 "signal collectors read
// the store but must not write block decisions") and the process-wide
// velocity trackers.
type Deps struct {
	DB              db.DbSubmissions
	Validations     db.DbValidationEvents
	Baselines       db.DbBaselines
	JA4LayerA       *VelocityTracker
	JA4LayerB       *VelocityTracker
	JA4LayerC       *VelocityTracker
	IPRateTracker   *VelocityTracker
	HeaderFPTracker *VelocityTracker
}
