package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUniqueConstraint is wrapped into the error returned by InsertSubmission
// when the email uniqueness constraint is violated by a concurrent writer.
var ErrUniqueConstraint = errors.New("db: unique constraint violation")

// timeLayout is the single portable format used to store time values,
// compatible with SQLite's built-in date/time functions.
const timeLayout = "2006-01-02 15:04:05"

// TimeFormat renders t (converted to UTC) in the storage layout.
func TimeFormat(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// TimeParse parses a stored timestamp. It also accepts RFC3339 ('T'
// separator) so values produced by clients or older rows still parse.
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(timeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("db: cannot parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ISOToStorage converts an ISO-8601 timestamp with a 'T' separator into the
// storage layout so it can be compared with SQL date functions directly.
func ISOToStorage(iso string) (string, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "", fmt.Errorf("db: invalid ISO-8601 timestamp %q: %w", iso, err)
	}
	return TimeFormat(t), nil
}

// Address is the optional structured address on a Submission.
type Address struct {
	Street     string `json:"street,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// RequestMetadata is the typed record produced by the request-metadata
// extractor (spec §4.1). Numeric/hash fields use pointers so "absent" is
// distinguishable from the zero value.
type RequestMetadata struct {
	RemoteIP string `json:"remoteIp"`

	// Geography
	Country      string   `json:"country,omitempty"`
	Region       string   `json:"region,omitempty"`
	City         string   `json:"city,omitempty"`
	PostalCode   string   `json:"postalCode,omitempty"`
	Timezone     string   `json:"timezone,omitempty"`
	Continent    string   `json:"continent,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	IsEUCountry  bool     `json:"isEuCountry,omitempty"`

	// Network
	ASN                    *int64   `json:"asn,omitempty"`
	ASOrg                  string   `json:"asOrg,omitempty"`
	Colo                   string   `json:"colo,omitempty"`
	HTTPProtocol           string   `json:"httpProtocol,omitempty"`
	TLSVersion             string   `json:"tlsVersion,omitempty"`
	TLSCipher              string   `json:"tlsCipher,omitempty"`
	ClientTCPRTTMs         *float64 `json:"clientTcpRttMs,omitempty"`
	TLSClientHelloLength   *int64   `json:"tlsClientHelloLength,omitempty"`
	TLSClientExtensionHash string   `json:"tlsClientExtensionHash,omitempty"`

	// Bot management
	BotScore          *int     `json:"botScore,omitempty"`
	ClientTrustScore  *int     `json:"clientTrustScore,omitempty"`
	VerifiedBot       bool     `json:"verifiedBot,omitempty"`
	JSDetectionPassed bool     `json:"jsDetectionPassed,omitempty"`
	DetectionIDs      []string `json:"detectionIds,omitempty"`
	JA3Hash           string   `json:"ja3Hash,omitempty"`
	JA4               string   `json:"ja4,omitempty"`
	JA4Signals        JA4Signals `json:"ja4Signals,omitempty"`
	DeviceType        string   `json:"deviceType,omitempty"`

	// Client hints / fetch metadata, keyed by the lowercase header name with
	// the "sec-ch-ua-"/"sec-fetch-" prefix stripped, e.g. "mobile",
	// "platform", "site", "mode", "dest"; a bare "sec-ch-ua" header is
	// stored under "ua".
	ClientHints   map[string]string `json:"clientHints,omitempty"`
	FetchMetadata map[string]string `json:"fetchMetadata,omitempty"`

	// UserAgent is carried separately since it drives device-claim checks.
	UserAgent string `json:"userAgent,omitempty"`

	// HeaderFingerprint is the FNV-1a hash of the sorted, lowercased header
	// set (minus cookie/authorization).
	HeaderFingerprint string `json:"headerFingerprint"`

	// Headers is the curated bundle forwarded to the email-reputation
	// service; cookie and authorization are never included.
	Headers map[string]string `json:"-"`
}

// JA4Signals is the upstream-provided vector of global quantile statistics
// for a JA4 fingerprint.
type JA4Signals struct {
	IPsQuantile1h   *float64 `json:"ipsQuantile1h,omitempty"`
	ReqsQuantile1h  *float64 `json:"reqsQuantile1h,omitempty"`
}

// Submission is a registration attempt (spec §3).
type Submission struct {
	ID                int64            `json:"id"`
	Erfid             string           `json:"erfid"`
	FirstName         string           `json:"firstName"`
	LastName          string           `json:"lastName"`
	Email             string           `json:"email"`
	Phone             string           `json:"phone,omitempty"`
	Address           *Address         `json:"address,omitempty"`
	DateOfBirth       string           `json:"dateOfBirth,omitempty"`
	RawPayload        json.RawMessage  `json:"rawPayload"`
	Metadata          RequestMetadata  `json:"metadata"`
	EphemeralID       string           `json:"ephemeralId,omitempty"`
	RiskBreakdown     json.RawMessage  `json:"riskBreakdown"`
	EmailFraudSignals json.RawMessage  `json:"emailFraudSignals,omitempty"`
	TestingBypass     bool             `json:"testingBypass"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// ValidationEvent records every CAPTCHA verification attempt (spec §3).
type ValidationEvent struct {
	ID                int64           `json:"id"`
	Erfid             string          `json:"erfid"`
	TokenHash         string          `json:"tokenHash"`
	Success           bool            `json:"success"`
	Allowed           bool            `json:"allowed"`
	BlockReason       string          `json:"blockReason,omitempty"`
	ChallengeTS       time.Time       `json:"challengeTs,omitempty"`
	Hostname          string          `json:"hostname,omitempty"`
	Action            string          `json:"action,omitempty"`
	EphemeralID       string          `json:"ephemeralId,omitempty"`
	RiskScore         float64         `json:"riskScore"`
	RiskBreakdown     json.RawMessage `json:"riskBreakdown"`
	DetectionType     string          `json:"detectionType,omitempty"`
	SubmissionID      *int64          `json:"submissionId,omitempty"`
	Metadata          RequestMetadata `json:"metadata"`
	TestingBypass     bool            `json:"testingBypass"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Confidence tiers for blocklist entries.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// BlockTrigger enumerates the primary cause behind a block decision.
type BlockTrigger string

const (
	TriggerTokenReplay          BlockTrigger = "token_replay"
	TriggerEphemeralIDFraud     BlockTrigger = "ephemeral_id_fraud"
	TriggerJA4SessionHopping    BlockTrigger = "ja4_session_hopping"
	TriggerIPDiversity          BlockTrigger = "ip_diversity"
	TriggerValidationFrequency  BlockTrigger = "validation_frequency"
	TriggerDuplicateEmail       BlockTrigger = "duplicate_email"
	TriggerTurnstileFailed      BlockTrigger = "turnstile_failed"
	TriggerEmailFraud           BlockTrigger = "email_fraud"
	TriggerHeaderFingerprint    BlockTrigger = "header_fingerprint"
	TriggerTLSAnomaly           BlockTrigger = "tls_anomaly"
	TriggerLatencyMismatch      BlockTrigger = "latency_mismatch"
)

// BlocklistEntry is a progressive-timeout record keyed on any combination
// of {email, ephemeral id, IP, JA4} (spec §3, §4.3).
type BlocklistEntry struct {
	ID            int64           `json:"id"`
	Email         string          `json:"email,omitempty"`
	EphemeralID   string          `json:"ephemeralId,omitempty"`
	IP            string          `json:"ip,omitempty"`
	JA4           string          `json:"ja4,omitempty"`
	Reason        string          `json:"reason"`
	Confidence    string          `json:"confidence"`
	DetectionType BlockTrigger    `json:"detectionType"`
	BlockedAt     time.Time       `json:"blockedAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	SubmissionHits int            `json:"submissionHits"`
	RiskScore     float64         `json:"riskScore"`
	RiskBreakdown json.RawMessage `json:"riskBreakdown,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Erfid         string          `json:"erfid"`
}

// FraudBlock is a pre-CAPTCHA rejection, never linked to a submission
// (spec §3).
type FraudBlock struct {
	ID            int64           `json:"id"`
	Erfid         string          `json:"erfid"`
	Reason        string          `json:"reason"`
	DetectionType BlockTrigger    `json:"detectionType"`
	RiskScore     float64         `json:"riskScore"`
	RiskBreakdown json.RawMessage `json:"riskBreakdown,omitempty"`
	Metadata      RequestMetadata `json:"metadata"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// FingerprintBaseline is the learning record used by anomaly detection
// (spec §3). ANY/-1 are the sentinel bucket values for an absent
// dimension.
type FingerprintBaseline struct {
	FingerprintType string    `json:"fingerprintType"`
	FingerprintKey  string    `json:"fingerprintKey"`
	JA4Bucket       string    `json:"ja4Bucket"`
	ASNBucket       int64     `json:"asnBucket"`
	HitCount        int64     `json:"hitCount"`
	LastSeen        time.Time `json:"lastSeen"`
}

const (
	BaselineAnyJA4        = "ANY"
	BaselineAnyASN  int64 = -1
)

// Job is a row in the generic background job queue (used by the
// blocklist janitor, spec §4.3 "cleanupExpired ... janitor pass").
type Job struct {
	ID           int64           `json:"id"`
	JobType      string          `json:"jobType"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"maxAttempts"`
	CreatedAt    time.Time       `json:"createdAt"`
	ScheduledFor time.Time       `json:"scheduledFor"`
	LastError    string          `json:"lastError,omitempty"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const JobTypeBlocklistJanitor = "blocklist_janitor"
