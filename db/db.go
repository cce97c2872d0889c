package db

import (
	"context"
	"time"
)

// DbSubmissions persists registration submissions.
type DbSubmissions interface {
	InsertSubmission(ctx context.Context, s *Submission) (int64, error)
	GetSubmissionByErfid(ctx context.Context, erfid string) (*Submission, error)
	CountSubmissionsByEmail(ctx context.Context, email string, since time.Time) (int, error)
	CountSubmissionsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	// DistinctIPsByEphemeralID returns the number of distinct remote IPs
	// associated with ephemeralID since the given time.
	DistinctIPsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	// HeaderFingerprintStats returns the number of prior submissions
	// sharing headerFingerprint since the given time, plus the number of
	// distinct remote IPs and distinct JA4 values among them.
	HeaderFingerprintStats(ctx context.Context, headerFingerprint string, since time.Time) (count, distinctIPs, distinctJA4 int, err error)
	// TLSPairObservations returns how many submissions observed ja4 at
	// all since the given time, and how many of those paired it with
	// tlsClientExtensionHash.
	TLSPairObservations(ctx context.Context, tlsClientExtensionHash, ja4 string, since time.Time) (ja4Count, pairCount int, err error)
}

// DbValidationEvents persists CAPTCHA validation attempts.
type DbValidationEvents interface {
	InsertValidationEvent(ctx context.Context, v *ValidationEvent) (int64, error)
	CountValidationEventsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	TokenHashSeen(ctx context.Context, tokenHash string) (bool, error)
}

// DbBlocklist persists progressive-timeout blocklist entries and one-off
// fraud blocks.
type DbBlocklist interface {
	// FindActiveBlock returns the entry matching any of the supplied
	// non-empty identity keys, still unexpired as of now. It returns nil
	// with no error if none match.
	FindActiveBlock(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (*BlocklistEntry, error)
	// UpsertBlock inserts a new entry, or if an unexpired entry already
	// exists for one of entry's identity keys, extends it according to
	// the progressive timeout schedule and increments SubmissionHits.
	UpsertBlock(ctx context.Context, entry *BlocklistEntry) (*BlocklistEntry, error)
	// OffenseCount returns the number of blocklist entries matching any
	// provided identifier with blocked_at within the 24 hours before now.
	OffenseCount(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (int, error)
	// IncrementHits bumps the matched entry's submission_hits counter by
	// one, recording a repeat hit without altering its expiry.
	IncrementHits(ctx context.Context, id int64) error
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
	BlocklistSize(ctx context.Context) (int, error)
	InsertFraudBlock(ctx context.Context, b *FraudBlock) (int64, error)
}

// DbBaselines persists the fingerprint-anomaly learning baselines.
type DbBaselines interface {
	GetBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64) (*FingerprintBaseline, error)
	// TouchBaseline increments hit count and last-seen for the baseline,
	// creating it with hit count 1 if absent, and returns the resulting
	// baseline.
	TouchBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64, now time.Time) (*FingerprintBaseline, error)
}

// DbQueue is the generic background job queue used by the blocklist
// janitor and any future scheduled work.
type DbQueue interface {
	EnqueueJob(ctx context.Context, job *Job) (int64, error)
	ClaimNextJob(ctx context.Context, jobType string, now time.Time) (*Job, error)
	CompleteJob(ctx context.Context, id int64) error
	FailJob(ctx context.Context, id int64, errMsg string, retryAt time.Time) error
}

// DbLifecycle manages connection lifecycle and schema migration.
type DbLifecycle interface {
	Close() error
}

// Db is the full persistence surface the application depends on. Concrete
// implementations live in db/zombiezen (SQLite) and db/mock (tests).
type Db interface {
	DbSubmissions
	DbValidationEvents
	DbBlocklist
	DbBaselines
	DbQueue
	DbLifecycle
}
