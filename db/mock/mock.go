// Package mock implements db.Db with function fields so individual tests
// can override only the behavior they exercise.
package mock

import (
	"context"
	"time"

	"github.com/caasmo/fraudgate/db"
)

var _ db.Db = (*Db)(nil)

// Db is a function-field mock of db.Db for testing purposes.
type Db struct {
	InsertSubmissionFunc            func(ctx context.Context, s *db.Submission) (int64, error)
	GetSubmissionByErfidFunc        func(ctx context.Context, erfid string) (*db.Submission, error)
	CountSubmissionsByEmailFunc     func(ctx context.Context, email string, since time.Time) (int, error)
	CountSubmissionsByEphemeralIDFunc func(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	DistinctIPsByEphemeralIDFunc   func(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	HeaderFingerprintStatsFunc     func(ctx context.Context, headerFingerprint string, since time.Time) (int, int, int, error)
	TLSPairObservationsFunc        func(ctx context.Context, tlsClientExtensionHash, ja4 string, since time.Time) (int, int, error)

	InsertValidationEventFunc             func(ctx context.Context, v *db.ValidationEvent) (int64, error)
	CountValidationEventsByEphemeralIDFunc func(ctx context.Context, ephemeralID string, since time.Time) (int, error)
	TokenHashSeenFunc                     func(ctx context.Context, tokenHash string) (bool, error)

	FindActiveBlockFunc func(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (*db.BlocklistEntry, error)
	UpsertBlockFunc     func(ctx context.Context, entry *db.BlocklistEntry) (*db.BlocklistEntry, error)
	OffenseCountFunc    func(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (int, error)
	IncrementHitsFunc   func(ctx context.Context, id int64) error
	CleanupExpiredFunc  func(ctx context.Context, now time.Time) (int, error)
	BlocklistSizeFunc   func(ctx context.Context) (int, error)
	InsertFraudBlockFunc func(ctx context.Context, b *db.FraudBlock) (int64, error)

	GetBaselineFunc   func(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64) (*db.FingerprintBaseline, error)
	TouchBaselineFunc func(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64, now time.Time) (*db.FingerprintBaseline, error)

	EnqueueJobFunc   func(ctx context.Context, job *db.Job) (int64, error)
	ClaimNextJobFunc func(ctx context.Context, jobType string, now time.Time) (*db.Job, error)
	CompleteJobFunc  func(ctx context.Context, id int64) error
	FailJobFunc      func(ctx context.Context, id int64, errMsg string, retryAt time.Time) error

	CloseFunc func() error
}

func (m *Db) InsertSubmission(ctx context.Context, s *db.Submission) (int64, error) {
	if m.InsertSubmissionFunc != nil {
		return m.InsertSubmissionFunc(ctx, s)
	}
	return 1, nil
}

func (m *Db) GetSubmissionByErfid(ctx context.Context, erfid string) (*db.Submission, error) {
	if m.GetSubmissionByErfidFunc != nil {
		return m.GetSubmissionByErfidFunc(ctx, erfid)
	}
	return nil, db.ErrNotFound
}

func (m *Db) CountSubmissionsByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	if m.CountSubmissionsByEmailFunc != nil {
		return m.CountSubmissionsByEmailFunc(ctx, email, since)
	}
	return 0, nil
}

func (m *Db) CountSubmissionsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	if m.CountSubmissionsByEphemeralIDFunc != nil {
		return m.CountSubmissionsByEphemeralIDFunc(ctx, ephemeralID, since)
	}
	return 0, nil
}

func (m *Db) DistinctIPsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	if m.DistinctIPsByEphemeralIDFunc != nil {
		return m.DistinctIPsByEphemeralIDFunc(ctx, ephemeralID, since)
	}
	return 0, nil
}

func (m *Db) HeaderFingerprintStats(ctx context.Context, headerFingerprint string, since time.Time) (int, int, int, error) {
	if m.HeaderFingerprintStatsFunc != nil {
		return m.HeaderFingerprintStatsFunc(ctx, headerFingerprint, since)
	}
	return 0, 0, 0, nil
}

func (m *Db) TLSPairObservations(ctx context.Context, tlsClientExtensionHash, ja4 string, since time.Time) (int, int, error) {
	if m.TLSPairObservationsFunc != nil {
		return m.TLSPairObservationsFunc(ctx, tlsClientExtensionHash, ja4, since)
	}
	return 0, 0, nil
}

func (m *Db) InsertValidationEvent(ctx context.Context, v *db.ValidationEvent) (int64, error) {
	if m.InsertValidationEventFunc != nil {
		return m.InsertValidationEventFunc(ctx, v)
	}
	return 1, nil
}

func (m *Db) CountValidationEventsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	if m.CountValidationEventsByEphemeralIDFunc != nil {
		return m.CountValidationEventsByEphemeralIDFunc(ctx, ephemeralID, since)
	}
	return 0, nil
}

func (m *Db) TokenHashSeen(ctx context.Context, tokenHash string) (bool, error) {
	if m.TokenHashSeenFunc != nil {
		return m.TokenHashSeenFunc(ctx, tokenHash)
	}
	return false, nil
}

func (m *Db) FindActiveBlock(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (*db.BlocklistEntry, error) {
	if m.FindActiveBlockFunc != nil {
		return m.FindActiveBlockFunc(ctx, email, ephemeralID, ip, ja4, now)
	}
	return nil, nil
}

func (m *Db) UpsertBlock(ctx context.Context, entry *db.BlocklistEntry) (*db.BlocklistEntry, error) {
	if m.UpsertBlockFunc != nil {
		return m.UpsertBlockFunc(ctx, entry)
	}
	return entry, nil
}

func (m *Db) OffenseCount(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (int, error) {
	if m.OffenseCountFunc != nil {
		return m.OffenseCountFunc(ctx, email, ephemeralID, ip, ja4, now)
	}
	return 0, nil
}

func (m *Db) IncrementHits(ctx context.Context, id int64) error {
	if m.IncrementHitsFunc != nil {
		return m.IncrementHitsFunc(ctx, id)
	}
	return nil
}

func (m *Db) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	if m.CleanupExpiredFunc != nil {
		return m.CleanupExpiredFunc(ctx, now)
	}
	return 0, nil
}

func (m *Db) BlocklistSize(ctx context.Context) (int, error) {
	if m.BlocklistSizeFunc != nil {
		return m.BlocklistSizeFunc(ctx)
	}
	return 0, nil
}

func (m *Db) InsertFraudBlock(ctx context.Context, b *db.FraudBlock) (int64, error) {
	if m.InsertFraudBlockFunc != nil {
		return m.InsertFraudBlockFunc(ctx, b)
	}
	return 1, nil
}

func (m *Db) GetBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64) (*db.FingerprintBaseline, error) {
	if m.GetBaselineFunc != nil {
		return m.GetBaselineFunc(ctx, fingerprintType, fingerprintKey, ja4Bucket, asnBucket)
	}
	return nil, nil
}

func (m *Db) TouchBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64, now time.Time) (*db.FingerprintBaseline, error) {
	if m.TouchBaselineFunc != nil {
		return m.TouchBaselineFunc(ctx, fingerprintType, fingerprintKey, ja4Bucket, asnBucket, now)
	}
	return &db.FingerprintBaseline{
		FingerprintType: fingerprintType,
		FingerprintKey:  fingerprintKey,
		JA4Bucket:       ja4Bucket,
		ASNBucket:       asnBucket,
		HitCount:        1,
		LastSeen:        now,
	}, nil
}

func (m *Db) EnqueueJob(ctx context.Context, job *db.Job) (int64, error) {
	if m.EnqueueJobFunc != nil {
		return m.EnqueueJobFunc(ctx, job)
	}
	return 1, nil
}

func (m *Db) ClaimNextJob(ctx context.Context, jobType string, now time.Time) (*db.Job, error) {
	if m.ClaimNextJobFunc != nil {
		return m.ClaimNextJobFunc(ctx, jobType, now)
	}
	return nil, nil
}

func (m *Db) CompleteJob(ctx context.Context, id int64) error {
	if m.CompleteJobFunc != nil {
		return m.CompleteJobFunc(ctx, id)
	}
	return nil
}

func (m *Db) FailJob(ctx context.Context, id int64, errMsg string, retryAt time.Time) error {
	if m.FailJobFunc != nil {
		return m.FailJobFunc(ctx, id, errMsg, retryAt)
	}
	return nil
}

func (m *Db) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
