// Package blocklist implements the progressive-timeout blocklist store
// (spec §4.3/§4.4): multi-key lookups, additions, offense counting, and
// expiry cleanup, backed by db.DbBlocklist with a fast-path cache in
// front of the common "is this identifier currently blocked" check.
package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/cache"
	"github.com/caasmo/fraudgate/db"
)

// CheckResult is the outcome of Check.
type CheckResult struct {
	Blocked    bool
	Reason     string
	Confidence string
	ExpiresAt  time.Time
	RetryAfter time.Duration
	Entry      *db.BlocklistEntry
}

// AddParams describes a new blocklist entry. At least one identifier
// must be non-empty.
type AddParams struct {
	Email         string
	EphemeralID   string
	IP            string
	JA4           string
	Reason        string
	Confidence    string
	DetectionType db.BlockTrigger
	RiskScore     float64
	RiskBreakdown json.RawMessage
	Metadata      json.RawMessage
	Erfid         string
	ExpiresIn     time.Duration
}

// Stats summarizes the current blocklist composition.
type Stats struct {
	Total            int
	ByEphemeralID    int
	ByIP             int
	HighConfidence   int
	MediumConfidence int
	LowConfidence    int
}

// Store is the blocklist's public API, safe for concurrent use: all
// mutation is delegated to the database's row-level guarantees.
type Store struct {
	db       db.DbBlocklist
	fastPath cache.Cache[string, bool]
	schedule []time.Duration
}

// New constructs a Store. fastPath may be nil to skip the cache layer.
func New(d db.DbBlocklist, fastPath cache.Cache[string, bool], schedule []time.Duration) *Store {
	if schedule == nil {
		schedule = DefaultSchedule
	}
	return &Store{db: d, fastPath: fastPath, schedule: schedule}
}

// Check returns the most recently blocked unexpired entry matching any
// provided identifier. Identifiers left empty are not matched on.
func (s *Store) Check(ctx context.Context, ephemeralID, ip, ja4, email string) (CheckResult, error) {
	now := time.Now()

	entry, err := s.db.FindActiveBlock(ctx, email, ephemeralID, ip, ja4, now)
	if err != nil {
		return CheckResult{}, fmt.Errorf("blocklist: check: %w", err)
	}
	if entry == nil {
		return CheckResult{Blocked: false}, nil
	}

	if err := s.db.IncrementHits(ctx, entry.ID); err != nil {
		return CheckResult{}, fmt.Errorf("blocklist: check: increment hits: %w", err)
	}
	entry.SubmissionHits++

	return CheckResult{
		Blocked:    true,
		Reason:     entry.Reason,
		Confidence: entry.Confidence,
		ExpiresAt:  entry.ExpiresAt,
		RetryAfter: time.Until(entry.ExpiresAt),
		Entry:      entry,
	}, nil
}

// Add inserts or extends a blocklist entry per p, computing ExpiresAt from
// the progressive-timeout schedule when p.ExpiresIn is zero.
func (s *Store) Add(ctx context.Context, p AddParams) (*db.BlocklistEntry, error) {
	if p.Email == "" && p.EphemeralID == "" && p.IP == "" && p.JA4 == "" {
		return nil, fmt.Errorf("blocklist: add requires at least one non-empty identifier")
	}

	now := time.Now()
	expiresIn := p.ExpiresIn
	if expiresIn <= 0 {
		offenses, err := s.db.OffenseCount(ctx, p.Email, p.EphemeralID, p.IP, p.JA4, now)
		if err != nil {
			return nil, fmt.Errorf("blocklist: add: offense count: %w", err)
		}
		expiresIn = Duration(offenses+1, s.schedule)
	}

	entry := &db.BlocklistEntry{
		Email:         p.Email,
		EphemeralID:   p.EphemeralID,
		IP:            p.IP,
		JA4:           p.JA4,
		Reason:        p.Reason,
		Confidence:    p.Confidence,
		DetectionType: p.DetectionType,
		BlockedAt:     now,
		ExpiresAt:     now.Add(expiresIn),
		SubmissionHits: 1,
		RiskScore:     p.RiskScore,
		RiskBreakdown: p.RiskBreakdown,
		Metadata:      p.Metadata,
		Erfid:         p.Erfid,
	}

	saved, err := s.db.UpsertBlock(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("blocklist: add: %w", err)
	}

	if s.fastPath != nil {
		for _, key := range fastPathKeys(p.Email, p.EphemeralID, p.IP, p.JA4) {
			s.fastPath.SetWithTTL(key, true, 1, expiresIn)
		}
	}

	return saved, nil
}

// FastPathBlocked reports whether any of the given identifiers were
// cached as blocked by a recent Add, without touching the database. It
// never returns a false positive for "not blocked" — a cache miss means
// "unknown", and callers must still consult Check for an authoritative
// answer.
func (s *Store) FastPathBlocked(email, ephemeralID, ip, ja4 string) bool {
	if s.fastPath == nil {
		return false
	}
	for _, key := range fastPathKeys(email, ephemeralID, ip, ja4) {
		if blocked, ok := s.fastPath.Get(key); ok && blocked {
			return true
		}
	}
	return false
}

// OffenseCount returns the number of prior entries matching any provided
// identifier, plus one for the current offense.
func (s *Store) OffenseCount(ctx context.Context, email, ephemeralID, ip string) (int, error) {
	n, err := s.db.OffenseCount(ctx, email, ephemeralID, ip, "", time.Now())
	if err != nil {
		return 0, fmt.Errorf("blocklist: offense count: %w", err)
	}
	return n + 1, nil
}

// CleanupExpired deletes rows whose expiry is in the past. Intended to be
// run by a janitor job (queue/scheduler).
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.db.CleanupExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("blocklist: cleanup expired: %w", err)
	}
	return n, nil
}

// Stats reports the current blocklist size. Only Total is populated; the
// per-identifier and per-confidence counts of Stats are left at zero.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	total, err := s.db.BlocklistSize(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("blocklist: stats: %w", err)
	}
	return Stats{Total: total}, nil
}

func fastPathKeys(email, ephemeralID, ip, ja4 string) []string {
	var keys []string
	if email != "" {
		keys = append(keys, "email:"+email)
	}
	if ephemeralID != "" {
		keys = append(keys, "eph:"+ephemeralID)
	}
	if ip != "" {
		keys = append(keys, "ip:"+ip)
	}
	if ja4 != "" {
		keys = append(keys, "ja4:"+ja4)
	}
	return keys
}
