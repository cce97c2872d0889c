package signals

import (
	"context"
	"time"

	"github.com/caasmo/fraudgate/db"
	"golang.org/x/sync/errgroup"
)

// Collect runs the five signal collectors concurrently and waits for all
// of them, per spec §5 ("the scoring step requires all collectors'
// results"). Each collector fails open internally; Collect itself never
// returns an error.
func Collect(ctx context.Context, deps Deps, cfg Config, emailClient EmailReputationClient, meta db.RequestMetadata, email, ephemeralID string) Bundle {
	var bundle Bundle
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Email = CollectEmail(emailClient, cfg.Email, email, meta.Headers)
		return nil
	})
	g.Go(func() error {
		bundle.EphemeralID = CollectEphemeralID(gctx, deps, cfg.EphemeralID, ephemeralID)
		return nil
	})
	g.Go(func() error {
		bundle.JA4 = CollectJA4(deps, cfg.JA4, meta.JA4, meta.RemoteIP, meta.JA4Signals)
		return nil
	})
	g.Go(func() error {
		bundle.IPRate = CollectIPRate(deps, meta.RemoteIP)
		return nil
	})
	g.Go(func() error {
		bundle.Fingerprint = CollectFingerprint(gctx, deps, cfg.Fingerprint, meta, now)
		return nil
	})

	// Every goroutine above returns nil: collectors fail open and never
	// propagate an error, so this can never fail.
	_ = g.Wait()
	return bundle
}
