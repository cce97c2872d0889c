package signals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caasmo/fraudgate/db"
)

// CollectFingerprint runs the three independent anomaly sub-checks and
// elects the highest-scoring as primary. On no trigger, the relevant
// baseline row is upserted (spec §4.5.5).
func CollectFingerprint(ctx context.Context, deps Deps, cfg FingerprintConfig, meta db.RequestMetadata, now time.Time) FingerprintSignal {
	var warnings []string

	headerScore := headerReuseCheck(ctx, deps, cfg, meta, now, &warnings)
	tlsScore := tlsAnomalyCheck(ctx, deps, cfg, meta, now, &warnings)
	latencyScore := latencyMismatchCheck(cfg, meta, &warnings)

	sig := FingerprintSignal{
		HeaderReuseScore:     headerScore,
		TLSAnomalyScore:      tlsScore,
		LatencyMismatchScore: latencyScore,
		Warnings:             warnings,
	}

	switch {
	case headerScore >= tlsScore && headerScore >= latencyScore && headerScore > 0:
		sig.Primary = FingerprintHeaderReuse
		sig.PrimaryScore = headerScore
	case tlsScore >= latencyScore && tlsScore > 0:
		sig.Primary = FingerprintTLSAnomaly
		sig.PrimaryScore = tlsScore
	case latencyScore > 0:
		sig.Primary = FingerprintLatencyMismatch
		sig.PrimaryScore = latencyScore
	}

	return sig
}

func headerReuseCheck(ctx context.Context, deps Deps, cfg FingerprintConfig, meta db.RequestMetadata, now time.Time, warnings *[]string) float64 {
	if meta.HeaderFingerprint == "" {
		return 0
	}

	since := now.Add(-cfg.HeaderReuseWindow)
	count, distinctIPs, distinctJA4, err := deps.DB.HeaderFingerprintStats(ctx, meta.HeaderFingerprint, since)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("header fingerprint stats query failed: %v", err))
		return 0
	}

	triggered := count >= cfg.HeaderReuseCountThreshold &&
		distinctIPs >= cfg.HeaderReuseIPThreshold &&
		distinctJA4 >= cfg.HeaderReuseJA4Threshold

	if !triggered {
		if _, err := deps.Baselines.TouchBaseline(ctx, "header", meta.HeaderFingerprint, db.BaselineAnyJA4, db.BaselineAnyASN, now); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("header baseline upsert failed: %v", err))
		}
		return 0
	}

	*warnings = append(*warnings, "header fingerprint reused across multiple ips and ja4 fingerprints")
	return 80
}

func tlsAnomalyCheck(ctx context.Context, deps Deps, cfg FingerprintConfig, meta db.RequestMetadata, now time.Time, warnings *[]string) float64 {
	if meta.JA4 == "" || meta.TLSClientExtensionHash == "" {
		return 0
	}

	since := now.Add(-cfg.BaselineWindow)
	ja4Count, pairCount, err := deps.DB.TLSPairObservations(ctx, meta.TLSClientExtensionHash, meta.JA4, since)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("tls pair observations query failed: %v", err))
		return 0
	}

	unknownPair := pairCount == 0
	triggered := unknownPair && ja4Count >= cfg.MinJA4Observations

	if !triggered {
		var asnBucket int64 = db.BaselineAnyASN
		if meta.ASN != nil {
			asnBucket = *meta.ASN
		}
		if _, err := deps.Baselines.TouchBaseline(ctx, "tls_pair", meta.TLSClientExtensionHash, meta.JA4, asnBucket, now); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("tls pair baseline upsert failed: %v", err))
		}
		return 0
	}

	*warnings = append(*warnings, "unknown tls extension hash / ja4 pair on a well-observed ja4 fingerprint")
	return 100
}

func latencyMismatchCheck(cfg FingerprintConfig, meta db.RequestMetadata, warnings *[]string) float64 {
	claimsMobile := strings.EqualFold(meta.ClientHints["mobile"], `?1`) ||
		strings.Contains(strings.ToLower(meta.UserAgent), "mobile") ||
		strings.Contains(strings.ToLower(meta.UserAgent), "android") ||
		strings.Contains(strings.ToLower(meta.UserAgent), "iphone")

	if !claimsMobile || meta.ClientTCPRTTMs == nil {
		return 0
	}

	// RTT exactly equal to the threshold triggers (≤, not <).
	if *meta.ClientTCPRTTMs > cfg.MobileRTTThresholdMs {
		return 0
	}

	notMobileDevice := !strings.EqualFold(meta.DeviceType, "mobile")
	datacenterASN := meta.ASN != nil && cfg.DatacenterASNs[*meta.ASN]

	if notMobileDevice || datacenterASN {
		*warnings = append(*warnings, "device claims mobile but latency/device signals contradict it")
		return 80
	}
	return 0
}
