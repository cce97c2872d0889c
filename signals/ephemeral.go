package signals

import (
	"context"
	"fmt"
	"time"
)

// CollectEphemeralID queries submission and validation history for
// ephemeralID. On query error it fails open with neutral values.
func CollectEphemeralID(ctx context.Context, deps Deps, cfg EphemeralIDConfig, ephemeralID string) EphemeralIDSignal {
	if ephemeralID == "" {
		return EphemeralIDSignal{SubmissionCount: 0, ValidationCount: 0, UniqueIPCount: 0}
	}

	now := time.Now()

	submissionCount, err := deps.DB.CountSubmissionsByEphemeralID(ctx, ephemeralID, now.Add(-24*time.Hour))
	var warnings []string
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("ephemeral-id submission count query failed: %v", err))
		submissionCount = 0
	}
	submissionCount++ // +1 for the current offense, per spec §4.5.2

	validationCount, err := deps.Validations.CountValidationEventsByEphemeralID(ctx, ephemeralID, now.Add(-time.Hour))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("ephemeral-id validation count query failed: %v", err))
		validationCount = 0
	}
	validationCount++

	uniqueIPCount, err := deps.DB.DistinctIPsByEphemeralID(ctx, ephemeralID, now.Add(-24*time.Hour))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("ephemeral-id distinct ip query failed: %v", err))
		uniqueIPCount = 0
	}

	sig := EphemeralIDSignal{
		SubmissionCount: submissionCount,
		ValidationCount: validationCount,
		UniqueIPCount:   uniqueIPCount,
	}

	if submissionCount >= cfg.SubmissionWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("ephemeral id seen in %d submissions in the last 24h", submissionCount))
	}
	if validationCount >= cfg.ValidationBlockThreshold {
		warnings = append(warnings, fmt.Sprintf("ephemeral id seen in %d validations in the last 1h (block threshold)", validationCount))
	} else if validationCount >= cfg.ValidationWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("ephemeral id seen in %d validations in the last 1h (warn threshold)", validationCount))
	}
	if uniqueIPCount >= cfg.IPWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("ephemeral id seen from %d distinct ips in the last 24h", uniqueIPCount))
	}

	sig.Warnings = warnings
	return sig
}
