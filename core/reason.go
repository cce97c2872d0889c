package core

import (
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/db"
)

// blockMessage produces the user-facing copy for a block decision,
// branching on the trigger that produced it (spec §4.7 "block-reason
// generation") and including a human-formatted wait time.
func blockMessage(trigger db.BlockTrigger, retryAfter time.Duration) string {
	wait := formatWait(retryAfter)
	switch trigger {
	case db.TriggerEmailFraud:
		return fmt.Sprintf("This email address failed our fraud check. Please try again in %s.", wait)
	case db.TriggerDuplicateEmail:
		return fmt.Sprintf("This email address has already been registered. Please try again in %s.", wait)
	case db.TriggerValidationFrequency:
		return fmt.Sprintf("Too many verification attempts. Please try again in %s.", wait)
	case db.TriggerIPDiversity, db.TriggerEphemeralIDFraud:
		return fmt.Sprintf("Unusual submission pattern detected. Please try again in %s.", wait)
	case db.TriggerJA4SessionHopping:
		return fmt.Sprintf("Too many sessions detected from this connection. Please try again in %s.", wait)
	case db.TriggerHeaderFingerprint:
		return fmt.Sprintf("This request could not be verified. Please try again in %s.", wait)
	case db.TriggerTLSAnomaly:
		return fmt.Sprintf("This connection could not be verified. Please try again in %s.", wait)
	case db.TriggerLatencyMismatch:
		return fmt.Sprintf("This device could not be verified. Please try again in %s.", wait)
	case db.TriggerTurnstileFailed:
		return fmt.Sprintf("Verification failed. Please try again in %s.", wait)
	case db.TriggerTokenReplay:
		return "This verification token has already been used. Please complete the challenge again."
	default:
		return fmt.Sprintf("This submission was blocked. Please try again in %s.", wait)
	}
}

// formatWait renders d as whole hours when it's an exact multiple, else
// whole minutes, else seconds.
func formatWait(d time.Duration) string {
	switch {
	case d <= 0:
		return "a moment"
	case d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
}

// primaryTrigger picks the single highest-contribution component from a
// breakdown, used to label a block decision that isn't driven by one of
// the earlier definitive checks (token replay, duplicate email).
func primaryTrigger(components map[db.BlockTrigger]float64) db.BlockTrigger {
	var best db.BlockTrigger
	bestScore := -1.0
	for trigger, score := range components {
		if score > bestScore {
			best = trigger
			bestScore = score
		}
	}
	return best
}
