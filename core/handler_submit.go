package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caasmo/fraudgate/blocklist"
	"github.com/caasmo/fraudgate/captcha"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/requestmeta"
	"github.com/caasmo/fraudgate/scoring"
	"github.com/caasmo/fraudgate/signals"
)

// TestingBypassHeader carries the operator API key that activates the
// CAPTCHA testing bypass (spec §4.7 "Testing bypass").
const TestingBypassHeader = "X-Fraudgate-Testing-Key"

// SubmitHandler implements the submission pipeline (spec §4.7):
// extract metadata, generate erfid, parse and validate the payload,
// check the blocklist, verify the CAPTCHA token, collect signals
// concurrently, score the result, and persist the outcome.
func (a *App) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := a.Config()
	meta := requestmeta.Extract(r)

	erfid, err := a.erfidGen.Generate()
	if err != nil {
		a.logger.Error("erfid generation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", "")
		return
	}

	if err, resp := a.validator.ContentType(r, "application/json"); err != nil {
		writeJsonError(w, resp)
		return
	}

	testingBypass := cfg.Testing.AllowBypass && cfg.Testing.APIKey != "" && r.Header.Get(TestingBypassHeader) == cfg.Testing.APIKey

	payload, raw, err := ParsePayload(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrorValidation, "The request body could not be parsed.", erfid)
		return
	}
	if err := payload.Validate(testingBypass); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorValidation, err.Error(), erfid)
		return
	}
	payload.Normalize()

	check, err := a.blocklist.Check(ctx, payload.EphemeralID, meta.RemoteIP, meta.JA4, payload.Email)
	if err != nil {
		a.logger.Error("blocklist check failed", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}
	if check.Blocked {
		message := blockMessage(detectionTypeOf(check.Entry), check.RetryAfter)
		WriteRateLimit(w, message, erfid, int64(check.RetryAfter.Seconds()), check.ExpiresAt.UTC().Format(time.RFC3339))
		return
	}

	var captchaResult captcha.Result
	if testingBypass {
		captchaResult = captcha.Bypass()
	} else {
		captchaResult = a.captcha.Verify(ctx, payload.TurnstileToken, meta.RemoteIP)
	}
	if !captchaResult.Valid {
		a.handleCaptchaFailure(ctx, w, erfid, meta, payload, captchaResult)
		return
	}
	if payload.EphemeralID == "" {
		payload.EphemeralID = captchaResult.EphemeralID
	}

	bundle := signals.Collect(ctx, a.signalDeps, signalsConfig(cfg.Fraud), a.emailClient, meta, payload.Email, payload.EphemeralID)

	priorCount, err := a.db.CountSubmissionsByEmail(ctx, payload.Email, time.Time{})
	if err != nil {
		a.logger.Error("duplicate email lookup failed", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}
	if priorCount > 0 {
		a.handleDuplicateEmail(ctx, w, erfid, meta, payload)
		return
	}

	inputs := scoringInputsFrom(bundle, false, "")

	breakdown := scoring.Score(inputs, scoringConfig(cfg.Fraud))
	breakdownJSON, _ := json.Marshal(breakdown)

	if breakdown.Total >= cfg.Fraud.Thresholds.Block {
		a.handleBlockDecision(ctx, w, erfid, meta, payload, breakdown, breakdownJSON)
		return
	}

	a.createSubmission(ctx, w, erfid, meta, payload, raw, bundle, breakdown, breakdownJSON)
}

// scoringInputsFrom maps a collected signal bundle onto the pure scoring
// engine's input shape.
func scoringInputsFrom(b signals.Bundle, tokenReplay bool, trigger db.BlockTrigger) scoring.Inputs {
	return scoring.Inputs{
		TokenReplay:            tokenReplay,
		EmailRiskScore:         b.Email.RiskScore,
		EphemeralIDCount:       b.EphemeralID.SubmissionCount,
		ValidationCount:        b.EphemeralID.ValidationCount,
		UniqueIPCount:          b.EphemeralID.UniqueIPCount,
		JA4RawScore:            b.JA4.RawScore,
		IPRateLimitScore:       b.IPRate.Score,
		HeaderFingerprintScore: b.Fingerprint.HeaderReuseScore,
		TLSAnomalyScore:        b.Fingerprint.TLSAnomalyScore,
		LatencyMismatchScore:   b.Fingerprint.LatencyMismatchScore,
		BlockTrigger:           trigger,
	}
}

func (a *App) handleCaptchaFailure(ctx context.Context, w http.ResponseWriter, erfid string, meta db.RequestMetadata, payload SubmissionPayload, result captcha.Result) {
	var riskScore float64
	var riskBreakdownJSON json.RawMessage
	detectionType := db.BlockTrigger("")
	if result.Reason == "token_reused" {
		detectionType = db.TriggerTokenReplay
		breakdown := scoring.Score(scoring.Inputs{TokenReplay: true}, scoringConfig(a.Config().Fraud))
		riskScore = breakdown.Total
		riskBreakdownJSON, _ = json.Marshal(breakdown)
	}
	a.recordValidationEvent(ctx, erfid, meta, payload, result, false, riskScore, riskBreakdownJSON, detectionType)

	switch result.Reason {
	case "token_reused":
		if _, err := a.blocklist.Add(ctx, blocklist.AddParams{
			EphemeralID:   payload.EphemeralID,
			IP:            meta.RemoteIP,
			Reason:        "CAPTCHA token reused",
			Confidence:    db.ConfidenceHigh,
			DetectionType: db.TriggerTokenReplay,
			Erfid:         erfid,
		}); err != nil {
			a.logger.Error("failed to record token replay block", "erfid", erfid, "error", err)
		}
		WriteError(w, http.StatusBadRequest, ErrorValidation, blockMessage(db.TriggerTokenReplay, 0), erfid)
	case "api_request_failed":
		WriteError(w, http.StatusServiceUnavailable, ErrorUnavailable, "Verification service is temporarily unavailable. Please try again shortly.", erfid)
	default:
		if allTransient(result) {
			WriteError(w, http.StatusServiceUnavailable, ErrorUnavailable, "Verification service is temporarily unavailable. Please try again shortly.", erfid)
			return
		}
		WriteError(w, http.StatusForbidden, ErrorSecurityBlock, "We couldn't verify your submission. Please try again.", erfid)
	}
}

func allTransient(result captcha.Result) bool {
	if len(result.Errors) == 0 {
		return false
	}
	for _, e := range result.Errors {
		if e.Category != captcha.CategoryTransient {
			return false
		}
	}
	return true
}

// handleDuplicateEmail implements the duplicate-email branch (spec
// §4.7): the first two offenses for the (email, ip) pair within a day
// get a fixed 24h block and a 409; the third and later get the
// progressive-timeout schedule and a 429.
func (a *App) handleDuplicateEmail(ctx context.Context, w http.ResponseWriter, erfid string, meta db.RequestMetadata, payload SubmissionPayload) {
	offenseCount, err := a.blocklist.OffenseCount(ctx, payload.Email, "", meta.RemoteIP)
	if err != nil {
		a.logger.Error("offense count lookup failed", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}

	addParams := blocklist.AddParams{
		Email:         payload.Email,
		IP:            meta.RemoteIP,
		Reason:        "Duplicate email submission",
		DetectionType: db.TriggerDuplicateEmail,
		Erfid:         erfid,
	}

	if offenseCount <= 2 {
		addParams.Confidence = db.ConfidenceLow
		addParams.ExpiresIn = 24 * time.Hour
		entry, err := a.blocklist.Add(ctx, addParams)
		if err != nil {
			a.logger.Error("failed to record duplicate email block", "erfid", erfid, "error", err)
			WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
			return
		}
		WriteError(w, http.StatusConflict, ErrorConflict, blockMessage(db.TriggerDuplicateEmail, time.Until(entry.ExpiresAt)), erfid)
		return
	}

	addParams.Confidence = db.ConfidenceHigh
	entry, err := a.blocklist.Add(ctx, addParams)
	if err != nil {
		a.logger.Error("failed to record duplicate email block", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}
	retryAfter := time.Until(entry.ExpiresAt)
	WriteRateLimit(w, blockMessage(db.TriggerDuplicateEmail, retryAfter), erfid, int64(retryAfter.Seconds()), entry.ExpiresAt.UTC().Format(time.RFC3339))
}

// handleBlockDecision persists the block and writes the 429 response
// when scoring crosses the block threshold (spec §4.6 step 4).
func (a *App) handleBlockDecision(ctx context.Context, w http.ResponseWriter, erfid string, meta db.RequestMetadata, payload SubmissionPayload, breakdown scoring.Breakdown, breakdownJSON []byte) {
	trigger := primaryTrigger(triggerComponents(breakdown))

	entry, err := a.blocklist.Add(ctx, blocklist.AddParams{
		Email:         payload.Email,
		EphemeralID:   payload.EphemeralID,
		IP:            meta.RemoteIP,
		JA4:           meta.JA4,
		Reason:        "Risk score exceeded block threshold",
		Confidence:    db.ConfidenceHigh,
		DetectionType: trigger,
		RiskScore:     breakdown.Total,
		RiskBreakdown: breakdownJSON,
		Erfid:         erfid,
	})
	if err != nil {
		a.logger.Error("failed to record risk block", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}

	a.recordValidationEvent(ctx, erfid, meta, payload, captcha.Result{Valid: true}, false, breakdown.Total, breakdownJSON, trigger)

	retryAfter := time.Until(entry.ExpiresAt)
	WriteRateLimit(w, blockMessage(trigger, retryAfter), erfid, int64(retryAfter.Seconds()), entry.ExpiresAt.UTC().Format(time.RFC3339))
}

// triggerComponents maps each weighted score component back onto the
// trigger it represents, for primaryTrigger selection.
func triggerComponents(b scoring.Breakdown) map[db.BlockTrigger]float64 {
	return map[db.BlockTrigger]float64{
		db.TriggerEmailFraud:          b.EmailFraud.Contribution,
		db.TriggerEphemeralIDFraud:    b.EphemeralID.Contribution,
		db.TriggerValidationFrequency: b.ValidationFrequency.Contribution,
		db.TriggerIPDiversity:         b.IPDiversity.Contribution,
		db.TriggerJA4SessionHopping:   b.JA4SessionHopping.Contribution,
		db.TriggerHeaderFingerprint:   b.HeaderFingerprint.Contribution,
		db.TriggerTLSAnomaly:          b.TLSAnomaly.Contribution,
		db.TriggerLatencyMismatch:     b.LatencyMismatch.Contribution,
	}
}

// createSubmission persists the submission and writes the 201 response.
// A unique-constraint violation on the email index (a concurrent
// duplicate write that slipped past the earlier check) surfaces as 409;
// any other persistence failure surfaces as 500.
func (a *App) createSubmission(ctx context.Context, w http.ResponseWriter, erfid string, meta db.RequestMetadata, payload SubmissionPayload, raw []byte, bundle signals.Bundle, breakdown scoring.Breakdown, breakdownJSON []byte) {
	emailSignalsJSON, _ := json.Marshal(bundle.Email.Signals)

	submission := &db.Submission{
		Erfid:             erfid,
		FirstName:         payload.FirstName,
		LastName:          payload.LastName,
		Email:             payload.Email,
		Phone:             payload.Phone,
		Address:           payload.Address,
		DateOfBirth:       payload.DateOfBirth,
		RawPayload:        raw,
		Metadata:          meta,
		EphemeralID:       payload.EphemeralID,
		RiskBreakdown:     breakdownJSON,
		EmailFraudSignals: emailSignalsJSON,
		TestingBypass:     payload.TurnstileToken == "",
		CreatedAt:         time.Now(),
	}

	id, err := a.db.InsertSubmission(ctx, submission)
	if err != nil {
		if errors.Is(err, db.ErrUniqueConstraint) {
			WriteError(w, http.StatusConflict, ErrorConflict, "This email address has already been registered.", erfid)
			return
		}
		a.logger.Error("failed to persist submission", "erfid", erfid, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrorInternal, "Internal error. Please try again.", erfid)
		return
	}

	a.recordSubmissionRiskEvent(ctx, erfid, meta, payload, breakdown, breakdownJSON, id)

	WriteCreated(w, id, erfid)
}

func (a *App) recordSubmissionRiskEvent(ctx context.Context, erfid string, meta db.RequestMetadata, payload SubmissionPayload, breakdown scoring.Breakdown, breakdownJSON []byte, submissionID int64) {
	event := &db.ValidationEvent{
		Erfid:         erfid,
		Success:       true,
		Allowed:       true,
		EphemeralID:   payload.EphemeralID,
		RiskScore:     breakdown.Total,
		RiskBreakdown: breakdownJSON,
		SubmissionID:  &submissionID,
		Metadata:      meta,
		CreatedAt:     time.Now(),
	}
	if _, err := a.db.InsertValidationEvent(ctx, event); err != nil {
		a.logger.Error("failed to record validation event", "erfid", erfid, "error", err)
	}
}

func (a *App) recordValidationEvent(ctx context.Context, erfid string, meta db.RequestMetadata, payload SubmissionPayload, result captcha.Result, allowed bool, riskScore float64, riskBreakdown json.RawMessage, detectionType db.BlockTrigger) {
	blockReason := ""
	if !result.Valid {
		blockReason = result.Reason
	}
	event := &db.ValidationEvent{
		Erfid:         erfid,
		Success:       result.Valid,
		Allowed:       allowed,
		BlockReason:   blockReason,
		EphemeralID:   payload.EphemeralID,
		RiskScore:     riskScore,
		RiskBreakdown: riskBreakdown,
		DetectionType: string(detectionType),
		Metadata:      meta,
		CreatedAt:     time.Now(),
	}
	if _, err := a.db.InsertValidationEvent(ctx, event); err != nil {
		a.logger.Error("failed to record validation event", "erfid", erfid, "error", err)
	}
}

func detectionTypeOf(entry *db.BlocklistEntry) db.BlockTrigger {
	if entry == nil {
		return ""
	}
	return entry.DetectionType
}
