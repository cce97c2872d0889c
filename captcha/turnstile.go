// Package captcha implements the CAPTCHA validator adapter (spec §4.8):
// a siteverify client with replay protection and an error-code dictionary
// that classifies upstream failures for user messaging and operator
// alerting.
package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/caasmo/fraudgate/crypto"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/notify"
)

// DefaultSiteverifyURL is Cloudflare Turnstile's siteverify endpoint.
const DefaultSiteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Config configures the Validator.
type Config struct {
	SecretKey     string
	SiteverifyURL string // defaults to DefaultSiteverifyURL
	Timeout       time.Duration
}

// Result is the outcome of a token validation.
type Result struct {
	Valid        bool
	Reason       string
	EphemeralID  string // metadata.ephemeral_id, absent on non-enterprise plans
	ErrorCodes   []string
	Errors       []ErrorDetail
	Alertworthy  bool // true if any error classified as "configuration"
}

// ErrorDetail is the resolved, user-facing form of one upstream error
// code (spec §4.8).
type ErrorDetail struct {
	Code              string
	Category          string
	Title             string
	Message           string
	DebugMessage      string
	RecommendedAction string
}

type siteverifyResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	Action      string   `json:"action"`
	CData       string   `json:"cdata"`
	Metadata    struct {
		EphemeralID string `json:"ephemeral_id"`
	} `json:"metadata"`
}

// Validator calls the upstream siteverify endpoint and classifies its
// response.
type Validator struct {
	cfg      Config
	client   *http.Client
	events   db.DbValidationEvents
	notifier notify.Notifier
}

// New builds a Validator. events is used for token-hash replay lookups;
// notifier is used to alert on configuration-category errors.
func New(cfg Config, events db.DbValidationEvents, notifier notify.Notifier) *Validator {
	if cfg.SiteverifyURL == "" {
		cfg.SiteverifyURL = DefaultSiteverifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if notifier == nil {
		notifier = notify.NewNilNotifier()
	}
	return &Validator{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		events:   events,
		notifier: notifier,
	}
}

// Verify validates token against the upstream siteverify endpoint. The
// raw token is hashed immediately and never persisted or logged.
func (v *Validator) Verify(ctx context.Context, token, remoteIP string) Result {
	tokenHash := crypto.HashToken(token)

	seen, err := v.events.TokenHashSeen(ctx, tokenHash)
	if err == nil && seen {
		return Result{Valid: false, Reason: "token_reused"}
	}

	body, _ := json.Marshal(map[string]string{
		"secret":   v.cfg.SecretKey,
		"response": token,
		"remoteip": remoteIP,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.SiteverifyURL, bytes.NewReader(body))
	if err != nil {
		return Result{Valid: false, Reason: "api_request_failed"}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{Valid: false, Reason: "api_request_failed"}
	}
	defer resp.Body.Close()

	var parsed siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{Valid: false, Reason: "api_request_failed"}
	}

	if parsed.Success {
		return Result{Valid: true, EphemeralID: parsed.Metadata.EphemeralID}
	}

	result := Result{Valid: false, Reason: "verification_failed", ErrorCodes: parsed.ErrorCodes}
	for _, code := range parsed.ErrorCodes {
		detail := lookupErrorCode(code)
		result.Errors = append(result.Errors, detail)
		if detail.Category == CategoryConfiguration {
			result.Alertworthy = true
		}
	}

	if result.Alertworthy {
		v.alertConfigurationError(ctx, result)
	}

	return result
}

func (v *Validator) alertConfigurationError(ctx context.Context, result Result) {
	_ = v.notifier.Send(ctx, notify.Notification{
		Timestamp: time.Now(),
		Type:      notify.Alarm,
		Source:    "captcha",
		Message:   "turnstile siteverify returned a configuration-category error",
		Fields: map[string]interface{}{
			"errorCodes": fmt.Sprint(result.ErrorCodes),
		},
	})
}
