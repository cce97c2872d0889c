// Package emailrep implements an HTTP adapter for the external
// email-reputation service (spec §4.5.1), satisfying
// signals.EmailReputationClient.
package emailrep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/caasmo/fraudgate/signals"
)

// Config configures the Client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client calls the configured email-reputation endpoint over HTTP.
type Client struct {
	cfg    Config
	client *http.Client
}

// New builds a Client. A zero-value Endpoint makes every Validate call
// fail immediately, which CollectEmail treats as a fail-open warning.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type requestBody struct {
	Email    string            `json:"email"`
	Consumer string            `json:"consumer"`
	Flow     string            `json:"flow"`
	Headers  map[string]string `json:"headers,omitempty"`
}

type responseBody struct {
	Valid     bool                   `json:"valid"`
	RiskScore float64                `json:"riskScore"`
	Decision  string                 `json:"decision"`
	Signals   map[string]interface{} `json:"signals"`
}

// Validate posts the email and request context to the reputation
// endpoint and returns its decision.
func (c *Client) Validate(req signals.EmailReputationRequest) (signals.EmailReputationResponse, error) {
	if c.cfg.Endpoint == "" {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: no endpoint configured")
	}

	body, err := json.Marshal(requestBody{
		Email:    req.Email,
		Consumer: req.Consumer,
		Flow:     req.Flow,
		Headers:  req.Headers,
	})
	if err != nil {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: unexpected status %d", resp.StatusCode)
	}

	var parsed responseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return signals.EmailReputationResponse{}, fmt.Errorf("emailrep: decode response: %w", err)
	}

	return signals.EmailReputationResponse{
		Valid:     parsed.Valid,
		RiskScore: parsed.RiskScore,
		Decision:  signals.EmailReputationDecision(parsed.Decision),
		Signals:   parsed.Signals,
	}, nil
}
