package emailrep

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caasmo/fraudgate/signals"
)

func TestValidateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Email != "jane@example.com" {
			t.Errorf("email = %q", body.Email)
		}
		json.NewEncoder(w).Encode(responseBody{
			Valid:     true,
			RiskScore: 0.42,
			Decision:  "warn",
		})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "secret"})
	resp, err := c.Validate(signals.EmailReputationRequest{Email: "jane@example.com", Consumer: "fraudgate", Flow: "submission-check"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !resp.Valid || resp.RiskScore != 0.42 || resp.Decision != signals.DecisionWarn {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestValidateNoEndpointFailsOpen(t *testing.T) {
	c := New(Config{})
	if _, err := c.Validate(signals.EmailReputationRequest{Email: "jane@example.com"}); err == nil {
		t.Fatal("expected an error when no endpoint is configured")
	}
}

func TestValidateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	if _, err := c.Validate(signals.EmailReputationRequest{Email: "jane@example.com"}); err == nil {
		t.Fatal("expected an error for a non-200 upstream response")
	}
}
