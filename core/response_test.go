package core

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCreated(rec, 42, "erf-123")

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "erf-123" {
		t.Errorf("X-Request-Id = %q", got)
	}
	var body SubmissionSuccess
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.SubmissionID != 42 || body.Erfid != "erf-123" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 400, ErrorValidation, "bad input", "erf-1")

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != ErrorValidation || body.Message != "bad input" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestWriteRateLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimit(rec, "slow down", "erf-2", 3600, "2026-08-02T00:00:00Z")

	if rec.Code != 429 {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3600" {
		t.Errorf("Retry-After = %q", got)
	}
	var body RateLimitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.RetryAfter != 3600 || body.ExpiresAt != "2026-08-02T00:00:00Z" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestWriteRateLimitClampsNegativeRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimit(rec, "slow down", "erf-3", -5, "2026-08-02T00:00:00Z")

	if got := rec.Header().Get("Retry-After"); got != "0" {
		t.Errorf("Retry-After = %q, want clamped to 0", got)
	}
}
