package core

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caasmo/fraudgate/db"
)

func validPayloadBody() []byte {
	return []byte(`{
		"firstName": "Jane",
		"lastName": "Doe",
		"email": "jane@example.com",
		"turnstileToken": "token-abc"
	}`)
}

func TestParsePayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(validPayloadBody()))
	p, raw, err := ParsePayload(req)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if p.Email != "jane@example.com" {
		t.Errorf("email = %q", p.Email)
	}
	if len(raw) == 0 {
		t.Error("expected raw body to be captured")
	}
}

func TestParsePayloadRejectsOversizedBody(t *testing.T) {
	oversized := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(oversized))
	if _, _, err := ParsePayload(req); err == nil {
		t.Fatal("expected an error for an oversized body")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload SubmissionPayload
		bypass  bool
		wantErr bool
	}{
		{
			name: "valid minimal",
			payload: SubmissionPayload{
				FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t",
			},
		},
		{
			name:    "missing turnstile token without bypass",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
			wantErr: true,
		},
		{
			name:    "missing turnstile token with bypass active",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
			bypass:  true,
		},
		{
			name:    "invalid first name",
			payload: SubmissionPayload{FirstName: "J4ne!", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t"},
			wantErr: true,
		},
		{
			name:    "invalid email",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "not-an-email", TurnstileToken: "t"},
			wantErr: true,
		},
		{
			name:    "invalid phone",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "555-1234", TurnstileToken: "t"},
			wantErr: true,
		},
		{
			name:    "valid E.164 phone",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "+14155552671", TurnstileToken: "t"},
		},
		{
			name: "address missing country",
			payload: SubmissionPayload{
				FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t",
				Address: &db.Address{Street: "1 Main St"},
			},
			wantErr: true,
		},
		{
			name: "address with country is valid",
			payload: SubmissionPayload{
				FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t",
				Address: &db.Address{Street: "1 Main St", Country: "US"},
			},
		},
		{
			name:    "date of birth too young",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t", DateOfBirth: time.Now().AddDate(-10, 0, 0).Format("2006-01-02")},
			wantErr: true,
		},
		{
			name:    "date of birth valid adult",
			payload: SubmissionPayload{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", TurnstileToken: "t", DateOfBirth: time.Now().AddDate(-30, 0, 0).Format("2006-01-02")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate(tc.bypass)
			if tc.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	p := SubmissionPayload{
		FirstName: "  Jane  ",
		LastName:  "  Doe  ",
		Email:     "  JANE@Example.com  ",
	}
	p.Normalize()
	if p.Email != "jane@example.com" {
		t.Errorf("email = %q", p.Email)
	}
	if p.FirstName != "Jane" || p.LastName != "Doe" {
		t.Errorf("names not trimmed: %q %q", p.FirstName, p.LastName)
	}
}

func TestAgeInYears(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(2000, 8, 1, 0, 0, 0, 0, time.UTC), 26},
		{time.Date(2000, 8, 2, 0, 0, 0, 0, time.UTC), 25},
		{time.Date(2000, 7, 31, 0, 0, 0, 0, time.UTC), 26},
	}
	for _, tc := range cases {
		if got := ageInYears(tc.dob, now); got != tc.want {
			t.Errorf("ageInYears(%v, %v) = %d, want %d", tc.dob, now, got, tc.want)
		}
	}
}
