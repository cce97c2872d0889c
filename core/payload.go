package core

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/caasmo/fraudgate/db"
)

const maxBodyBytes = 1 << 20 // 1 MiB, well above any legitimate form submission

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z\s'-]{1,50}$`)
	phoneRe = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	dobRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	tagRe   = regexp.MustCompile(`<[^>]*>`)
)

// SubmissionPayload is the decoded request body of the submission
// endpoint (spec §6 schema).
type SubmissionPayload struct {
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Address        *db.Address `json:"address,omitempty"`
	DateOfBirth    string     `json:"dateOfBirth,omitempty"`
	TurnstileToken string     `json:"turnstileToken"`
	EphemeralID    string     `json:"ephemeralId,omitempty"`
}

// ParsePayload decodes and size-limits the request body.
func ParsePayload(r *http.Request) (SubmissionPayload, []byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return SubmissionPayload{}, nil, fmt.Errorf("read body: %w", err)
	}
	var p SubmissionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return SubmissionPayload{}, raw, fmt.Errorf("decode json: %w", err)
	}
	return p, raw, nil
}

// Normalize lowercases and HTML-strips the email, and trims surrounding
// whitespace on name fields. Called after Validate succeeds.
func (p *SubmissionPayload) Normalize() {
	p.Email = strings.ToLower(tagRe.ReplaceAllString(strings.TrimSpace(p.Email), ""))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
}

// Validate checks the schema contracts in spec §6. testingBypassActive
// relaxes the turnstileToken requirement.
func (p SubmissionPayload) Validate(testingBypassActive bool) error {
	if !nameRe.MatchString(p.FirstName) {
		return fmt.Errorf("firstName: must be 1-50 characters matching letters, spaces, hyphens, and apostrophes")
	}
	if !nameRe.MatchString(p.LastName) {
		return fmt.Errorf("lastName: must be 1-50 characters matching letters, spaces, hyphens, and apostrophes")
	}
	if len(p.Email) < 1 || len(p.Email) > 100 {
		return fmt.Errorf("email: must be 1-100 characters")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("email: invalid format")
	}
	if p.Phone != "" && !phoneRe.MatchString(p.Phone) {
		return fmt.Errorf("phone: must be E.164 format")
	}
	if p.Address != nil {
		if err := validateAddress(p.Address); err != nil {
			return err
		}
	}
	if p.DateOfBirth != "" {
		if err := validateDateOfBirth(p.DateOfBirth); err != nil {
			return err
		}
	}
	if !testingBypassActive && p.TurnstileToken == "" {
		return fmt.Errorf("turnstileToken: required")
	}
	return nil
}

func validateAddress(a *db.Address) error {
	anyField := a.Street != "" || a.Street2 != "" || a.City != "" || a.State != "" || a.PostalCode != ""
	if anyField && a.Country == "" {
		return fmt.Errorf("address.country: required when any other address field is set")
	}
	return nil
}

func validateDateOfBirth(dob string) error {
	if !dobRe.MatchString(dob) {
		return fmt.Errorf("dateOfBirth: must be YYYY-MM-DD")
	}
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return fmt.Errorf("dateOfBirth: invalid date")
	}
	age := ageInYears(t, time.Now())
	if age < 18 || age > 120 {
		return fmt.Errorf("dateOfBirth: age must be between 18 and 120")
	}
	return nil
}

func ageInYears(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
