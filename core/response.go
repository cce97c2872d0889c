package core

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// jsonResponse is a precomputed JSON body paired with its status code,
// built once at init so request handling never re-marshals a fixed shape.
type jsonResponse struct {
	status int
	body   []byte
}

// SubmissionSuccess is the 201 response body (spec §6): the submission
// was created and passed risk scoring.
type SubmissionSuccess struct {
	Success      bool   `json:"success"`
	SubmissionID int64  `json:"submissionId"`
	Erfid        string `json:"erfid"`
	Message      string `json:"message"`
}

// ErrorResponse is the generic client/server-error body (spec §6).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Erfid   string `json:"erfid,omitempty"`
}

// RateLimitResponse extends ErrorResponse with the retry window a
// blocked or rate-limited client must respect (spec §6).
type RateLimitResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Erfid      string `json:"erfid,omitempty"`
	RetryAfter int64  `json:"retryAfter"`
	ExpiresAt  string `json:"expiresAt"`
}

// Error category strings (spec §4.10).
const (
	ErrorValidation    = "validation"
	ErrorRateLimit     = "rate_limit"
	ErrorConflict      = "conflict"
	ErrorInternal      = "internal"
	ErrorUnavailable   = "unavailable"
	ErrorSecurityBlock = "security_block"
)

func precomputeErrorResponse(status int, code, message string) jsonResponse {
	body, _ := json.Marshal(ErrorResponse{Error: code, Message: message})
	return jsonResponse{status: status, body: body}
}

// Fixed error bodies that carry no per-request erfid; handlers that know
// the erfid use WriteError instead.
var (
	errorNotFound           = precomputeErrorResponse(http.StatusNotFound, ErrorValidation, "Requested resource not found")
	errorInvalidContentType = precomputeErrorResponse(http.StatusUnsupportedMediaType, ErrorValidation, "Unsupported media type")
)

// writeJSON marshals v, sets the X-Request-Id header from erfid (spec §6
// "every response carries an X-Request-Id"), and writes status.
func writeJSON(w http.ResponseWriter, status int, erfid string, v any) {
	setHeaders(w, HeadersJSON)
	if erfid != "" {
		w.Header().Set("X-Request-Id", erfid)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJsonError writes a precomputed, erfid-less error response.
func writeJsonError(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, HeadersJSON)
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// WriteCreated writes the 201 success response.
func WriteCreated(w http.ResponseWriter, submissionID int64, erfid string) {
	writeJSON(w, http.StatusCreated, erfid, SubmissionSuccess{
		Success:      true,
		SubmissionID: submissionID,
		Erfid:        erfid,
		Message:      "Registration submitted successfully.",
	})
}

// WriteError writes a client or server error response without a retry window.
func WriteError(w http.ResponseWriter, status int, errCode, message, erfid string) {
	writeJSON(w, status, erfid, ErrorResponse{
		Error:   errCode,
		Message: message,
		Erfid:   erfid,
	})
}

// WriteRateLimit writes a 429 response carrying the Retry-After header and
// the retryAfter/expiresAt fields the spec requires on every rate-limit body.
func WriteRateLimit(w http.ResponseWriter, message, erfid string, retryAfter int64, expiresAt string) {
	if retryAfter < 0 {
		retryAfter = 0
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	writeJSON(w, http.StatusTooManyRequests, erfid, RateLimitResponse{
		Error:      ErrorRateLimit,
		Message:    message,
		Erfid:      erfid,
		RetryAfter: retryAfter,
		ExpiresAt:  expiresAt,
	})
}
