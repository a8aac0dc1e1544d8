package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when no completion API key is configured.
var ErrMissingAPIKey = errors.New("OpenAI API key not provided. Set OPENAI_API_KEY environment variable")

// ServiceError wraps any failure of the upstream completion API.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	parts := []string{"HTTP " + strconv.Itoa(e.StatusCode)}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	s := strings.Join(parts, ": ")
	if e.RequestID != "" {
		s += " (request " + e.RequestID + ")"
	}
	return s
}

type (
	// AuthError is a rejected API key (401/403).
	AuthError struct{ *APIError }
	// ModelNotFoundError means the configured model does not exist upstream.
	ModelNotFoundError struct{ *APIError }
	// BadRequestError is a 400 the provider raised against the payload.
	BadRequestError struct{ *APIError }
	// QuotaExceededError means the account ran out of credit.
	QuotaExceededError struct{ *APIError }
	// ServerError is any 5xx from the provider.
	ServerError struct{ *APIError }
)

func (e *AuthError) Error() string { return "authentication failed: " + e.APIError.Error() }
func (e *ModelNotFoundError) Error() string { return "model not found: " + e.APIError.Error() }
func (e *BadRequestError) Error() string { return "bad request: " + e.APIError.Error() }
func (e *QuotaExceededError) Error() string { return "quota exceeded: " + e.APIError.Error() }
func (e *ServerError) Error() string { return "provider error: " + e.APIError.Error() }

// RateLimitError is a 429 that is not about quota. RetryAfter is zero when the
// provider did not say.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry in %s): %s", e.RetryAfter, e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}

// UnreachableError means no HTTP answer came back at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("completion endpoint unreachable: %v", e.Err)
	}
	return fmt.Sprintf("completion endpoint %s unreachable: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// errorEnvelope covers both {"error": {...}} and flat error bodies.
type errorEnvelope struct {
	Error *errorFields `json:"error"`
	errorFields
}

type errorFields struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// readAPIError turns a non-2xx response into one of the typed errors above.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestIDFrom(resp.Header)}
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		fields := env.errorFields
		if env.Error != nil {
			fields = *env.Error
		}
		apiErr.Message = fields.Message
		if code, ok := fields.Code.(string); ok {
			apiErr.Code = code
		}
	}
	return classifyAPIError(apiErr, resp.Header)
}

func classifyAPIError(apiErr *APIError, header http.Header) error {
	msg := strings.ToLower(apiErr.Message)
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{apiErr}
	case sc == http.StatusTooManyRequests:
		if apiErr.Code == "insufficient_quota" || mentions(msg, "quota", "billing") {
			return &QuotaExceededError{apiErr}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(header.Get("Retry-After"), time.Now())}
	case sc == http.StatusNotFound:
		if apiErr.Code == "model_not_found" ||
			(strings.Contains(msg, "model") && mentions(msg, "does not exist", "not found")) {
			return &ModelNotFoundError{apiErr}
		}
	case sc == http.StatusBadRequest:
		return &BadRequestError{apiErr}
	case apiErr.Code == "quota_exceeded" || mentions(msg, "quota", "billing", "limit exceeded"):
		return &QuotaExceededError{apiErr}
	case sc >= 500:
		return &ServerError{apiErr}
	}
	return apiErr
}

// mentions reports whether lower-cased s contains any of the phrases.
func mentions(s string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// retryAfter reads a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now).Truncate(time.Second)
	}
	return 0
}

func requestIDFrom(h http.Header) string {
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "X-Amzn-Requestid"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
