// ABOUTME: Error classification for API call failures
// ABOUTME: Normalizes transport and HTTP errors into a single inspectable shape

package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Code identifies the broad class of a normalized error.
type Code string

const (
	CodeValidation Code = "validation"
	CodeAuth       Code = "auth"
	CodeForbidden  Code = "forbidden"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeRateLimit  Code = "rate_limited"
	CodeServer     Code = "server"
	CodeNetwork    Code = "network"
	CodeMalformed  Code = "malformed_response"
	CodeGeneric    Code = "generic"
)

// Error is the normalized description of any API call failure. Downstream
// code matches on Code/StatusCode and never re-inspects the raw error.
type Error struct {
	Message    string
	StatusCode int
	Code       Code
	Details    []string
	raw        error
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return e.Message + ": " + strings.Join(e.Details, "; ")
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.raw }

// HTTPError is the raw error produced by the API client for non-2xx
// responses. The classifier consumes it; nothing else should.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// MalformedError marks a 2xx response whose body is not what the client
// expected (HTML error page, missing required fields). Never retryable.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return e.Reason }

var statusMessages = map[int]string{
	400: "invalid request data",
	401: "authentication required",
	403: "access forbidden",
	404: "resource not found",
	409: "resource conflict",
	422: "validation error",
	429: "too many requests",
	500: "internal server error",
	502: "service temporarily unavailable",
	503: "service unavailable",
	504: "request timeout",
}

var statusCodes = map[int]Code{
	400: CodeValidation,
	401: CodeAuth,
	403: CodeForbidden,
	404: CodeNotFound,
	409: CodeConflict,
	422: CodeValidation,
	429: CodeRateLimit,
	500: CodeServer,
	502: CodeServer,
	503: CodeServer,
	504: CodeServer,
}

// Classify turns any failure into a normalized *Error. It is safe on nil
// and unknown error shapes; fallback is used when the error carries no
// message of its own.
func Classify(err error, fallback string) *Error {
	if fallback == "" {
		fallback = "an unexpected error occurred"
	}
	if err == nil {
		return &Error{Message: fallback, Code: CodeGeneric}
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyHTTP(httpErr, err)
	}

	var malformed *MalformedError
	if errors.As(err, &malformed) {
		return &Error{Message: malformed.Reason, Code: CodeMalformed, raw: err}
	}

	// Transport-level failures have no response to inspect. Timeouts are
	// the retryable subset.
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Message: "request timed out", StatusCode: 408, Code: CodeNetwork, raw: err}
		}
		return &Error{Message: "network error occurred", Code: CodeNetwork, raw: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "request timed out", StatusCode: 408, Code: CodeNetwork, raw: err}
	}

	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	return &Error{Message: msg, Code: CodeGeneric, raw: err}
}

func classifyHTTP(httpErr *HTTPError, raw error) *Error {
	status := httpErr.StatusCode

	msg, ok := statusMessages[status]
	if !ok {
		msg = "network error occurred"
	}
	code, ok := statusCodes[status]
	if !ok {
		code = CodeNetwork
	}

	out := &Error{Message: msg, StatusCode: status, Code: code, raw: raw}
	applyBody(out, httpErr.Body)
	return out
}

// applyBody overrides the default message with whatever structured detail
// the response body carries. DRF-style backends use several shapes.
func applyBody(e *Error, body []byte) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		// Plain-text body: use it verbatim when it is not an HTML page.
		if !strings.HasPrefix(trimmed, "<") {
			e.Message = trimmed
		}
		return
	}

	for _, key := range []string{"message", "detail", "error"} {
		if raw, ok := data[key]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				e.Message = s
				return
			}
		}
	}

	if raw, ok := data["non_field_errors"]; ok {
		if s := flattenValue(raw); s != "" {
			e.Message = s
			return
		}
	}

	// Field-keyed validation errors: flatten into Details.
	var details []string
	for key, raw := range data {
		if key == "message" || key == "detail" {
			continue
		}
		if s := flattenValue(raw); s != "" {
			details = append(details, key+": "+s)
		}
	}
	if len(details) > 0 {
		sort.Strings(details)
		e.Details = details
		e.Message = "validation errors occurred"
	}
}

// flattenValue renders a scalar or array JSON value as a single string
func flattenValue(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, ", ")
	}
	var any interface{}
	if json.Unmarshal(raw, &any) == nil {
		return fmt.Sprintf("%v", any)
	}
	return ""
}

// IsRetryable reports whether the failure is transient enough that an
// automatic re-attempt may succeed.
func IsRetryable(e *Error) bool {
	switch e.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// Log writes the raw and normalized error to the diagnostic sink. It is a
// side channel only; classification itself stays pure.
func Log(logger zerolog.Logger, context string, raw error, e *Error) {
	logger.Warn().
		Str("context", context).
		AnErr("raw", raw).
		Str("code", string(e.Code)).
		Int("status", e.StatusCode).
		Strs("details", e.Details).
		Msg(e.Message)
}
