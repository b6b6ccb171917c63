// Package problem models RFC 9457 problem-details errors.  Domain code
// returns *Problem values; the HTTP layer serializes them verbatim and the
// idempotency layer stores them alongside success responses so that replays
// of a failed operation return the identical failure.
package problem

import (
    "fmt"
    "net/http"
)

// Machine-readable error codes carried in the "code" extension member.
const (
    CodeFull                   = "FULL"
    CodeHoldExpired            = "HOLD_EXPIRED"
    CodeCapacityConflict       = "CAPACITY_CONFLICT"
    CodeIdempotencyKeyMismatch = "IDEMPOTENCY_KEY_MISMATCH"
)

const typePrefix = "https://voyagekit.dev/problems/"

// ContentType is the media type for problem-details responses.
const ContentType = "application/problem+json"

// Violation describes a single invalid input field.
type Violation struct {
    Field   string `json:"field"`
    Message string `json:"message"`
}

// Problem is an RFC 9457 problem-details object.  Status is always set;
// Code and Retryable are extension members used by domain errors.
type Problem struct {
    Type       string      `json:"type"`
    Title      string      `json:"title"`
    Status     int         `json:"status"`
    Detail     string      `json:"detail,omitempty"`
    Instance   string      `json:"instance,omitempty"`
    Code       string      `json:"code,omitempty"`
    Retryable  *bool       `json:"retryable,omitempty"`
    Violations []Violation `json:"violations,omitempty"`
}

// Error implements the error interface so a *Problem can flow through
// ordinary error returns.
func (p *Problem) Error() string {
    if p.Code != "" {
        return fmt.Sprintf("%s (%d %s)", p.Detail, p.Status, p.Code)
    }
    return fmt.Sprintf("%s (%d)", p.Detail, p.Status)
}

func boolPtr(b bool) *bool { return &b }

func newProblem(status int, slug, title, detail string) *Problem {
    return &Problem{
        Type:   typePrefix + slug,
        Title:  title,
        Status: status,
        Detail: detail,
    }
}

// NotFound reports a missing resource of the given type.
func NotFound(resource, id string) *Problem {
    p := newProblem(http.StatusNotFound, "not-found", "Resource Not Found",
        fmt.Sprintf("%s %s not found", resource, id))
    p.Retryable = boolPtr(false)
    return p
}

// CapacityFull reports insufficient available seats on a departure.
func CapacityFull(departureID string, requested, available int) *Problem {
    p := newProblem(http.StatusConflict, "capacity-full", "Capacity Full",
        fmt.Sprintf("departure %s has insufficient capacity: requested %d, available %d",
            departureID, requested, available))
    p.Code = CodeFull
    p.Retryable = boolPtr(false)
    return p
}

// HoldExpired reports an attempt to confirm a hold past its TTL.
func HoldExpired(holdID, expiredAt string) *Problem {
    p := newProblem(http.StatusGone, "hold-expired", "Hold Expired",
        fmt.Sprintf("hold %s expired at %s", holdID, expiredAt))
    p.Code = CodeHoldExpired
    p.Retryable = boolPtr(false)
    return p
}

// Conflict reports a state transition that is no longer possible, such as
// confirming a cancelled hold.
func Conflict(detail string) *Problem {
    p := newProblem(http.StatusConflict, "conflict", "Conflict", detail)
    p.Retryable = boolPtr(false)
    return p
}

// CapacityConflict reports an inventory adjustment that would reduce
// capacity below committed seats or below zero.
func CapacityConflict(departureID string, delta, available int) *Problem {
    p := newProblem(http.StatusConflict, "capacity-conflict", "Capacity Conflict",
        fmt.Sprintf("cannot apply delta %d to departure %s: available %d",
            delta, departureID, available))
    p.Code = CodeCapacityConflict
    p.Retryable = boolPtr(false)
    return p
}

// IdempotencyMismatch reports reuse of an idempotency key with a different
// request body.
func IdempotencyMismatch(key, method string) *Problem {
    p := newProblem(http.StatusUnprocessableEntity, "idempotency-key-mismatch",
        "Idempotency Key Mismatch",
        fmt.Sprintf("idempotency key %q was already used for method %q with a different request body",
            key, method))
    p.Code = CodeIdempotencyKeyMismatch
    p.Retryable = boolPtr(false)
    return p
}

// Validation reports invalid request input with per-field violations.
func Validation(violations ...Violation) *Problem {
    p := newProblem(http.StatusUnprocessableEntity, "validation", "Validation Failed",
        "request validation failed")
    p.Retryable = boolPtr(false)
    p.Violations = violations
    return p
}

// BadRequest reports a malformed request (unparseable body, missing header).
func BadRequest(detail string) *Problem {
    p := newProblem(http.StatusBadRequest, "bad-request", "Bad Request", detail)
    p.Retryable = boolPtr(false)
    return p
}

// Unauthorized reports a missing or invalid bearer token.
func Unauthorized(detail string) *Problem {
    p := newProblem(http.StatusUnauthorized, "unauthorized", "Unauthorized", detail)
    p.Retryable = boolPtr(false)
    return p
}

// TooManyRequests reports a rate-limited request.  RetryAfterSeconds is
// echoed in the Retry-After header by the transport.
func TooManyRequests(retryAfterSeconds int) *Problem {
    p := newProblem(http.StatusTooManyRequests, "too-many-requests", "Too Many Requests",
        fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfterSeconds))
    p.Retryable = boolPtr(true)
    return p
}

// Internal wraps an unexpected failure.  Internal problems are retryable and
// are the only kind not cached by the idempotency layer.
func Internal(err error) *Problem {
    p := newProblem(http.StatusInternalServerError, "internal", "Internal Server Error",
        "an unexpected error occurred")
    p.Retryable = boolPtr(true)
    _ = err // logged by the caller; never leaked to clients
    return p
}

// From coerces err into a *Problem, wrapping non-problem errors as Internal.
func From(err error) *Problem {
    if p, ok := err.(*Problem); ok {
        return p
    }
    return Internal(err)
}

// IsInternal reports whether p represents an infrastructure failure that
// must not be persisted by the idempotency store.
func IsInternal(p *Problem) bool {
    return p.Status >= http.StatusInternalServerError
}
