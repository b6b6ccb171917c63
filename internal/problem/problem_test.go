package problem

import (
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestFromPassesProblemsThrough(t *testing.T) {
    orig := CapacityFull("d1", 5, 2)
    got := From(orig)
    assert.Same(t, orig, got)
    assert.Equal(t, 409, got.Status)
    assert.Equal(t, CodeFull, got.Code)
    assert.False(t, *got.Retryable)
}

func TestFromWrapsUnknownErrors(t *testing.T) {
    got := From(errors.New("connection reset"))
    assert.Equal(t, 500, got.Status)
    assert.True(t, *got.Retryable)
    // internals never leak the underlying message
    assert.NotContains(t, got.Detail, "connection reset")
}

func TestIsInternal(t *testing.T) {
    assert.True(t, IsInternal(Internal(errors.New("x"))))
    assert.False(t, IsInternal(NotFound("hold", "h1")))
    assert.False(t, IsInternal(IdempotencyMismatch("k", "booking/hold")))
}

func TestProblemError(t *testing.T) {
    err := HoldExpired("h1", "2026-03-14T09:00:00Z")
    assert.Contains(t, err.Error(), "h1")
    assert.Contains(t, err.Error(), CodeHoldExpired)
    assert.Equal(t, 410, err.Status)
}

func TestValidationCarriesViolations(t *testing.T) {
    p := Validation(
        Violation{Field: "seats", Message: "must be between 1 and 10"},
        Violation{Field: "customer_ref", Message: "must be 1-128 characters"},
    )
    assert.Equal(t, 422, p.Status)
    assert.Len(t, p.Violations, 2)
}
