// Package handler contains the HTTP layer: request binding, idempotent
// dispatch and problem-details rendering.  All domain behavior lives in the
// engine package; handlers translate between JSON and engine calls.
package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

// Handler exposes the reservation API over Echo.  All endpoints are
// RPC-style POSTs; mutating ones run through the idempotent dispatcher.
type Handler struct {
    eng  *engine.Engine
    idem *engine.Idempotency
}

// New constructs the handler.  Both dependencies must be non-nil.
func New(eng *engine.Engine, idem *engine.Idempotency) *Handler {
    if eng == nil || idem == nil {
        panic("nil dependency passed to handler.New")
    }
    return &Handler{eng: eng, idem: idem}
}

// writeProblem renders p as application/problem+json.
func writeProblem(c echo.Context, p *problem.Problem) error {
    c.Response().Header().Set(echo.HeaderContentType, problem.ContentType)
    return c.JSON(p.Status, p)
}

// fail coerces any error into a problem response.
func fail(c echo.Context, err error) error {
    p := problem.From(err)
    if problem.IsInternal(p) {
        c.Logger().Errorf("internal error on %s: %v", c.Path(), err)
    }
    return writeProblem(c, p)
}
