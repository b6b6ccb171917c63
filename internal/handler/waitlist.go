package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/problem"
)

// JoinWaitlist handles POST /v1/waitlist/join.  The operation is naturally
// idempotent through the (departure_id, customer_ref) uniqueness, so no
// Idempotency-Key is required.
func (h *Handler) JoinWaitlist(c echo.Context) error {
    var req struct {
        DepartureID string `json:"departure_id"`
        CustomerRef string `json:"customer_ref"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    departureID, prob := parseID("departure_id", req.DepartureID)
    if prob != nil {
        return writeProblem(c, prob)
    }
    entry, err := h.eng.JoinWaitlist(c.Request().Context(), departureID, req.CustomerRef)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toWaitlistEntryResponse(entry))
}

// NotifyWaitlist handles POST /v1/waitlist/notify.  Runs one promotion pass
// for a departure; normally driven by the background worker, exposed for
// operator tooling.
func (h *Handler) NotifyWaitlist(c echo.Context) error {
    var req struct {
        DepartureID string `json:"departure_id"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    departureID, prob := parseID("departure_id", req.DepartureID)
    if prob != nil {
        return writeProblem(c, prob)
    }
    res, err := h.eng.NotifyWaitlist(c.Request().Context(), departureID)
    if err != nil {
        return fail(c, err)
    }
    out := notifyWaitlistResponse{
        ProcessedCount: res.ProcessedCount,
        HoldsCreated:   []holdResponse{},
    }
    for i := range res.HoldsCreated {
        out.HoldsCreated = append(out.HoldsCreated, toHoldResponse(&res.HoldsCreated[i]))
    }
    return c.JSON(http.StatusOK, out)
}
