package handler

import (
    "context"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/middleware"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

const methodInventoryAdjust = "inventory/adjust"

// AdjustInventory handles POST /v1/inventory/adjust.  Operator-only: the
// route sits behind bearer auth and the token subject is recorded as the
// audit actor.
func (h *Handler) AdjustInventory(c echo.Context) error {
    actor := middleware.Actor(c)
    return h.idempotent(c, methodInventoryAdjust, func(ctx context.Context, body []byte) (int, interface{}, error) {
        var req struct {
            DepartureID string `json:"departure_id"`
            Delta       int    `json:"delta"`
            Reason      string `json:"reason"`
        }
        if err := json.Unmarshal(body, &req); err != nil {
            return 0, nil, problem.BadRequest("invalid request body")
        }
        departureID, prob := parseID("departure_id", req.DepartureID)
        if prob != nil {
            return 0, nil, prob
        }
        adj, err := h.eng.AdjustInventory(ctx, engine.AdjustInventoryParams{
            DepartureID: departureID,
            Delta:       req.Delta,
            Reason:      req.Reason,
            Actor:       actor,
        })
        if err != nil {
            return 0, nil, err
        }
        return http.StatusOK, toAdjustmentResponse(adj), nil
    })
}
