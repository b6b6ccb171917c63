package handler

import (
    "context"
    "encoding/json"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

// Logical method names used as the idempotency scope.
const (
    methodBookingHold    = "booking/hold"
    methodBookingConfirm = "booking/confirm"
    methodBookingCancel  = "booking/cancel"
)

// parseID parses a required UUID field, reporting a field violation on
// failure.
func parseID(field, value string) (uuid.UUID, *problem.Problem) {
    id, err := uuid.Parse(value)
    if err != nil {
        return uuid.Nil, problem.Validation(problem.Violation{
            Field:   field,
            Message: "must be a valid UUID",
        })
    }
    return id, nil
}

// CreateHold handles POST /v1/booking/hold.  Reserves seats on a departure
// for a limited time under an Idempotency-Key.
func (h *Handler) CreateHold(c echo.Context) error {
    return h.idempotent(c, methodBookingHold, func(ctx context.Context, body []byte) (int, interface{}, error) {
        var req struct {
            DepartureID string `json:"departure_id"`
            Seats       int    `json:"seats"`
            CustomerRef string `json:"customer_ref"`
            TTLSeconds  int    `json:"ttl_seconds"`
        }
        if err := json.Unmarshal(body, &req); err != nil {
            return 0, nil, problem.BadRequest("invalid request body")
        }
        departureID, prob := parseID("departure_id", req.DepartureID)
        if prob != nil {
            return 0, nil, prob
        }
        hold, err := h.eng.CreateHold(ctx, engine.CreateHoldParams{
            DepartureID:    departureID,
            Seats:          req.Seats,
            CustomerRef:    req.CustomerRef,
            TTLSeconds:     req.TTLSeconds,
            IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
        })
        if err != nil {
            return 0, nil, err
        }
        return http.StatusOK, toHoldResponse(hold), nil
    })
}

// ConfirmBooking handles POST /v1/booking/confirm.  Turns an active hold
// into a confirmed booking.
func (h *Handler) ConfirmBooking(c echo.Context) error {
    return h.idempotent(c, methodBookingConfirm, func(ctx context.Context, body []byte) (int, interface{}, error) {
        var req struct {
            HoldID string `json:"hold_id"`
        }
        if err := json.Unmarshal(body, &req); err != nil {
            return 0, nil, problem.BadRequest("invalid request body")
        }
        holdID, prob := parseID("hold_id", req.HoldID)
        if prob != nil {
            return 0, nil, prob
        }
        booking, err := h.eng.ConfirmBooking(ctx, holdID)
        if err != nil {
            return 0, nil, err
        }
        return http.StatusOK, toBookingResponse(booking), nil
    })
}

// CancelBooking handles POST /v1/booking/cancel.  Cancels a booking and
// restores its seats.
func (h *Handler) CancelBooking(c echo.Context) error {
    return h.idempotent(c, methodBookingCancel, func(ctx context.Context, body []byte) (int, interface{}, error) {
        var req struct {
            BookingID string `json:"booking_id"`
        }
        if err := json.Unmarshal(body, &req); err != nil {
            return 0, nil, problem.BadRequest("invalid request body")
        }
        bookingID, prob := parseID("booking_id", req.BookingID)
        if prob != nil {
            return 0, nil, prob
        }
        booking, err := h.eng.CancelBooking(ctx, bookingID)
        if err != nil {
            return 0, nil, err
        }
        return http.StatusOK, toBookingResponse(booking), nil
    })
}

// GetBooking handles POST /v1/booking/get.  Read-only, no idempotency key
// involved.
func (h *Handler) GetBooking(c echo.Context) error {
    var req struct {
        BookingID string `json:"booking_id"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    bookingID, prob := parseID("booking_id", req.BookingID)
    if prob != nil {
        return writeProblem(c, prob)
    }
    booking, err := h.eng.GetBooking(c.Request().Context(), bookingID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResponse(booking))
}
