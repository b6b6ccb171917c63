package handler

import (
    "time"

    "github.com/voyagekit/tour-reservation/internal/model"
)

// Response shapes.  Models carry no JSON tags on purpose; the wire format
// is pinned here so storage changes never leak into API responses (which
// the idempotency layer replays byte for byte).

type holdResponse struct {
    ID          string    `json:"id"`
    DepartureID string    `json:"departure_id"`
    Seats       int       `json:"seats"`
    CustomerRef string    `json:"customer_ref"`
    Status      string    `json:"status"`
    ExpiresAt   time.Time `json:"expires_at"`
    CreatedAt   time.Time `json:"created_at"`
}

func toHoldResponse(h *model.Hold) holdResponse {
    return holdResponse{
        ID:          h.ID.String(),
        DepartureID: h.DepartureID.String(),
        Seats:       h.Seats,
        CustomerRef: h.CustomerRef,
        Status:      h.Status,
        ExpiresAt:   h.ExpiresAt.UTC(),
        CreatedAt:   h.CreatedAt.UTC(),
    }
}

type bookingResponse struct {
    ID          string    `json:"id"`
    HoldID      string    `json:"hold_id"`
    DepartureID string    `json:"departure_id"`
    Code        string    `json:"code"`
    Seats       int       `json:"seats"`
    CustomerRef string    `json:"customer_ref"`
    Status      string    `json:"status"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
    return bookingResponse{
        ID:          b.ID.String(),
        HoldID:      b.HoldID.String(),
        DepartureID: b.DepartureID.String(),
        Code:        b.Code,
        Seats:       b.Seats,
        CustomerRef: b.CustomerRef,
        Status:      b.Status,
        CreatedAt:   b.CreatedAt.UTC(),
        UpdatedAt:   b.UpdatedAt.UTC(),
    }
}

type waitlistEntryResponse struct {
    ID          string     `json:"id"`
    DepartureID string     `json:"departure_id"`
    CustomerRef string     `json:"customer_ref"`
    NotifiedAt  *time.Time `json:"notified_at"`
    CreatedAt   time.Time  `json:"created_at"`
}

func toWaitlistEntryResponse(e *model.WaitlistEntry) waitlistEntryResponse {
    r := waitlistEntryResponse{
        ID:          e.ID.String(),
        DepartureID: e.DepartureID.String(),
        CustomerRef: e.CustomerRef,
        CreatedAt:   e.CreatedAt.UTC(),
    }
    if e.NotifiedAt != nil {
        t := e.NotifiedAt.UTC()
        r.NotifiedAt = &t
    }
    return r
}

type notifyWaitlistResponse struct {
    ProcessedCount int            `json:"processed_count"`
    HoldsCreated   []holdResponse `json:"holds_created"`
}

type adjustmentResponse struct {
    ID              string    `json:"id"`
    DepartureID     string    `json:"departure_id"`
    Delta           int       `json:"delta"`
    Reason          string    `json:"reason"`
    Actor           string    `json:"actor"`
    TotalBefore     int       `json:"capacity_total_before"`
    TotalAfter      int       `json:"capacity_total_after"`
    AvailableBefore int       `json:"capacity_available_before"`
    AvailableAfter  int       `json:"capacity_available_after"`
    CreatedAt       time.Time `json:"created_at"`
}

func toAdjustmentResponse(a *model.InventoryAdjustment) adjustmentResponse {
    return adjustmentResponse{
        ID:              a.ID.String(),
        DepartureID:     a.DepartureID.String(),
        Delta:           a.Delta,
        Reason:          a.Reason,
        Actor:           a.Actor,
        TotalBefore:     a.TotalBefore,
        TotalAfter:      a.TotalAfter,
        AvailableBefore: a.AvailableBefore,
        AvailableAfter:  a.AvailableAfter,
        CreatedAt:       a.CreatedAt.UTC(),
    }
}

type tourResponse struct {
    ID          string    `json:"id"`
    Name        string    `json:"name"`
    Slug        string    `json:"slug"`
    Description string    `json:"description,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

func toTourResponse(t *model.Tour) tourResponse {
    return tourResponse{
        ID:          t.ID.String(),
        Name:        t.Name,
        Slug:        t.Slug,
        Description: t.Description,
        CreatedAt:   t.CreatedAt.UTC(),
    }
}

type departureResponse struct {
    ID                string      `json:"id"`
    TourID            string      `json:"tour_id"`
    StartsAt          time.Time   `json:"starts_at"`
    CapacityTotal     int         `json:"capacity_total"`
    CapacityAvailable int         `json:"capacity_available"`
    Price             model.Money `json:"price"`
    CreatedAt         time.Time   `json:"created_at"`
}

func toDepartureResponse(d *model.Departure) departureResponse {
    return departureResponse{
        ID:                d.ID.String(),
        TourID:            d.TourID.String(),
        StartsAt:          d.StartsAt.UTC(),
        CapacityTotal:     d.CapacityTotal,
        CapacityAvailable: d.CapacityAvailable,
        Price:             d.Price,
        CreatedAt:         d.CreatedAt.UTC(),
    }
}
