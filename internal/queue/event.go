// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for domain events.
const (
    BookingConfirmedQueue = "booking.confirmed"
    WaitlistNotifiedQueue = "waitlist.notified"
)

// BookingConfirmedEvent is published when a hold is confirmed into a
// booking.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID   string `json:"booking_id"`
    HoldID      string `json:"hold_id"`
    DepartureID string `json:"departure_id"`
    Code        string `json:"code"`
    Seats       int    `json:"seats"`
    CustomerRef string `json:"customer_ref"`
    ConfirmedAt string `json:"confirmed_at"`
}

// WaitlistNotifiedEvent is published after a promotion pass manufactured
// holds for waiting customers.  One event per pass, listing the promoted
// holds in FIFO order.
type WaitlistNotifiedEvent struct {
    DepartureID string         `json:"departure_id"`
    Holds       []PromotedHold `json:"holds"`
    NotifiedAt  string         `json:"notified_at"`
}

// PromotedHold identifies one hold created for a waitlisted customer.
type PromotedHold struct {
    HoldID      string `json:"hold_id"`
    CustomerRef string `json:"customer_ref"`
    ExpiresAt   string `json:"expires_at"`
}
