package model

import (
    "time"

    "github.com/google/uuid"
)

// InventoryAdjustment is an append-only audit record of an operator change
// to a departure's total capacity.  Before/after snapshots make the row
// self-contained: TotalAfter = TotalBefore + Delta always holds, and
// available never exceeds total on either side.
//
// Fields:
//  ID              – primary key identifier.
//  DepartureID     – departure whose capacity was adjusted.
//  Delta           – signed seat count change, never zero.
//  Reason          – operator supplied justification.
//  Actor           – who performed the adjustment.
//  TotalBefore     – capacity_total before the adjustment.
//  TotalAfter      – capacity_total after the adjustment.
//  AvailableBefore – capacity_available before the adjustment.
//  AvailableAfter  – capacity_available after the adjustment.
//  CreatedAt       – creation timestamp.
type InventoryAdjustment struct {
    ID              uuid.UUID // inventory_adjustments.id
    DepartureID     uuid.UUID // inventory_adjustments.departure_id
    Delta           int       // inventory_adjustments.delta
    Reason          string    // inventory_adjustments.reason
    Actor           string    // inventory_adjustments.actor
    TotalBefore     int       // inventory_adjustments.capacity_total_before
    TotalAfter      int       // inventory_adjustments.capacity_total_after
    AvailableBefore int       // inventory_adjustments.capacity_available_before
    AvailableAfter  int       // inventory_adjustments.capacity_available_after
    CreatedAt       time.Time // inventory_adjustments.created_at
}
