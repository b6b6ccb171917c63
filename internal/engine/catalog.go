package engine

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// Catalog operations: the minimal tour/departure management the engine
// needs so inventory can exist at all.  These are operator-facing and not
// part of the idempotent dispatch surface.

// CreateTourParams carries a new tour.
type CreateTourParams struct {
    Name        string
    Slug        string
    Description string
}

// CreateTour inserts a tour with a unique slug.
func (e *Engine) CreateTour(ctx context.Context, p CreateTourParams) (*model.Tour, error) {
    var violations []problem.Violation
    if p.Name == "" {
        violations = append(violations, problem.Violation{Field: "name", Message: "must not be empty"})
    }
    if p.Slug == "" {
        violations = append(violations, problem.Violation{Field: "slug", Message: "must not be empty"})
    }
    if len(violations) > 0 {
        return nil, problem.Validation(violations...)
    }
    now := e.clock.Now()
    tour := &model.Tour{
        ID:          newID(),
        Name:        p.Name,
        Slug:        p.Slug,
        Description: p.Description,
        CreatedAt:   now,
        UpdatedAt:   now,
    }
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        err := tx.InsertTour(ctx, tour)
        if errors.Is(err, store.ErrDuplicate) {
            return problem.Conflict("tour slug already exists: " + p.Slug)
        }
        return err
    })
    if err != nil {
        return nil, err
    }
    return tour, nil
}

// CreateDepartureParams carries a new departure.  All capacity starts
// available.
type CreateDepartureParams struct {
    TourID        uuid.UUID
    StartsAt      time.Time
    CapacityTotal int
    Price         model.Money
}

// CreateDeparture inserts a departure under an existing tour.
func (e *Engine) CreateDeparture(ctx context.Context, p CreateDepartureParams) (*model.Departure, error) {
    var violations []problem.Violation
    if p.CapacityTotal < 0 {
        violations = append(violations, problem.Violation{Field: "capacity_total", Message: "must be >= 0"})
    }
    if p.Price.Amount < 0 {
        violations = append(violations, problem.Violation{Field: "price.amount", Message: "must be >= 0"})
    }
    if len(p.Price.Currency) != 3 {
        violations = append(violations, problem.Violation{Field: "price.currency", Message: "must be a 3-letter ISO 4217 code"})
    }
    if p.StartsAt.IsZero() {
        violations = append(violations, problem.Violation{Field: "starts_at", Message: "must be set"})
    }
    if len(violations) > 0 {
        return nil, problem.Validation(violations...)
    }
    now := e.clock.Now()
    d := &model.Departure{
        ID:                newID(),
        TourID:            p.TourID,
        StartsAt:          p.StartsAt.UTC(),
        CapacityTotal:     p.CapacityTotal,
        CapacityAvailable: p.CapacityTotal,
        Price:             p.Price,
        CreatedAt:         now,
        UpdatedAt:         now,
    }
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        if _, err := tx.GetTour(ctx, p.TourID); err != nil {
            if errors.Is(err, store.ErrNotFound) {
                return problem.NotFound("tour", p.TourID.String())
            }
            return err
        }
        return tx.InsertDeparture(ctx, d)
    })
    if err != nil {
        return nil, err
    }
    return d, nil
}

// GetDeparture loads a departure by id.
func (e *Engine) GetDeparture(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
    d, err := e.store.GetDeparture(ctx, id)
    if errors.Is(err, store.ErrNotFound) {
        return nil, problem.NotFound("departure", id.String())
    }
    if err != nil {
        return nil, err
    }
    return d, nil
}

// SearchDepartures pages through departures by id with optional filters.
func (e *Engine) SearchDepartures(ctx context.Context, q store.DepartureSearch) ([]model.Departure, error) {
    if q.Limit <= 0 || q.Limit > 100 {
        q.Limit = 50
    }
    return e.store.SearchDepartures(ctx, q)
}
