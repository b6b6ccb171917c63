package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// CreateTour handles POST /v1/tour/create.  Operator-only.
func (h *Handler) CreateTour(c echo.Context) error {
    var req struct {
        Name        string `json:"name"`
        Slug        string `json:"slug"`
        Description string `json:"description"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    tour, err := h.eng.CreateTour(c.Request().Context(), engine.CreateTourParams{
        Name:        req.Name,
        Slug:        req.Slug,
        Description: req.Description,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toTourResponse(tour))
}

// CreateDeparture handles POST /v1/departure/create.  Operator-only.
func (h *Handler) CreateDeparture(c echo.Context) error {
    var req struct {
        TourID        string      `json:"tour_id"`
        StartsAt      time.Time   `json:"starts_at"`
        CapacityTotal int         `json:"capacity_total"`
        Price         model.Money `json:"price"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    tourID, prob := parseID("tour_id", req.TourID)
    if prob != nil {
        return writeProblem(c, prob)
    }
    d, err := h.eng.CreateDeparture(c.Request().Context(), engine.CreateDepartureParams{
        TourID:        tourID,
        StartsAt:      req.StartsAt,
        CapacityTotal: req.CapacityTotal,
        Price:         req.Price,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toDepartureResponse(d))
}

// SearchDepartures handles POST /v1/departure/search.  Cursor pagination
// ordered by departure id; the cursor is the last id of the previous page.
func (h *Handler) SearchDepartures(c echo.Context) error {
    var req struct {
        TourID        string     `json:"tour_id"`
        DateFrom      *time.Time `json:"date_from"`
        DateTo        *time.Time `json:"date_to"`
        AvailableOnly bool       `json:"available_only"`
        Cursor        string     `json:"cursor"`
        Limit         int        `json:"limit"`
    }
    if err := c.Bind(&req); err != nil {
        return writeProblem(c, problem.BadRequest("invalid request body"))
    }
    if req.Limit <= 0 || req.Limit > 100 {
        req.Limit = 50
    }
    q := store.DepartureSearch{
        DateFrom:      req.DateFrom,
        DateTo:        req.DateTo,
        AvailableOnly: req.AvailableOnly,
        Limit:         req.Limit,
    }
    if req.TourID != "" {
        tourID, prob := parseID("tour_id", req.TourID)
        if prob != nil {
            return writeProblem(c, prob)
        }
        q.TourID = &tourID
    }
    if req.Cursor != "" {
        cursor, prob := parseID("cursor", req.Cursor)
        if prob != nil {
            return writeProblem(c, prob)
        }
        q.Cursor = &cursor
    }
    departures, err := h.eng.SearchDepartures(c.Request().Context(), q)
    if err != nil {
        return fail(c, err)
    }
    items := make([]departureResponse, 0, len(departures))
    for i := range departures {
        items = append(items, toDepartureResponse(&departures[i]))
    }
    next := ""
    if len(items) > 0 && len(items) == q.Limit {
        next = items[len(items)-1].ID
    }
    return c.JSON(http.StatusOK, map[string]interface{}{
        "departures":  items,
        "next_cursor": next,
    })
}
