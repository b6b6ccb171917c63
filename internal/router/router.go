package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing
    "github.com/redis/go-redis/v9"

    "github.com/voyagekit/tour-reservation/internal/config"
    "github.com/voyagekit/tour-reservation/internal/handler"
    "github.com/voyagekit/tour-reservation/internal/middleware"
)

// Register wires every endpoint of the reservation API onto e.
//
// All business endpoints are RPC-style POSTs under /v1.  Booking and
// waitlist routes are public (customers identify themselves through
// customer_ref); catalog management and inventory adjustment require an
// operator bearer token, whose subject becomes the audit actor.  The
// rate limiter covers the whole /v1 surface and degrades to a no-op when
// Redis is unavailable.
func Register(e *echo.Echo, h *handler.Handler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    // Health check for load balancers and monitoring; never rate limited.
    e.GET("/healthz", h.Health)

    v1 := e.Group("/v1")
    v1.Use(middleware.NewTokenBucket(rlCfg, rdb))

    // Customer-facing reservation flow.
    v1.POST("/booking/hold", h.CreateHold)
    v1.POST("/booking/confirm", h.ConfirmBooking)
    v1.POST("/booking/cancel", h.CancelBooking)
    v1.POST("/booking/get", h.GetBooking)
    v1.POST("/waitlist/join", h.JoinWaitlist)

    // Public read-only catalog search.
    v1.POST("/departure/search", h.SearchDepartures)

    // Operator surface: catalog management, manual waitlist promotion and
    // capacity adjustment with audit.
    op := v1.Group("", middleware.OperatorAuth(jwtSecret))
    op.POST("/tour/create", h.CreateTour)
    op.POST("/departure/create", h.CreateDeparture)
    op.POST("/waitlist/notify", h.NotifyWaitlist)
    op.POST("/inventory/adjust", h.AdjustInventory)
}
