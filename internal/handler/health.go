package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems.  It pings the store so a dead database surfaces as
// 503 rather than a healthy-looking 200.
func (h *Handler) Health(c echo.Context) error {
    if err := h.eng.Store().Ping(c.Request().Context()); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
