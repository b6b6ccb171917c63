package handler

import (
    "context"
    "encoding/json"
    "io"

    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/problem"
)

// maxIdempotencyKeyLen bounds the Idempotency-Key header value.
const maxIdempotencyKeyLen = 255

// opFunc executes one mutating operation against the already-read request
// body and returns the success status and response payload.
type opFunc func(ctx context.Context, body []byte) (int, interface{}, error)

// idempotent wraps a mutating operation in the stored-outcome protocol:
//
//  1. require an Idempotency-Key header;
//  2. replay the stored response verbatim when (key, method) was executed
//     before with the same body, reject with 422 on a different body;
//  3. otherwise run the operation once and store its outcome — success or
//     domain error alike — so later retries see the first result.
//
// Internal errors are never stored: the client is expected to retry them
// and the retry must execute for real.
func (h *Handler) idempotent(c echo.Context, method string, run opFunc) error {
    key := c.Request().Header.Get("Idempotency-Key")
    if key == "" || len(key) > maxIdempotencyKeyLen {
        return writeProblem(c, problem.BadRequest("Idempotency-Key header is required and must be 1-255 characters"))
    }
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return writeProblem(c, problem.BadRequest("failed to read request body"))
    }
    ctx := c.Request().Context()

    cached, err := h.idem.Check(ctx, key, method, body)
    if err != nil {
        return fail(c, err)
    }
    if cached != nil {
        for k, v := range cached.Headers {
            c.Response().Header().Set(k, v)
        }
        c.Response().Header().Set("Idempotency-Replayed", "true")
        ct := cached.Headers[echo.HeaderContentType]
        if ct == "" {
            ct = echo.MIMEApplicationJSON
        }
        return c.Blob(cached.StatusCode, ct, cached.Body)
    }

    status, payload, err := run(ctx, body)
    if err != nil {
        p := problem.From(err)
        if problem.IsInternal(p) {
            c.Logger().Errorf("%s failed: %v", method, err)
            return writeProblem(c, p)
        }
        raw, merr := json.Marshal(p)
        if merr != nil {
            return fail(c, merr)
        }
        headers := map[string]string{echo.HeaderContentType: problem.ContentType}
        if serr := h.idem.Store(ctx, key, method, body, p.Status, raw, headers); serr != nil {
            c.Logger().Warnf("idempotency store failed for %s key=%s: %v", method, key, serr)
        }
        return c.Blob(p.Status, problem.ContentType, raw)
    }

    raw, err := json.Marshal(payload)
    if err != nil {
        return fail(c, err)
    }
    headers := map[string]string{echo.HeaderContentType: echo.MIMEApplicationJSON}
    if serr := h.idem.Store(ctx, key, method, body, status, raw, headers); serr != nil {
        c.Logger().Warnf("idempotency store failed for %s key=%s: %v", method, key, serr)
    }
    return c.Blob(status, echo.MIMEApplicationJSON, raw)
}
