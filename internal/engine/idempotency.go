package engine

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "log"
    "time"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// DefaultIdempotencyTTL is how long a stored outcome stays replayable.
const DefaultIdempotencyTTL = 24 * time.Hour

// Idempotency implements at-most-once execution for mutating operations.
// Outcomes (successes and domain errors alike) are stored keyed by
// (key, method) together with a hash of the canonicalized request body;
// replays return the stored response verbatim, and reuse of a key with a
// different body is rejected.
type Idempotency struct {
    store store.Store
    clock Clock
    ttl   time.Duration
}

// NewIdempotency builds the idempotency layer.  ttl <= 0 selects the default.
func NewIdempotency(s store.Store, clock Clock, ttl time.Duration) *Idempotency {
    if ttl <= 0 {
        ttl = DefaultIdempotencyTTL
    }
    return &Idempotency{store: s, clock: clock, ttl: ttl}
}

// CachedResponse is a stored outcome returned on replay.
type CachedResponse struct {
    StatusCode int
    Body       []byte
    Headers    map[string]string
}

// CanonicalizeBody rewrites a JSON body into its canonical form: object keys
// sorted lexicographically, no insignificant whitespace, UTF-8.  Marshaling
// a decoded map gives exactly that, since encoding/json sorts map keys.
func CanonicalizeBody(body []byte) ([]byte, error) {
    if len(body) == 0 {
        return []byte("null"), nil
    }
    var v interface{}
    if err := json.Unmarshal(body, &v); err != nil {
        return nil, err
    }
    return json.Marshal(v)
}

// HashBody returns the lowercase SHA-256 hex digest of the canonical body.
func HashBody(body []byte) (string, error) {
    canonical, err := CanonicalizeBody(body)
    if err != nil {
        return "", err
    }
    sum := sha256.Sum256(canonical)
    return hex.EncodeToString(sum[:]), nil
}

// Check looks up the stored outcome for (key, method).
//
// It returns (nil, nil) on a miss, the cached response on a hit with a
// matching body hash, and an IdempotencyMismatch problem when the key was
// used with a different body.  Expired records count as misses.
func (i *Idempotency) Check(ctx context.Context, key, method string, body []byte) (*CachedResponse, error) {
    hash, err := HashBody(body)
    if err != nil {
        return nil, problem.BadRequest("request body is not valid JSON")
    }
    rec, err := i.store.GetIdempotencyRecord(ctx, key, method)
    if errors.Is(err, store.ErrNotFound) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    if !rec.ExpiresAt.After(i.clock.Now()) {
        return nil, nil
    }
    if rec.RequestHash != hash {
        return nil, problem.IdempotencyMismatch(key, method)
    }
    resp := &CachedResponse{StatusCode: rec.StatusCode, Body: rec.ResponseBody}
    if len(rec.ResponseHeaders) > 0 {
        var headers map[string]string
        if err := json.Unmarshal(rec.ResponseHeaders, &headers); err == nil {
            resp.Headers = headers
        }
    }
    return resp, nil
}

// Store persists the outcome of the first execution.  A duplicate-key
// collision means a concurrent request already stored its outcome; that is
// benign and logged only.
func (i *Idempotency) Store(ctx context.Context, key, method string, body []byte, status int, responseBody []byte, headers map[string]string) error {
    hash, err := HashBody(body)
    if err != nil {
        return err
    }
    now := i.clock.Now()
    rec := &model.IdempotencyRecord{
        ID:           newID(),
        Key:          key,
        Method:       method,
        RequestHash:  hash,
        StatusCode:   status,
        ResponseBody: responseBody,
        ExpiresAt:    now.Add(i.ttl),
        CreatedAt:    now,
    }
    if len(headers) > 0 {
        raw, err := json.Marshal(headers)
        if err != nil {
            return err
        }
        rec.ResponseHeaders = raw
    }
    err = i.store.PutIdempotencyRecord(ctx, rec)
    if errors.Is(err, store.ErrDuplicate) {
        log.Printf("idempotency: concurrent store for key=%s method=%s, keeping first writer", key, method)
        return nil
    }
    return err
}

// Sweep evicts up to limit expired records and returns how many were removed.
func (i *Idempotency) Sweep(ctx context.Context, limit int) (int, error) {
    return i.store.SweepIdempotencyRecords(ctx, i.clock.Now(), limit)
}
