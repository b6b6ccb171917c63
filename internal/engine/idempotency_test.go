package engine_test

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store/memory"
)

func TestCanonicalizeBody(t *testing.T) {
    cases := []struct {
        name string
        in   string
        want string
    }{
        {"sorts keys", `{"b":1,"a":2}`, `{"a":2,"b":1}`},
        {"nested objects", `{"b": {"y": 2, "x": 1}, "a": 0}`, `{"a":0,"b":{"x":1,"y":2}}`},
        {"strips whitespace", "{\n  \"k\": \"v\"\n}", `{"k":"v"}`},
        {"arrays keep order", `{"a":[3,1,2]}`, `{"a":[3,1,2]}`},
        {"empty body", ``, `null`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got, err := engine.CanonicalizeBody([]byte(tc.in))
            require.NoError(t, err)
            assert.Equal(t, tc.want, string(got))
        })
    }

    _, err := engine.CanonicalizeBody([]byte(`{"broken":`))
    assert.Error(t, err)
}

func TestHashBodyInsensitiveToFormatting(t *testing.T) {
    h1, err := engine.HashBody([]byte(`{"seats": 2, "departure_id": "d1"}`))
    require.NoError(t, err)
    h2, err := engine.HashBody([]byte(`{"departure_id":"d1","seats":2}`))
    require.NoError(t, err)
    assert.Equal(t, h1, h2)
    assert.Len(t, h1, 64)

    h3, err := engine.HashBody([]byte(`{"departure_id":"d1","seats":3}`))
    require.NoError(t, err)
    assert.NotEqual(t, h1, h3)
}

func TestIdempotencyCheckAndStore(t *testing.T) {
    st := memory.New()
    clock := newFakeClock()
    idem := engine.NewIdempotency(st, clock, time.Hour)
    ctx := context.Background()

    body := []byte(`{"seats":2}`)

    // miss before anything is stored
    cached, err := idem.Check(ctx, "k1", "booking/hold", body)
    require.NoError(t, err)
    assert.Nil(t, cached)

    require.NoError(t, idem.Store(ctx, "k1", "booking/hold", body, 200, []byte(`{"id":"h1"}`), nil))

    // hit replays status and body
    cached, err = idem.Check(ctx, "k1", "booking/hold", body)
    require.NoError(t, err)
    require.NotNil(t, cached)
    assert.Equal(t, 200, cached.StatusCode)
    assert.JSONEq(t, `{"id":"h1"}`, string(cached.Body))

    // same key and body under another method is independent
    cached, err = idem.Check(ctx, "k1", "booking/confirm", body)
    require.NoError(t, err)
    assert.Nil(t, cached)

    // key reuse with a different body is rejected
    _, err = idem.Check(ctx, "k1", "booking/hold", []byte(`{"seats":3}`))
    require.Error(t, err)
    prob := problem.From(err)
    assert.Equal(t, 422, prob.Status)
    assert.Equal(t, problem.CodeIdempotencyKeyMismatch, prob.Code)
}

func TestIdempotencyExpiryAndSweep(t *testing.T) {
    st := memory.New()
    clock := newFakeClock()
    idem := engine.NewIdempotency(st, clock, time.Hour)
    ctx := context.Background()

    body := []byte(`{"seats":1}`)
    require.NoError(t, idem.Store(ctx, "k1", "booking/hold", body, 200, []byte(`{}`), nil))

    clock.Advance(time.Hour + time.Minute)

    // an expired record behaves like a miss even before the sweeper runs
    cached, err := idem.Check(ctx, "k1", "booking/hold", body)
    require.NoError(t, err)
    assert.Nil(t, cached)

    removed, err := idem.Sweep(ctx, 100)
    require.NoError(t, err)
    assert.Equal(t, 1, removed)

    removed, err = idem.Sweep(ctx, 100)
    require.NoError(t, err)
    assert.Equal(t, 0, removed)
}

func TestIdempotencyConcurrentStoreIsBenign(t *testing.T) {
    st := memory.New()
    clock := newFakeClock()
    idem := engine.NewIdempotency(st, clock, time.Hour)
    ctx := context.Background()

    body := []byte(`{"seats":1}`)
    require.NoError(t, idem.Store(ctx, "k1", "booking/hold", body, 200, []byte(`{"winner":true}`), nil))
    // the loser of the race keeps the first writer's outcome
    require.NoError(t, idem.Store(ctx, "k1", "booking/hold", body, 200, []byte(`{"winner":false}`), nil))

    cached, err := idem.Check(ctx, "k1", "booking/hold", body)
    require.NoError(t, err)
    require.NotNil(t, cached)
    assert.JSONEq(t, `{"winner":true}`, string(cached.Body))
}

func TestIdempotencyRejectsInvalidJSON(t *testing.T) {
    st := memory.New()
    idem := engine.NewIdempotency(st, newFakeClock(), time.Hour)

    _, err := idem.Check(context.Background(), "k1", "booking/hold", []byte(`not json`))
    require.Error(t, err)
    assert.Equal(t, 400, problem.From(err).Status)
}
