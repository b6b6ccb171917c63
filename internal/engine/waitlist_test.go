package engine_test

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

func TestJoinWaitlistIdempotent(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 1)
    ctx := context.Background()

    first, err := env.eng.JoinWaitlist(ctx, depID, "cust-7")
    require.NoError(t, err)
    second, err := env.eng.JoinWaitlist(ctx, depID, "cust-7")
    require.NoError(t, err)

    assert.Equal(t, first.ID, second.ID)
    assert.Nil(t, second.NotifiedAt)
}

func TestJoinWaitlistValidation(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 1)
    ctx := context.Background()

    _, err := env.eng.JoinWaitlist(ctx, depID, "")
    require.Error(t, err)
    assert.Equal(t, 422, problem.From(err).Status)

    _, err = env.eng.JoinWaitlist(ctx, uuid.New(), "cust-1")
    require.Error(t, err)
    assert.Equal(t, 404, problem.From(err).Status)
}

// Three customers wait on a sold-out departure; two seats free up.  The two
// oldest entries get single-seat short-TTL holds, the third keeps waiting.
func TestNotifyWaitlistFIFO(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 2)
    ctx := context.Background()

    p := holdParams(depID, 2)
    p.TTLSeconds = 60
    _, err := env.eng.CreateHold(ctx, p)
    require.NoError(t, err)
    require.Equal(t, 0, env.available(t, depID))

    for _, ref := range []string{"w1", "w2", "w3"} {
        _, err := env.eng.JoinWaitlist(ctx, depID, ref)
        require.NoError(t, err)
        env.clock.Advance(time.Second) // distinct created_at for strict FIFO
    }

    env.clock.Advance(61 * time.Second)
    n, err := env.eng.ExpireHolds(ctx, 100)
    require.NoError(t, err)
    require.Equal(t, 1, n)
    require.Equal(t, 2, env.available(t, depID))

    res, err := env.eng.NotifyWaitlist(ctx, depID)
    require.NoError(t, err)
    require.Equal(t, 2, res.ProcessedCount)
    require.Len(t, res.HoldsCreated, 2)

    assert.Equal(t, "w1", res.HoldsCreated[0].CustomerRef)
    assert.Equal(t, "w2", res.HoldsCreated[1].CustomerRef)

    now := env.clock.Now()
    for _, h := range res.HoldsCreated {
        assert.Equal(t, 1, h.Seats)
        assert.Equal(t, now.Add(engine.WaitlistHoldTTLSeconds*time.Second), h.ExpiresAt)
    }
    assert.Equal(t, 0, env.available(t, depID))

    // w3 is still unnotified
    w3, err := env.eng.JoinWaitlist(ctx, depID, "w3")
    require.NoError(t, err)
    assert.Nil(t, w3.NotifiedAt)

    // promoted entries carry a notified timestamp now
    w1, err := env.eng.JoinWaitlist(ctx, depID, "w1")
    require.NoError(t, err)
    assert.NotNil(t, w1.NotifiedAt)

    require.Len(t, env.events.notified, 1)
    assert.Len(t, env.events.notified[0], 2)
}

func TestNotifyWaitlistHoldKeyIsPerEpoch(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 1)
    ctx := context.Background()

    entry, err := env.eng.JoinWaitlist(ctx, depID, "w1")
    require.NoError(t, err)

    res, err := env.eng.NotifyWaitlist(ctx, depID)
    require.NoError(t, err)
    require.Len(t, res.HoldsCreated, 1)

    want := fmt.Sprintf("waitlist-%s-%d", entry.ID, env.clock.Now().Unix())
    assert.Equal(t, want, res.HoldsCreated[0].IdempotencyKey)
}

func TestNotifyWaitlistNoCapacityNoWork(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 1)
    ctx := context.Background()

    _, err := env.eng.CreateHold(ctx, holdParams(depID, 1))
    require.NoError(t, err)
    _, err = env.eng.JoinWaitlist(ctx, depID, "w1")
    require.NoError(t, err)

    res, err := env.eng.NotifyWaitlist(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 0, res.ProcessedCount)
    assert.Empty(t, env.events.notified)
}

func TestNotifyWaitlistUnknownDeparture(t *testing.T) {
    env := newTestEnv(t)
    _, err := env.eng.NotifyWaitlist(context.Background(), uuid.New())
    require.Error(t, err)
    assert.Equal(t, 404, problem.From(err).Status)
}

func TestPromoteWaitlistsSweep(t *testing.T) {
    env := newTestEnv(t)
    ctx := context.Background()

    depA := env.seedDeparture(t, 1)
    depB := env.seedDeparture(t, 1)
    _, err := env.eng.JoinWaitlist(ctx, depA, "a1")
    require.NoError(t, err)
    _, err = env.eng.JoinWaitlist(ctx, depB, "b1")
    require.NoError(t, err)

    total, err := env.eng.PromoteWaitlists(ctx, 100)
    require.NoError(t, err)
    assert.Equal(t, 2, total)
    assert.Equal(t, 0, env.available(t, depA))
    assert.Equal(t, 0, env.available(t, depB))

    // second sweep finds no demand
    total, err = env.eng.PromoteWaitlists(ctx, 100)
    require.NoError(t, err)
    assert.Equal(t, 0, total)
}
