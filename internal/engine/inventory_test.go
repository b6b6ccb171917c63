package engine_test

import (
    "context"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

func adjustParams(departureID uuid.UUID, delta int, reason string) engine.AdjustInventoryParams {
    return engine.AdjustInventoryParams{
        DepartureID: departureID,
        Delta:       delta,
        Reason:      reason,
        Actor:       "ops@voyagekit",
    }
}

func TestAdjustInventoryIncrease(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    _, err := env.eng.CreateHold(ctx, holdParams(depID, 3))
    require.NoError(t, err)

    adj, err := env.eng.AdjustInventory(ctx, adjustParams(depID, 5, "extra bus"))
    require.NoError(t, err)

    assert.Equal(t, 10, adj.TotalBefore)
    assert.Equal(t, 15, adj.TotalAfter)
    assert.Equal(t, 7, adj.AvailableBefore)
    assert.Equal(t, 12, adj.AvailableAfter)
    assert.Equal(t, "ops@voyagekit", adj.Actor)

    d, err := env.eng.GetDeparture(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 15, d.CapacityTotal)
    assert.Equal(t, 12, d.CapacityAvailable)
}

// Shrinking below committed seats is refused outright: no partial clamp, no
// audit row, capacity untouched.
func TestAdjustInventoryRefusesCuttingCommittedSeats(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 8))
    require.NoError(t, err)
    _, err = env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)
    require.Equal(t, 2, env.available(t, depID))

    _, err = env.eng.AdjustInventory(ctx, adjustParams(depID, -5, "smaller boat"))
    require.Error(t, err)
    prob := problem.From(err)
    assert.Equal(t, 409, prob.Status)
    assert.Equal(t, problem.CodeCapacityConflict, prob.Code)

    d, err := env.eng.GetDeparture(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 10, d.CapacityTotal)
    assert.Equal(t, 2, d.CapacityAvailable)
}

func TestAdjustInventoryReduceWithinFree(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    _, err := env.eng.CreateHold(ctx, holdParams(depID, 8))
    require.NoError(t, err)

    adj, err := env.eng.AdjustInventory(ctx, adjustParams(depID, -2, "trim"))
    require.NoError(t, err)
    assert.Equal(t, 8, adj.TotalAfter)
    assert.Equal(t, 0, adj.AvailableAfter)
}

func TestAdjustInventoryNegativeTotalRefused(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 3)

    _, err := env.eng.AdjustInventory(context.Background(), adjustParams(depID, -4, "oops"))
    require.Error(t, err)
    assert.Equal(t, problem.CodeCapacityConflict, problem.From(err).Code)
}

func TestAdjustInventoryValidation(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 3)
    ctx := context.Background()

    _, err := env.eng.AdjustInventory(ctx, adjustParams(depID, 0, "noop"))
    require.Error(t, err)
    assert.Equal(t, 422, problem.From(err).Status)

    _, err = env.eng.AdjustInventory(ctx, adjustParams(depID, 1, ""))
    require.Error(t, err)
    assert.Equal(t, 422, problem.From(err).Status)

    _, err = env.eng.AdjustInventory(ctx, adjustParams(uuid.New(), 1, "ghost"))
    require.Error(t, err)
    assert.Equal(t, 404, problem.From(err).Status)
}

func TestAdjustInventoryDefaultActor(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 3)

    p := adjustParams(depID, 1, "top up")
    p.Actor = ""
    adj, err := env.eng.AdjustInventory(context.Background(), p)
    require.NoError(t, err)
    assert.Equal(t, "system", adj.Actor)
}
