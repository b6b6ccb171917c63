package worker

import (
    "context"
    "errors"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestWorkerRunsBatchesUntilCancelled(t *testing.T) {
    var runs int64
    w := New("counter", 5*time.Millisecond, func(ctx context.Context) error {
        atomic.AddInt64(&runs, 1)
        return nil
    })

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        w.Run(ctx)
        close(done)
    }()

    assert.Eventually(t, func() bool { return atomic.LoadInt64(&runs) >= 3 },
        time.Second, time.Millisecond)
    cancel()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("worker did not stop after cancellation")
    }
}

func TestWorkerSurvivesBatchErrorsAndPanics(t *testing.T) {
    var runs int64
    w := New("flaky", 5*time.Millisecond, func(ctx context.Context) error {
        n := atomic.AddInt64(&runs, 1)
        switch n {
        case 1:
            return errors.New("transient")
        case 2:
            panic("boom")
        }
        return nil
    })

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go w.Run(ctx)

    // the loop keeps ticking past both the error and the panic
    assert.Eventually(t, func() bool { return atomic.LoadInt64(&runs) >= 4 },
        time.Second, time.Millisecond)
}

func TestManagerStartStop(t *testing.T) {
    var a, b int64
    m := NewManager(
        New("a", 5*time.Millisecond, func(ctx context.Context) error {
            atomic.AddInt64(&a, 1)
            return nil
        }),
        New("b", 5*time.Millisecond, func(ctx context.Context) error {
            atomic.AddInt64(&b, 1)
            return nil
        }),
    )
    m.Start(context.Background())
    assert.Eventually(t, func() bool {
        return atomic.LoadInt64(&a) >= 1 && atomic.LoadInt64(&b) >= 1
    }, time.Second, time.Millisecond)

    m.Stop()
    ra, rb := atomic.LoadInt64(&a), atomic.LoadInt64(&b)
    time.Sleep(20 * time.Millisecond)
    assert.Equal(t, ra, atomic.LoadInt64(&a))
    assert.Equal(t, rb, atomic.LoadInt64(&b))
}
