// Package worker runs the background sweeps: hold expiry, waitlist
// promotion and idempotency record eviction.  Each worker is a cooperative
// loop that processes one bounded batch per interval and checks for
// cancellation between batches.  No locks are ever held across a sleep; all
// locking lives inside the engine's per-batch transactions.
package worker

import (
    "context"
    "log"
    "sync"
    "time"
)

// Func processes one batch.  It must honor ctx cancellation and must own
// its transactions; a returned error is logged and retried next interval.
type Func func(ctx context.Context) error

// Worker is a named periodic task.
type Worker struct {
    name     string
    interval time.Duration
    run      Func
}

// New builds a worker running fn every interval.
func New(name string, interval time.Duration, fn Func) *Worker {
    return &Worker{name: name, interval: interval, run: fn}
}

// Run executes the loop until ctx is cancelled.  A panic in a batch is
// recovered and treated as a batch error so one bad sweep cannot take the
// process down.
func (w *Worker) Run(ctx context.Context) {
    log.Printf("worker %s started interval=%s", w.name, w.interval)
    ticker := time.NewTicker(w.interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            log.Printf("worker %s stopped", w.name)
            return
        case <-ticker.C:
            w.runBatch(ctx)
        }
    }
}

func (w *Worker) runBatch(ctx context.Context) {
    defer func() {
        if r := recover(); r != nil {
            log.Printf("worker %s panic recovered: %v", w.name, r)
        }
    }()
    start := time.Now()
    if err := w.run(ctx); err != nil {
        if ctx.Err() != nil {
            return
        }
        log.Printf("worker %s batch failed: %v", w.name, err)
        return
    }
    if d := time.Since(start); d > w.interval/2 {
        log.Printf("worker %s slow batch duration=%s", w.name, d)
    }
}

// Manager starts a set of workers and stops them together.
type Manager struct {
    workers []*Worker
    cancel  context.CancelFunc
    wg      sync.WaitGroup
}

// NewManager collects workers to run.
func NewManager(workers ...*Worker) *Manager {
    return &Manager{workers: workers}
}

// Start launches every worker in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
    ctx, m.cancel = context.WithCancel(ctx)
    for _, w := range m.workers {
        m.wg.Add(1)
        go func(w *Worker) {
            defer m.wg.Done()
            w.Run(ctx)
        }(w)
    }
}

// Stop cancels all workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
    if m.cancel != nil {
        m.cancel()
    }
    m.wg.Wait()
}
