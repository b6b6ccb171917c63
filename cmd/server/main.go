package main // Entry point package

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/voyagekit/tour-reservation/internal/config"
    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/handler"
    "github.com/voyagekit/tour-reservation/internal/queue"
    "github.com/voyagekit/tour-reservation/internal/router"
    "github.com/voyagekit/tour-reservation/internal/store"
    "github.com/voyagekit/tour-reservation/internal/store/memory"
    "github.com/voyagekit/tour-reservation/internal/store/mysql"
    "github.com/voyagekit/tour-reservation/internal/worker"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    st, cleanup, err := openStore(cfg)
    if err != nil {
        log.Fatalf("store init failed: %v", err)
    }
    defer cleanup()

    // Events are best effort; without a broker URL the engine runs silent.
    var events engine.Events
    if cfg.RabbitURL != "" {
        events = queue.NewPublisher(cfg.RabbitURL)
        if cfg.ConsumerEnabled {
            go func() {
                if err := queue.StartConsumer(cfg.RabbitURL); err != nil {
                    log.Printf("event consumer stopped: %v", err)
                }
            }()
        }
    }

    eng := engine.New(st, engine.RealClock{}, events)
    idem := engine.NewIdempotency(st, engine.RealClock{}, cfg.IdempotencyTTL)

    workers := worker.NewManager(
        worker.HoldExpiry(eng, cfg.ExpiryInterval, cfg.WorkerBatchSize),
        worker.WaitlistPromotion(eng, cfg.PromoteInterval, cfg.WorkerBatchSize),
        worker.IdempotencySweep(idem, cfg.SweepInterval, cfg.WorkerBatchSize),
    )
    workers.Start(context.Background())
    defer workers.Stop()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable, rate limiting disabled")
    }
    router.Register(e, handler.New(eng, idem), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s store=%s)", addr, cfg.Env, cfg.StoreDriver)

    go func() {
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server failed: %v", err)
        }
    }()

    // Graceful shutdown: drain HTTP first, workers stop via the deferred
    // manager after in-flight batches finish.
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
    <-quit
    log.Printf("shutting down")
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(ctx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}

// openStore selects the persistence backend.  MySQL is the production
// default; the memory store serves tests and single-node demos.
func openStore(cfg config.Config) (store.Store, func(), error) {
    switch cfg.StoreDriver {
    case "memory":
        return memory.New(), func() {}, nil
    default:
        db, err := mysql.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            return nil, nil, err
        }
        ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
        defer cancel()
        if err := mysql.Migrate(ctx, db); err != nil {
            db.Close()
            return nil, nil, err
        }
        return mysql.New(db), func() { db.Close() }, nil
    }
}
