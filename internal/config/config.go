package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses worker intervals and TTLs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in the
// application: strings for identifiers and secrets, durations for TTLs and
// worker cadences.
type Config struct {
    Env         string // application environment (e.g. "dev", "prod")
    Port        string // HTTP port to listen on
    StoreDriver string // persistence backend: "mysql" or "memory"
    DBUser      string // database username
    DBPass      string // database password (optional)
    DBHost      string // database host address
    DBPort      string // database port number
    DBName      string // database name
    JWTSecret   string // secret used to verify operator tokens

    IdempotencyTTL   time.Duration // retention window for idempotency records
    ExpiryInterval   time.Duration // hold-expiry worker cadence
    PromoteInterval  time.Duration // waitlist-promotion worker cadence
    SweepInterval    time.Duration // idempotency-sweep worker cadence
    WorkerBatchSize  int           // max rows handled per worker pass
    RabbitURL        string        // AMQP broker URL; empty disables events
    ConsumerEnabled  bool          // run the in-process event consumer
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The MySQL variables
// are only required when STORE_DRIVER is "mysql".
func Load() Config {
    cfg := Config{
        Env:             must("APP_ENV"),  // environment (dev/test/prod)
        Port:            must("APP_PORT"), // port to bind the HTTP server
        StoreDriver:     envStr("STORE_DRIVER", "mysql"),
        JWTSecret:       must("JWT_SECRET"), // secret for operator bearer tokens
        IdempotencyTTL:  envDur("IDEMPOTENCY_TTL", 24*time.Hour),
        ExpiryInterval:  envDur("HOLD_EXPIRY_INTERVAL", 60*time.Second),
        PromoteInterval: envDur("WAITLIST_PROMOTE_INTERVAL", 30*time.Second),
        SweepInterval:   envDur("IDEMPOTENCY_SWEEP_INTERVAL", time.Hour),
        WorkerBatchSize: envInt("WORKER_BATCH_SIZE", 100),
        RabbitURL:       os.Getenv("RABBITMQ_URL"),
        ConsumerEnabled: envBool("EVENT_CONSUMER_ENABLED", true),
    }
    if cfg.StoreDriver == "mysql" {
        cfg.DBUser = must("DB_USER")      // database user
        cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
        cfg.DBHost = must("DB_HOST")      // database host
        cfg.DBPort = must("DB_PORT")      // database port
        cfg.DBName = must("DB_NAME")      // database name
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
