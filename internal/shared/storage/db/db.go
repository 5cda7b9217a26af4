package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"annotation-backend/internal/shared/telemetry"
)

// ErrNoDatabaseURL is returned when a connection is requested without a DSN.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

// Runtime selects pool defaults for the kind of process opening the database.
type Runtime string

const (
	RuntimeServer Runtime = "server"
	RuntimeLambda Runtime = "lambda"
	RuntimeWorker Runtime = "worker"
	RuntimeCLI    Runtime = "cli"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var openDB = sql.Open

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// DetectRuntime picks lambda when running inside Lambda and fallback otherwise.
func DetectRuntime(fallback Runtime) Runtime {
	if IsLambdaRuntime() {
		return RuntimeLambda
	}
	return fallback
}

// Defaults returns pool settings for rt. Lambda keeps the pool tiny because
// every concurrent invocation holds its own pool; the importer and migrations
// run serially.
func Defaults(rt Runtime) Options {
	switch rt {
	case RuntimeLambda:
		return Options{
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 30 * time.Second,
			ConnMaxLifetime: 15 * time.Minute,
			PingTimeout:     3 * time.Second,
		}
	case RuntimeWorker:
		return Options{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxIdleTime: time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	case RuntimeCLI:
		return Options{
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 2 * time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	default:
		return Options{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 2 * time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	}
}

// OptionsFromEnv overrides defaults with DB_* env vars if present.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	if v, ok := readEnvInt("DB_MAX_OPEN_CONNS"); ok {
		opts.MaxOpenConns = v
	}
	if v, ok := readEnvInt("DB_MAX_IDLE_CONNS"); ok {
		opts.MaxIdleConns = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_LIFETIME"); ok {
		opts.ConnMaxLifetime = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		opts.ConnMaxIdleTime = v
	}
	if v, ok := readEnvDuration("DB_PING_TIMEOUT"); ok {
		opts.PingTimeout = v
	}
	return opts
}

// Open connects for the given runtime: Lambda shares one pool per execution
// environment, every other runtime gets its own.
func Open(ctx context.Context, databaseURL string, rt Runtime) (*sql.DB, error) {
	opts := OptionsFromEnv(Defaults(rt))
	if rt == RuntimeLambda {
		return GetSingleton(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a *sql.DB using the provided DATABASE_URL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}

	database, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(database, opts)

	if err := Ping(ctx, database, opts.PingTimeout); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logPoolStats(database, "init")
	return database, nil
}

// Ping checks connectivity within timeout (5s when unset).
func Ping(ctx context.Context, database *sql.DB, timeout time.Duration) error {
	if database == nil {
		return errors.New("database not configured")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return database.PingContext(pingCtx)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sharedPool is the process-wide handle used in Lambda. A failed connect
// leaves it empty so the next invocation retries.
type sharedPool struct {
	mu         sync.Mutex
	cond       *sync.Cond
	db         *sql.DB
	connecting bool
}

var pool = newSharedPool()

func newSharedPool() *sharedPool {
	p := &sharedPool{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// GetSingleton returns the shared *sql.DB, connecting on first use.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	return pool.get(ctx, databaseURL, opts)
}

func (p *sharedPool) get(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	p.mu.Lock()
	for p.connecting && p.db == nil {
		p.cond.Wait()
	}
	if p.db != nil {
		database := p.db
		p.mu.Unlock()
		telemetry.Info("db.singleton_reuse", nil)
		return database, nil
	}
	p.connecting = true
	p.mu.Unlock()

	database, err := Connect(ctx, databaseURL, opts)

	p.mu.Lock()
	if err == nil {
		p.db = database
	}
	p.connecting = false
	p.cond.Broadcast()
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	telemetry.Info("db.singleton_init", nil)
	return database, nil
}

func (p *sharedPool) reset() {
	p.mu.Lock()
	p.db = nil
	p.connecting = false
	p.mu.Unlock()
}

func applyOptions(database *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(database *sql.DB, label string) {
	stats := database.Stats()
	telemetry.Info("db.pool_stats", map[string]any{
		"label":    label,
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
		"wait":     stats.WaitCount,
		"max_open": stats.MaxOpenConnections,
	})
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return 0, false
	}
	return val, true
}
