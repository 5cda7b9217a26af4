package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"annotation-backend/internal/shared/telemetry"
)

// withMockOpen routes openDB to fresh sqlmock connections.
func withMockOpen(t *testing.T, fail func(call int32) bool) *int32 {
	t.Helper()
	restoreLog := telemetry.SetOutput(io.Discard)
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		n := atomic.AddInt32(&calls, 1)
		if fail != nil && fail(n) {
			return nil, driver.ErrBadConn
		}
		database, _, err := sqlmock.New()
		return database, err
	}
	pool.reset()
	t.Cleanup(func() {
		openDB = prev
		pool.reset()
		restoreLog()
	})
	return &calls
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	calls := withMockOpen(t, nil)

	db1, err := GetSingleton(context.Background(), "ignored", Defaults(RuntimeLambda))
	if err != nil {
		t.Fatalf("GetSingleton first: %v", err)
	}
	db2, err := GetSingleton(context.Background(), "ignored", Defaults(RuntimeLambda))
	if err != nil {
		t.Fatalf("GetSingleton second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected singleton pointers to match")
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected one open, got %d", *calls)
	}
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	withMockOpen(t, func(call int32) bool { return call == 1 })

	if _, err := GetSingleton(context.Background(), "ignored", Defaults(RuntimeLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	database, err := GetSingleton(context.Background(), "ignored", Defaults(RuntimeLambda))
	if err != nil || database == nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), " ", Defaults(RuntimeServer)); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	withMockOpen(t, nil)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(Defaults(RuntimeServer))
	database, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	if got := database.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if opts.MaxIdleConns != 3 || opts.ConnMaxLifetime != 20*time.Minute ||
		opts.ConnMaxIdleTime != 45*time.Second || opts.PingTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestDefaultsPerRuntime(t *testing.T) {
	if Defaults(RuntimeLambda).MaxOpenConns >= Defaults(RuntimeServer).MaxOpenConns {
		t.Fatalf("lambda pool should be smaller than the server pool")
	}
	if Defaults(RuntimeCLI).MaxOpenConns != 1 {
		t.Fatalf("cli runs serially")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if DetectRuntime(RuntimeWorker) != RuntimeWorker {
		t.Fatalf("expected fallback outside lambda")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "annotation-api")
	if DetectRuntime(RuntimeServer) != RuntimeLambda {
		t.Fatalf("expected lambda runtime")
	}
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE documents SET status = 'pending'")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}

	boom := errors.New("boom")
	if err := WithTx(context.Background(), database, func(tx *sql.Tx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
