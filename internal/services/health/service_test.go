package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if got["ok"] != true || got["database"] != "memory" {
		t.Fatalf("unexpected status %v", got)
	}
}

func TestStatusPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	if got := NewService(db).Status(context.Background()); got["database"] != "up" {
		t.Fatalf("expected database up, got %v", got)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	got := NewService(db).Status(context.Background())
	if got["ok"] != true || got["database"] != "unreachable" {
		t.Fatalf("expected ok with unreachable database, got %v", got)
	}
}
