package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var documentRowColumns = []string{
	"id", "title", "source_content", "generated_content", "status",
	"word_count_source", "word_count_generated", "assigned_to",
	"source_object_key", "generated_object_key", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGClaimIfUnassignedWins(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(claimQuery)).
		WithArgs("doc-1", "expert-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ClaimIfUnassigned(context.Background(), "doc-1", "expert-a")
	if err != nil || !ok {
		t.Fatalf("expected claim to win, got %v, %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGClaimIfUnassignedLosesToExistingAssignee(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(claimQuery)).
		WithArgs("doc-1", "expert-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := repo.ClaimIfUnassigned(context.Background(), "doc-1", "expert-b")
	if err != nil || ok {
		t.Fatalf("expected lost claim without error, got %v, %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGClaimIfUnassignedMissingDocument(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(claimQuery)).
		WithArgs("missing", "expert-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	if _, err := repo.ClaimIfUnassigned(context.Background(), "missing", "expert-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGGetScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(getDocumentQuery)).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "T", "src", "gen", "pending", 1, 1, "expert-a", nil, "documents/doc-1/generated_g.pdf", now, now))

	doc, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.AssignedTo == nil || *doc.AssignedTo != "expert-a" {
		t.Fatalf("expected assignee expert-a, got %+v", doc.AssignedTo)
	}
	if doc.SourceObjectKey != nil || doc.GeneratedObjectKey == nil {
		t.Fatalf("unexpected object keys %+v %+v", doc.SourceObjectKey, doc.GeneratedObjectKey)
	}
}

func TestPGGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(getDocumentQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGListPassesVisibilityFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(listDocumentsQuery)).
		WithArgs("expert-a", 10, 0).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "T", "src", "gen", "pending", 1, 1, nil, nil, nil, now, now))

	docs, err := repo.List(context.Background(), ListFilter{VisibleTo: "expert-a"}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].AssignedTo != nil {
		t.Fatalf("unexpected docs %+v", docs)
	}
}

func TestPGSetAssigneeClearsWithNull(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(setAssigneeQuery)).
		WithArgs("doc-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetAssignee(context.Background(), "doc-1", nil); err != nil {
		t.Fatalf("SetAssignee: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGSetStatusMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(setStatusQuery)).
		WithArgs("missing", "completed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetStatus(context.Background(), "missing", "completed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
