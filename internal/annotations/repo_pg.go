package annotations

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"annotation-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const annotationColumns = `id, document_id, annotator_id, evaluation, comments, time_spent, is_completed, created_at, updated_at`

const upsertAnnotationQuery = `
INSERT INTO annotations (id, document_id, annotator_id, evaluation, comments, time_spent, is_completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (document_id, annotator_id) DO UPDATE SET
  evaluation = EXCLUDED.evaluation,
  comments = EXCLUDED.comments,
  time_spent = annotations.time_spent + EXCLUDED.time_spent,
  is_completed = EXCLUDED.is_completed,
  updated_at = now()
RETURNING ` + annotationColumns

const lockDocumentQuery = `SELECT id, assigned_to, status FROM documents WHERE id = $1 FOR UPDATE`

const countAnnotationsQuery = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_completed)
FROM annotations
WHERE document_id = $1`

const updateDocumentStatusQuery = `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SubmitAndReconcile locks the document row, upserts the annotation and
// rewrites the document status before committing.
func (r *PGRepo) SubmitAndReconcile(ctx context.Context, documentID, annotatorID string, in Input, authorize func(DocumentRef) error) (Annotation, Transition, error) {
	var (
		annotation Annotation
		transition Transition
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var ref DocumentRef
		var assignedTo sql.NullString
		if err := tx.QueryRowContext(ctx, lockDocumentQuery, documentID).Scan(&ref.ID, &assignedTo, &ref.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDocumentNotFound
			}
			return err
		}
		if assignedTo.Valid {
			ref.AssignedTo = &assignedTo.String
		}
		if authorize != nil {
			if err := authorize(ref); err != nil {
				return err
			}
		}

		var err error
		annotation, err = upsert(ctx, tx, documentID, annotatorID, in)
		if err != nil {
			return err
		}
		total, completed, err := counts(ctx, tx, documentID)
		if err != nil {
			return err
		}
		status := DeriveStatus(total, completed)
		if _, err := tx.ExecContext(ctx, updateDocumentStatusQuery, documentID, status); err != nil {
			return err
		}
		transition = Transition{From: ref.Status, To: status}
		return nil
	})
	if err != nil {
		return Annotation{}, Transition{}, err
	}
	return annotation, transition, nil
}

// ReconcileLocked recounts a document's annotations and rewrites its status
// under the document row lock.
func (r *PGRepo) ReconcileLocked(ctx context.Context, documentID string) (string, error) {
	var status string
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var id, current string
		var assignedTo sql.NullString
		if err := tx.QueryRowContext(ctx, lockDocumentQuery, documentID).Scan(&id, &assignedTo, &current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		total, completed, err := counts(ctx, tx, documentID)
		if err != nil {
			return err
		}
		status = DeriveStatus(total, completed)
		_, err = tx.ExecContext(ctx, updateDocumentStatusQuery, documentID, status)
		return err
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *PGRepo) Upsert(ctx context.Context, documentID, annotatorID string, in Input) (Annotation, error) {
	return upsert(ctx, r.DB, documentID, annotatorID, in)
}

func (r *PGRepo) Get(ctx context.Context, documentID, annotatorID string) (Annotation, error) {
	const query = `SELECT ` + annotationColumns + ` FROM annotations WHERE document_id = $1 AND annotator_id = $2 LIMIT 1`
	return scanAnnotation(r.DB.QueryRowContext(ctx, query, documentID, annotatorID))
}

func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Annotation, error) {
	const query = `SELECT ` + annotationColumns + ` FROM annotations WHERE document_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, documentID)
}

func (r *PGRepo) ListByAnnotator(ctx context.Context, annotatorID string) ([]Annotation, error) {
	const query = `SELECT ` + annotationColumns + ` FROM annotations WHERE annotator_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, annotatorID)
}

func (r *PGRepo) ListAll(ctx context.Context) ([]Annotation, error) {
	const query = `SELECT ` + annotationColumns + ` FROM annotations ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *PGRepo) Counts(ctx context.Context, documentID string) (int, int, error) {
	return counts(ctx, r.DB, documentID)
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]Annotation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Annotation, 0)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func upsert(ctx context.Context, q queryRower, documentID, annotatorID string, in Input) (Annotation, error) {
	comments, err := encodeComments(in.Comments)
	if err != nil {
		return Annotation{}, err
	}
	return scanAnnotation(q.QueryRowContext(ctx, upsertAnnotationQuery,
		uuid.NewString(),
		documentID,
		annotatorID,
		in.Evaluation,
		comments,
		in.TimeSpent,
		in.IsCompleted,
	))
}

func counts(ctx context.Context, q queryRower, documentID string) (int, int, error) {
	var total, completed int
	if err := q.QueryRowContext(ctx, countAnnotationsQuery, documentID).Scan(&total, &completed); err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (Annotation, error) {
	var a Annotation
	var comments sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.DocumentID,
		&a.AnnotatorID,
		&a.Evaluation,
		&comments,
		&a.TimeSpent,
		&a.IsCompleted,
		&a.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Annotation{}, ErrNotFound
		}
		return Annotation{}, err
	}
	a.Comments = decodeComments(comments.String)
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	} else {
		a.UpdatedAt = a.CreatedAt
	}
	return a, nil
}

var (
	_ Repo         = (*PGRepo)(nil)
	_ TxSubmitter  = (*PGRepo)(nil)
	_ TxReconciler = (*PGRepo)(nil)
)
