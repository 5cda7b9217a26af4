package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, title, source_content, generated_content, status, word_count_source, word_count_generated, assigned_to, source_object_key, generated_object_key, created_at, updated_at`

const insertDocumentQuery = `
INSERT INTO documents (
    id,
    title,
    source_content,
    generated_content,
    status,
    word_count_source,
    word_count_generated,
    assigned_to,
    source_object_key,
    generated_object_key,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

const getDocumentQuery = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

const getDocumentByTitleQuery = `
SELECT ` + documentColumns + `
FROM documents
WHERE title = $1
ORDER BY created_at ASC, id ASC
LIMIT 1`

const listDocumentsQuery = `
SELECT ` + documentColumns + `
FROM documents
WHERE ($1 = '' OR assigned_to IS NULL OR assigned_to = $1)
ORDER BY created_at ASC, id ASC
LIMIT $2 OFFSET $3`

const listAllDocumentsQuery = `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at ASC, id ASC`

const updateContentQuery = `
UPDATE documents SET
    title = $2,
    source_content = $3,
    generated_content = $4,
    word_count_source = $5,
    word_count_generated = $6,
    source_object_key = $7,
    generated_object_key = $8,
    assigned_to = $9,
    updated_at = now()
WHERE id = $1`

const setAssigneeQuery = `UPDATE documents SET assigned_to = $2, updated_at = now() WHERE id = $1`

const claimQuery = `UPDATE documents SET assigned_to = $2, updated_at = now() WHERE id = $1 AND assigned_to IS NULL`

const existsQuery = `SELECT 1 FROM documents WHERE id = $1`

const setStatusQuery = `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.DB.ExecContext(
		ctx,
		insertDocumentQuery,
		doc.ID,
		doc.Title,
		doc.SourceContent,
		doc.GeneratedContent,
		doc.Status,
		doc.WordCountSource,
		doc.WordCountGenerated,
		nullString(doc.AssignedTo),
		nullString(doc.SourceObjectKey),
		nullString(doc.GeneratedObjectKey),
		doc.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, documentID string) (Document, error) {
	return scanDocument(r.DB.QueryRowContext(ctx, getDocumentQuery, documentID))
}

func (r *PGRepo) GetByTitle(ctx context.Context, title string) (Document, error) {
	return scanDocument(r.DB.QueryRowContext(ctx, getDocumentByTitleQuery, title))
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, listDocumentsQuery, filter.VisibleTo, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (r *PGRepo) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, listAllDocumentsQuery)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (r *PGRepo) UpdateContent(ctx context.Context, doc Document) error {
	res, err := r.DB.ExecContext(
		ctx,
		updateContentQuery,
		doc.ID,
		doc.Title,
		doc.SourceContent,
		doc.GeneratedContent,
		doc.WordCountSource,
		doc.WordCountGenerated,
		nullString(doc.SourceObjectKey),
		nullString(doc.GeneratedObjectKey),
		nullString(doc.AssignedTo),
	)
	return requireRow(res, err)
}

func (r *PGRepo) SetAssignee(ctx context.Context, documentID string, assignedTo *string) error {
	res, err := r.DB.ExecContext(ctx, setAssigneeQuery, documentID, nullString(assignedTo))
	return requireRow(res, err)
}

// ClaimIfUnassigned relies on the conditional update so that at most one
// concurrent claimant sees a row affected.
func (r *PGRepo) ClaimIfUnassigned(ctx context.Context, documentID, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, claimQuery, documentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var one int
	if err := r.DB.QueryRowContext(ctx, existsQuery, documentID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return false, nil
}

func (r *PGRepo) SetStatus(ctx context.Context, documentID, status string) error {
	res, err := r.DB.ExecContext(ctx, setStatusQuery, documentID, status)
	return requireRow(res, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var assignedTo sql.NullString
	var sourceKey sql.NullString
	var generatedKey sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.SourceContent,
		&doc.GeneratedContent,
		&doc.Status,
		&doc.WordCountSource,
		&doc.WordCountGenerated,
		&assignedTo,
		&sourceKey,
		&generatedKey,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if assignedTo.Valid {
		doc.AssignedTo = &assignedTo.String
	}
	if sourceKey.Valid {
		doc.SourceObjectKey = &sourceKey.String
	}
	if generatedKey.Valid {
		doc.GeneratedObjectKey = &generatedKey.String
	}
	return doc, nil
}

func collectDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()
	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
