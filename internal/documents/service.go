package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"annotation-backend/internal/access"
	"annotation-backend/internal/annotations"
	"annotation-backend/internal/extract"
	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/storage/object"
	"annotation-backend/internal/shared/telemetry"
	"annotation-backend/internal/users"
)

var (
	ErrNotPermitted = fmt.Errorf("%w: document is assigned to another user", apperr.ErrForbidden)
	ErrAdminOnly    = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	ErrNoStore      = errors.New("object store not configured")
)

// AnnotationReader is the documents view of stored annotations.
type AnnotationReader interface {
	Get(ctx context.Context, documentID, annotatorID string) (annotations.Annotation, error)
	Counts(ctx context.Context, documentID string) (total int, completed int, err error)
}

// ExpertResolver validates that a user may hold an assignment.
type ExpertResolver interface {
	RequireExpert(ctx context.Context, userID string) (users.User, error)
}

// Searcher maintains a full-text index over documents.
type Searcher interface {
	Index(ctx context.Context, doc Document) error
	// Search returns matching document ids, best match first.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Service coordinates document creation, listing and lookup.
type Service struct {
	Repo        Repo
	Annotations AnnotationReader
	Users       ExpertResolver
	Store       object.ObjectStore
	SearchIndex Searcher
	PageLimit   int

	now func() time.Time
}

// Input carries the fields an admin supplies when creating or overwriting a document.
type Input struct {
	Title            string
	SourceContent    string
	GeneratedContent string
	AssignedTo       *string
}

// FilePart is one uploaded original.
type FilePart struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// ListItem pairs a document with the progress of all annotations on it.
type ListItem struct {
	Document         Document
	AnnotationStatus string
}

// Detail is a document plus the caller's own annotation, if any.
type Detail struct {
	Document   Document
	Annotation *annotations.Annotation
}

func (in Input) validate() error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	case utf8.RuneCountInString(title) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", apperr.ErrInvalidInput, maxTitleLength)
	case strings.TrimSpace(in.SourceContent) == "":
		return fmt.Errorf("%w: sourceContent is required", apperr.ErrInvalidInput)
	case strings.TrimSpace(in.GeneratedContent) == "":
		return fmt.Errorf("%w: generatedContent is required", apperr.ErrInvalidInput)
	}
	return nil
}

// Create stores a new document. Any status supplied by the client is ignored;
// documents always start pending.
func (s *Service) Create(ctx context.Context, actor access.Actor, in Input) (Document, error) {
	if !access.IsAdmin(actor) {
		return Document{}, ErrAdminOnly
	}
	return s.create(ctx, uuid.NewString(), in, nil, nil)
}

func (s *Service) create(ctx context.Context, id string, in Input, sourceKey, generatedKey *string) (Document, error) {
	if err := in.validate(); err != nil {
		return Document{}, err
	}
	assignedTo, err := s.resolveAssignee(ctx, in.AssignedTo)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:                 id,
		Title:              strings.TrimSpace(in.Title),
		SourceContent:      in.SourceContent,
		GeneratedContent:   in.GeneratedContent,
		Status:             annotations.StatusPending,
		WordCountSource:    CountWords(in.SourceContent),
		WordCountGenerated: CountWords(in.GeneratedContent),
		AssignedTo:         assignedTo,
		SourceObjectKey:    sourceKey,
		GeneratedObjectKey: generatedKey,
		CreatedAt:          s.clock(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	doc.UpdatedAt = doc.CreatedAt

	metrics.IncDocumentsCreated()
	telemetry.Info("document.created", map[string]any{
		"document_id":          doc.ID,
		"assigned_to":          stringOrEmpty(doc.AssignedTo),
		"word_count_source":    doc.WordCountSource,
		"word_count_generated": doc.WordCountGenerated,
	})
	s.indexOne(ctx, doc)
	return doc, nil
}

// Upload archives both originals, extracts their text and creates the document.
// Stored objects are removed again when the document cannot be created.
func (s *Service) Upload(ctx context.Context, actor access.Actor, title string, assignedTo *string, source, generated FilePart) (Document, error) {
	if !access.IsAdmin(actor) {
		return Document{}, ErrAdminOnly
	}
	if s.Store == nil {
		return Document{}, ErrNoStore
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if _, err := s.resolveAssignee(ctx, assignedTo); err != nil {
		return Document{}, err
	}

	id := uuid.NewString()
	sourceKey, sourceText, err := s.archive(ctx, id, object.PartSource, source)
	if err != nil {
		return Document{}, err
	}
	generatedKey, generatedText, err := s.archive(ctx, id, object.PartGenerated, generated)
	if err != nil {
		s.discard(ctx, id, sourceKey)
		return Document{}, err
	}

	doc, err := s.create(ctx, id, Input{
		Title:            title,
		SourceContent:    sourceText,
		GeneratedContent: generatedText,
		AssignedTo:       assignedTo,
	}, &sourceKey, &generatedKey)
	if err != nil {
		s.discard(ctx, id, sourceKey, generatedKey)
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) archive(ctx context.Context, documentID, part string, file FilePart) (string, string, error) {
	if file.Body == nil {
		return "", "", fmt.Errorf("%w: %s file is required", apperr.ErrInvalidInput, part)
	}
	key, err := object.DocumentKey(documentID, part, file.FileName)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	size, mimeType, err := s.Store.Put(ctx, key, file.ContentType, file.Body)
	if err != nil {
		s.discard(ctx, documentID, key)
		return "", "", fmt.Errorf("store %s: %w", part, err)
	}
	text, err := extract.Text(ctx, s.Store, key, mimeType, file.FileName)
	if err != nil {
		s.discard(ctx, documentID, key)
		return "", "", err
	}
	telemetry.Info("document.part_stored", map[string]any{
		"document_id": documentID,
		"part":        part,
		"key":         key,
		"size_bytes":  size,
		"mime_type":   mimeType,
	})
	return key, text, nil
}

// discard removes stored originals and their extracted copies.
func (s *Service) discard(ctx context.Context, documentID string, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		for _, k := range []string{key, extract.DerivedKey(key)} {
			if err := s.Store.Delete(ctx, k); err != nil {
				telemetry.Warn("document.part_cleanup_failed", map[string]any{
					"document_id": documentID,
					"key":         k,
					"error":       err.Error(),
				})
			}
		}
	}
}

// Overwrite replaces a document's title, contents and assignee in place. The
// id, annotations and derived status are kept.
func (s *Service) Overwrite(ctx context.Context, actor access.Actor, documentID string, in Input) (Document, error) {
	if !access.IsAdmin(actor) {
		return Document{}, ErrAdminOnly
	}
	if err := in.validate(); err != nil {
		return Document{}, err
	}
	doc, err := s.Repo.Get(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	assignedTo, err := s.resolveAssignee(ctx, in.AssignedTo)
	if err != nil {
		return Document{}, err
	}

	doc.Title = strings.TrimSpace(in.Title)
	doc.SourceContent = in.SourceContent
	doc.GeneratedContent = in.GeneratedContent
	doc.WordCountSource = CountWords(in.SourceContent)
	doc.WordCountGenerated = CountWords(in.GeneratedContent)
	doc.AssignedTo = assignedTo
	if err := s.Repo.UpdateContent(ctx, doc); err != nil {
		return Document{}, err
	}

	telemetry.Info("document.overwritten", map[string]any{
		"document_id": doc.ID,
		"assigned_to": stringOrEmpty(doc.AssignedTo),
	})
	s.indexOne(ctx, doc)
	return s.Repo.Get(ctx, documentID)
}

// FindByTitle returns the oldest document carrying the given title.
func (s *Service) FindByTitle(ctx context.Context, title string) (Document, error) {
	return s.Repo.GetByTitle(ctx, strings.TrimSpace(title))
}

// PageSize returns limit, or the configured default when limit is unset.
func (s *Service) PageSize(limit int) int {
	if limit <= 0 {
		limit = s.PageLimit
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return limit
}

// List returns the documents visible to the actor, each tagged with the
// annotation progress across all annotators.
func (s *Service) List(ctx context.Context, actor access.Actor, limit, offset int) ([]ListItem, error) {
	limit = s.PageSize(limit)
	if offset < 0 {
		offset = 0
	}

	filter := ListFilter{}
	if !access.IsAdmin(actor) {
		filter.VisibleTo = actor.UserID
	}
	docs, err := s.Repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.withAnnotationStatus(ctx, docs)
}

// Search runs a full-text query and drops hits the actor may not see. The
// index is asked for more hits until limit accessible documents are found.
func (s *Service) Search(ctx context.Context, actor access.Actor, query string, limit int) ([]ListItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", apperr.ErrInvalidInput)
	}
	if s.SearchIndex == nil {
		return []ListItem{}, nil
	}
	limit = s.PageSize(limit)

	docs := make([]Document, 0, limit)
	seen := make(map[string]bool)
	fetch := max(limit, min(limit*searchOverfetch, maxSearchFetch))
	for {
		ids, err := s.SearchIndex.Search(ctx, query, fetch)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if len(docs) == limit {
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			doc, err := s.Repo.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if !access.CanAccess(doc.AssignedTo, actor) {
				continue
			}
			docs = append(docs, doc)
		}
		if len(docs) == limit || len(ids) < fetch || fetch >= maxSearchFetch {
			break
		}
		fetch = min(fetch*2, maxSearchFetch)
	}
	return s.withAnnotationStatus(ctx, docs)
}

// Get returns a document the actor may access along with the actor's annotation.
func (s *Service) Get(ctx context.Context, actor access.Actor, documentID string) (Detail, error) {
	doc, err := s.Repo.Get(ctx, documentID)
	if err != nil {
		return Detail{}, err
	}
	if !access.CanAccess(doc.AssignedTo, actor) {
		return Detail{}, ErrNotPermitted
	}

	detail := Detail{Document: doc}
	if s.Annotations == nil {
		return detail, nil
	}
	own, err := s.Annotations.Get(ctx, documentID, actor.UserID)
	switch {
	case errors.Is(err, annotations.ErrNotFound):
	case err != nil:
		return Detail{}, err
	default:
		detail.Annotation = &own
	}
	return detail, nil
}

// ListAll returns every document regardless of visibility. Used by tooling.
func (s *Service) ListAll(ctx context.Context) ([]Document, error) {
	return s.Repo.ListAll(ctx)
}

// Reindex rebuilds the search index from the store.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.SearchIndex == nil {
		return 0, nil
	}
	docs, err := s.Repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		if err := s.SearchIndex.Index(ctx, doc); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

func (s *Service) withAnnotationStatus(ctx context.Context, docs []Document) ([]ListItem, error) {
	items := make([]ListItem, 0, len(docs))
	for _, doc := range docs {
		status := AnnotationUnannotated
		if s.Annotations != nil {
			total, completed, err := s.Annotations.Counts(ctx, doc.ID)
			if err != nil {
				return nil, err
			}
			status = annotationStatus(total, completed)
		}
		items = append(items, ListItem{Document: doc, AnnotationStatus: status})
	}
	return items, nil
}

func annotationStatus(total, completed int) string {
	switch {
	case total <= 0:
		return AnnotationUnannotated
	case completed >= total:
		return AnnotationAnnotated
	default:
		return AnnotationInProgress
	}
}

func (s *Service) resolveAssignee(ctx context.Context, assignedTo *string) (*string, error) {
	if assignedTo == nil || strings.TrimSpace(*assignedTo) == "" {
		return nil, nil
	}
	if s.Users == nil {
		return nil, fmt.Errorf("%w: target user not found", apperr.ErrInvalidInput)
	}
	user, err := s.Users.RequireExpert(ctx, *assignedTo)
	if err != nil {
		return nil, err
	}
	return &user.ID, nil
}

func (s *Service) indexOne(ctx context.Context, doc Document) {
	if s.SearchIndex == nil {
		return
	}
	if err := s.SearchIndex.Index(ctx, doc); err != nil {
		telemetry.Warn("search.index_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
