// Package importer loads documents in bulk from JSON or YAML files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"annotation-backend/internal/access"
	"annotation-backend/internal/annotations"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/shared/telemetry"
)

const maxTitleLength = 500

// Record is one document as it appears in an import file.
type Record struct {
	Title            string  `json:"title" yaml:"title"`
	SourceContent    string  `json:"sourceContent" yaml:"sourceContent"`
	GeneratedContent string  `json:"generatedContent" yaml:"generatedContent"`
	Status           string  `json:"status,omitempty" yaml:"status,omitempty"`
	AssignedTo       *string `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
}

// Problem describes why a record cannot be imported.
type Problem struct {
	Index   int
	Title   string
	Message string
}

func (p Problem) String() string {
	if p.Title == "" {
		return fmt.Sprintf("record %d: %s", p.Index+1, p.Message)
	}
	return fmt.Sprintf("record %d (%s): %s", p.Index+1, p.Title, p.Message)
}

// Summary counts the outcome of an import run.
type Summary struct {
	Created     int
	Overwritten int
	Skipped     int
	Failed      int
}

// Parse decodes a file holding either a single document or a list of them.
// JSON input is accepted as a subset of YAML.
func Parse(data []byte) ([]Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.New("import file is empty")
	}
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var records []Record
		if err := doc.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
		return records, nil
	case yaml.MappingNode:
		var record Record
		if err := doc.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		return []Record{record}, nil
	default:
		return nil, errors.New("import file must contain a document or a list of documents")
	}
}

// Validate checks every record and returns the problems found.
func Validate(records []Record) []Problem {
	var problems []Problem
	for i, r := range records {
		if msg := validateRecord(r); msg != "" {
			problems = append(problems, Problem{Index: i, Title: strings.TrimSpace(r.Title), Message: msg})
		}
	}
	return problems
}

func validateRecord(r Record) string {
	title := strings.TrimSpace(r.Title)
	switch {
	case title == "":
		return "title is required"
	case utf8.RuneCountInString(title) > maxTitleLength:
		return fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	case strings.TrimSpace(r.SourceContent) == "":
		return "sourceContent is required"
	case strings.TrimSpace(r.GeneratedContent) == "":
		return "generatedContent is required"
	}
	switch r.Status {
	case "", annotations.StatusPending, annotations.StatusInProgress, annotations.StatusCompleted:
	default:
		return fmt.Sprintf("invalid status %q", r.Status)
	}
	return ""
}

// Importer writes validated records through the documents service.
type Importer struct {
	Documents *documents.Service
	Users     documents.ExpertResolver
	Actor     access.Actor
	Overwrite bool
}

// Run imports records in order. Invalid records are counted as failures and
// do not stop the run. A status carried by a record is ignored because a
// document's status is always derived from its annotations.
func (im *Importer) Run(ctx context.Context, records []Record) (Summary, error) {
	if im == nil || im.Documents == nil {
		return Summary{}, errors.New("importer not configured")
	}
	var sum Summary
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if msg := validateRecord(r); msg != "" {
			telemetry.Warn("import.invalid", map[string]any{"index": i, "title": r.Title, "reason": msg})
			sum.Failed++
			continue
		}

		in := documents.Input{
			Title:            strings.TrimSpace(r.Title),
			SourceContent:    r.SourceContent,
			GeneratedContent: r.GeneratedContent,
			AssignedTo:       im.assignee(ctx, r),
		}

		existing, err := im.Documents.FindByTitle(ctx, in.Title)
		switch {
		case err == nil && !im.Overwrite:
			telemetry.Info("import.skipped_duplicate", map[string]any{"title": in.Title, "document_id": existing.ID})
			sum.Skipped++
		case err == nil:
			if _, err := im.Documents.Overwrite(ctx, im.Actor, existing.ID, in); err != nil {
				telemetry.Error("import.overwrite_failed", map[string]any{"title": in.Title, "error": err.Error()})
				sum.Failed++
				continue
			}
			sum.Overwritten++
		case errors.Is(err, documents.ErrNotFound):
			if _, err := im.Documents.Create(ctx, im.Actor, in); err != nil {
				telemetry.Error("import.create_failed", map[string]any{"title": in.Title, "error": err.Error()})
				sum.Failed++
				continue
			}
			sum.Created++
		default:
			return sum, err
		}
	}
	telemetry.Info("import.finished", map[string]any{
		"created":     sum.Created,
		"overwritten": sum.Overwritten,
		"skipped":     sum.Skipped,
		"failed":      sum.Failed,
	})
	return sum, nil
}

// assignee keeps the record's assignee only when it names an existing expert.
func (im *Importer) assignee(ctx context.Context, r Record) *string {
	if r.AssignedTo == nil || strings.TrimSpace(*r.AssignedTo) == "" {
		return nil
	}
	if im.Users == nil {
		return nil
	}
	id := strings.TrimSpace(*r.AssignedTo)
	if _, err := im.Users.RequireExpert(ctx, id); err != nil {
		telemetry.Warn("import.assignee_dropped", map[string]any{
			"title":       r.Title,
			"assigned_to": id,
			"reason":      err.Error(),
		})
		return nil
	}
	return &id
}

// Sample returns example records used by the create-sample flag.
func Sample() []Record {
	return []Record{
		{
			Title:            "示例文档一",
			SourceContent:    "这是原始文本内容，用于评估生成质量。",
			GeneratedContent: "这是模型生成的文本内容。",
		},
		{
			Title:            "Sample document two",
			SourceContent:    "The quick brown fox jumps over the lazy dog.",
			GeneratedContent: "A fast brown fox leaps over a sleepy dog.",
			Status:           annotations.StatusPending,
		},
	}
}

// MarshalSample renders Sample as YAML.
func MarshalSample() ([]byte, error) {
	return yaml.Marshal(Sample())
}
