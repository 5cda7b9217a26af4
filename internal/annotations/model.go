package annotations

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"annotation-backend/internal/shared/apperr"
)

// Document aggregate statuses, derived from the annotation set.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Comment is a remark attached to a span of the generated text.
type Comment struct {
	Text      string `json:"text"`
	Selection string `json:"selection"`
}

// UnmarshalJSON accepts "range" as an alias for "selection". Non-string
// selections are kept as their raw JSON text.
func (c *Comment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string          `json:"text"`
		Selection json.RawMessage `json:"selection"`
		Range     json.RawMessage `json:"range"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Text = raw.Text
	sel := raw.Selection
	if isEmptyJSON(sel) {
		sel = raw.Range
	}
	c.Selection = selectionText(sel)
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == `""`
}

func selectionText(raw json.RawMessage) string {
	if isEmptyJSON(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Annotation is one annotator's judgment of one document.
type Annotation struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"documentId"`
	AnnotatorID string    `json:"annotatorId"`
	Evaluation  bool      `json:"evaluation"`
	Comments    []Comment `json:"comments"`
	TimeSpent   int       `json:"timeSpent"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is a single submission. TimeSpent is added to any previous total.
type Input struct {
	Evaluation  bool
	Comments    []Comment
	TimeSpent   int
	IsCompleted bool
}

// Validate checks the submission's own constraints.
func (in Input) Validate() error {
	if in.TimeSpent < 0 {
		return fmt.Errorf("%w: timeSpent must be >= 0", apperr.ErrInvalidInput)
	}
	for i, c := range in.Comments {
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: comments[%d].text is required", apperr.ErrInvalidInput, i)
		}
	}
	return nil
}

// DocumentRef is what the annotation flow needs to know about a document.
type DocumentRef struct {
	ID         string
	AssignedTo *string
	Status     string
}

func encodeComments(comments []Comment) (string, error) {
	if comments == nil {
		comments = []Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeComments(raw string) []Comment {
	out := []Comment{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []Comment{}
	}
	return out
}

func cloneComments(in []Comment) []Comment {
	out := make([]Comment, len(in))
	copy(out, in)
	return out
}
