package annotations

import "time"

type submitRequest struct {
	Evaluation  *bool     `json:"evaluation"`
	Comments    []Comment `json:"comments"`
	TimeSpent   int       `json:"timeSpent"`
	IsCompleted bool      `json:"isCompleted"`
}

type submitResponse struct {
	Message      string `json:"message"`
	AnnotationID string `json:"annotationId"`
}

// ownAnnotationResponse is returned for the caller's own annotation. Evaluation
// is null and comments empty when nothing was submitted yet.
type ownAnnotationResponse struct {
	ID          string     `json:"id,omitempty"`
	Evaluation  *bool      `json:"evaluation"`
	Comments    []Comment  `json:"comments"`
	TimeSpent   int        `json:"timeSpent"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func toOwnResponse(a Annotation, found bool) ownAnnotationResponse {
	if !found {
		return ownAnnotationResponse{Comments: []Comment{}}
	}
	evaluation := a.Evaluation
	created, updated := a.CreatedAt, a.UpdatedAt
	comments := a.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return ownAnnotationResponse{
		ID:          a.ID,
		Evaluation:  &evaluation,
		Comments:    comments,
		TimeSpent:   a.TimeSpent,
		IsCompleted: a.IsCompleted,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}
