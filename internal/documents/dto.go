package documents

import (
	"time"

	"annotation-backend/internal/annotations"
)

type createRequest struct {
	Title            string  `json:"title"`
	SourceContent    string  `json:"sourceContent"`
	GeneratedContent string  `json:"generatedContent"`
	AssignedTo       *string `json:"assignedTo"`
}

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	SourceContent      string    `json:"sourceContent"`
	GeneratedContent   string    `json:"generatedContent"`
	Status             string    `json:"status"`
	WordCountSource    int       `json:"wordCountSource"`
	WordCountGenerated int       `json:"wordCountGenerated"`
	AssignedTo         *string   `json:"assignedTo"`
	SourceObjectKey    *string   `json:"sourceObjectKey,omitempty"`
	GeneratedObjectKey *string   `json:"generatedObjectKey,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type listItemResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Status             string    `json:"status"`
	WordCountSource    int       `json:"wordCountSource"`
	WordCountGenerated int       `json:"wordCountGenerated"`
	AssignedTo         *string   `json:"assignedTo"`
	AnnotationStatus   string    `json:"annotationStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

// detailResponse flattens the caller's annotation fields next to the document.
type detailResponse struct {
	DocumentResponse
	Evaluation  *bool                 `json:"evaluation"`
	Comments    []annotations.Comment `json:"comments"`
	TimeSpent   int                   `json:"timeSpent"`
	IsCompleted bool                  `json:"isCompleted"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:                 doc.ID,
		Title:              doc.Title,
		SourceContent:      doc.SourceContent,
		GeneratedContent:   doc.GeneratedContent,
		Status:             doc.Status,
		WordCountSource:    doc.WordCountSource,
		WordCountGenerated: doc.WordCountGenerated,
		AssignedTo:         doc.AssignedTo,
		SourceObjectKey:    doc.SourceObjectKey,
		GeneratedObjectKey: doc.GeneratedObjectKey,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

func toListResponse(items []ListItem) []listItemResponse {
	out := make([]listItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, listItemResponse{
			ID:                 item.Document.ID,
			Title:              item.Document.Title,
			Status:             item.Document.Status,
			WordCountSource:    item.Document.WordCountSource,
			WordCountGenerated: item.Document.WordCountGenerated,
			AssignedTo:         item.Document.AssignedTo,
			AnnotationStatus:   item.AnnotationStatus,
			CreatedAt:          item.Document.CreatedAt,
		})
	}
	return out
}

func toDetailResponse(d Detail) detailResponse {
	resp := detailResponse{
		DocumentResponse: toResponse(d.Document),
		Comments:         []annotations.Comment{},
	}
	if d.Annotation != nil {
		evaluation := d.Annotation.Evaluation
		resp.Evaluation = &evaluation
		if d.Annotation.Comments != nil {
			resp.Comments = d.Annotation.Comments
		}
		resp.TimeSpent = d.Annotation.TimeSpent
		resp.IsCompleted = d.Annotation.IsCompleted
	}
	return resp
}
