package documents

import "time"

// Document is a pair of source material and generated text awaiting expert review.
// Status is derived from the document's annotations and never set by clients.
type Document struct {
	ID                 string
	Title              string
	SourceContent      string
	GeneratedContent   string
	Status             string
	WordCountSource    int
	WordCountGenerated int
	AssignedTo         *string
	SourceObjectKey    *string
	GeneratedObjectKey *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Annotation progress shown in listings, derived from every annotation on
// the document.
const (
	AnnotationUnannotated = "unannotated"
	AnnotationInProgress  = "in_progress"
	AnnotationAnnotated   = "annotated"
)

const maxTitleLength = 500

const (
	defaultPageLimit = 50

	// Search asks the index for this many hits per wanted result, doubling
	// up to maxSearchFetch while access filtering leaves the page short.
	searchOverfetch = 4
	maxSearchFetch  = 1000
)
