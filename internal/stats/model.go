package stats

import "time"

// Rows returned by a Store. Counts are raw; the aggregator derives rates.

type DocumentCounts struct {
	Total      int
	Annotated  int
	Pending    int
	InProgress int
	Completed  int
}

type AnnotationTotals struct {
	Total              int
	Positive           int
	Completed          int
	CompletedPositive  int
	InProgress         int
	InProgressPositive int
	TimeSpentSeconds   int
}

// AnnotationFilter narrows AnnotationTotals. Zero values mean no restriction.
type AnnotationFilter struct {
	AnnotatorID string
	Since       time.Time
}

type AssignmentCounts struct {
	AssignedToUser int
	Unassigned     int
}

type Expert struct {
	ID       string
	Username string
	FullName string
}

type DailyRow struct {
	Date     string // YYYY-MM-DD, UTC
	Count    int
	Positive int
}

type ActivityRow struct {
	UserID           string
	Username         string
	FullName         string
	Annotations      int
	Completed        int
	Positive         int
	TimeSpentSeconds int
}

type DocumentRow struct {
	DocumentID  string
	Title       string
	Status      string
	Annotations int
	Annotators  int
}

// Results returned by the aggregator.

type StatusDistribution struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

type Overview struct {
	TotalDocuments      int                `json:"totalDocuments"`
	AnnotatedDocuments  int                `json:"annotatedDocuments"`
	TotalAnnotations    int                `json:"totalAnnotations"`
	PositiveAnnotations int                `json:"positiveAnnotations"`
	PositiveRate        float64            `json:"positiveRate"`
	CompletionRate      float64            `json:"completionRate"`
	StatusDistribution  StatusDistribution `json:"statusDistribution"`
}

type UserStats struct {
	UserID               string  `json:"userId"`
	Username             string  `json:"username,omitempty"`
	FullName             string  `json:"fullName,omitempty"`
	CompletedAnnotations int     `json:"completedAnnotations"`
	TotalAnnotations     int     `json:"totalAnnotations"`
	PositiveRate         float64 `json:"positiveRate"`
	TotalTimeSeconds     int     `json:"totalTimeSeconds"`
	TotalTimeMinutes     float64 `json:"totalTimeMinutes"`
	AssignedToMe         int     `json:"assignedToMe"`
	AvailableForClaim    int     `json:"availableForClaim"`
}

type DailyStat struct {
	Date         string  `json:"date"`
	Count        int     `json:"count"`
	Positive     int     `json:"positive"`
	ApprovalRate float64 `json:"approvalRate"`
}

type UserActivity struct {
	UserID             string  `json:"userId"`
	Username           string  `json:"username"`
	FullName           string  `json:"fullName"`
	AnnotationCount    int     `json:"annotationCount"`
	CompletedCount     int     `json:"completedCount"`
	ApprovalRate       float64 `json:"approvalRate"`
	TotalTimeSeconds   int     `json:"totalTimeSeconds"`
	AverageTimeSeconds float64 `json:"averageTimeSeconds"`
}

type DocumentCompletion struct {
	DocumentID      string `json:"documentId"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	AnnotationCount int    `json:"annotationCount"`
	AnnotatorCount  int    `json:"annotatorCount"`
}

type CompletionReport struct {
	Documents      []DocumentCompletion `json:"documents"`
	CompletionRate float64              `json:"completionRate"`
}

type ApprovalAnalysis struct {
	Days                   *int    `json:"days"`
	Total                  int     `json:"total"`
	Positive               int     `json:"positive"`
	Negative               int     `json:"negative"`
	ApprovalRate           float64 `json:"approvalRate"`
	CompletedApprovalRate  float64 `json:"completedApprovalRate"`
	InProgressApprovalRate float64 `json:"inProgressApprovalRate"`
}
