package model

import "time"

// DocumentStatus is the document lifecycle state. Only the scan worker
// may enter or exit DocumentStatusProcessing; manual transitions must
// never target it.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusOpen       DocumentStatus = "open"
	DocumentStatusReview     DocumentStatus = "review"
	DocumentStatusDone       DocumentStatus = "done"
)

// PublicDocumentStatuses are the statuses a manual (API-initiated)
// transition may target. DocumentStatusProcessing is deliberately absent.
var PublicDocumentStatuses = []DocumentStatus{
	DocumentStatusOpen,
	DocumentStatusReview,
	DocumentStatusDone,
}

// IsPublicStatus reports whether s is a manually-targetable status.
func IsPublicStatus(s DocumentStatus) bool {
	for _, p := range PublicDocumentStatuses {
		if p == s {
			return true
		}
	}
	return false
}

// Document is one scannable file within a project's file tree.
type Document struct {
	ID         int64               `json:"id"`
	ProjectID  int64               `json:"project_id"`
	Path       string              `json:"path"`
	Status     DocumentStatus      `json:"status"`
	Data       *DocumentLabelData  `json:"data"`
	AssigneeID *int64              `json:"assignee_id"`
	ReviewerID *int64              `json:"reviewer_id"`
	Created    time.Time           `json:"created"`
	Updated    time.Time           `json:"updated"`
}

// DocumentListFilter carries the supported filter/sort/page parameters
// for listing a project's documents.
type DocumentListFilter struct {
	OrderBy string // id | created | updated
	Order   string // asc | desc
	Limit   int
	Offset  int
	Filter  string // substring match on path/status/id
}
