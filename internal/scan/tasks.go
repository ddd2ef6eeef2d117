package scan

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names, mirroring teacher's BullMQ-compatible string task types.
const (
	TypeScanProject  = "scan:project"
	TypeScanDocument = "scan:document"
)

// ProjectPayload carries only the project id and the force flag — never
// the loaded entity — so a queued task stays a flat, serializable
// reference that is re-resolved against current database state when it
// runs.
type ProjectPayload struct {
	ProjectID int64 `json:"project_id"`
	Force     bool  `json:"force"`
}

// DocumentPayload carries only the document id and the force flag.
type DocumentPayload struct {
	DocumentID int64 `json:"document_id"`
	Force      bool  `json:"force"`
}

// NewScanProjectTask builds the asynq.Task for a project scan.
func NewScanProjectTask(projectID int64, force bool) (*asynq.Task, error) {
	payload, err := json.Marshal(ProjectPayload{ProjectID: projectID, Force: force})
	if err != nil {
		return nil, fmt.Errorf("marshal scan:project payload: %w", err)
	}
	return asynq.NewTask(TypeScanProject, payload), nil
}

// NewScanDocumentTask builds the asynq.Task for a document scan.
func NewScanDocumentTask(documentID int64, force bool) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentPayload{DocumentID: documentID, Force: force})
	if err != nil {
		return nil, fmt.Errorf("marshal scan:document payload: %w", err)
	}
	return asynq.NewTask(TypeScanDocument, payload), nil
}
