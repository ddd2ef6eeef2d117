// Package documentservice implements the Document Service: the CRUD and
// batch-mutation operations the HTTP façade calls, each one transactional
// at the storage layer and enforcing the document status state machine
// (no manual transition may target `processing`).
package documentservice

import (
	"context"
	"fmt"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/model"
)

// Store is the storage surface the Document Service needs. Satisfied by
// *storage.PostgresClient.
type Store interface {
	CreateProject(ctx context.Context, name string, cfg model.ProjectConfig) (int64, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ProjectStatusCounts(ctx context.Context, projectID int64) (model.ProjectStatusCounts, error)

	CreateDocument(ctx context.Context, projectID int64, path string) (int64, error)
	GetDocument(ctx context.Context, id int64) (*model.Document, error)
	ListProjectDocumentsFiltered(ctx context.Context, projectID int64, filter model.DocumentListFilter) ([]model.Document, error)
	UpdateDocumentData(ctx context.Context, documentID int64, data *model.DocumentLabelData) error
	BatchUpdateAssignee(ctx context.Context, ids []int64, userID *int64) error
	BatchUpdateReviewer(ctx context.Context, ids []int64, userID *int64) error
	BatchUpdateStatus(ctx context.Context, ids []int64, status model.DocumentStatus) error

	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	ListUsers(ctx context.Context) ([]model.UserList, error)
}

// Service implements every operation spec'd for the Document Service
// (plus the Project/User CRUD it shares a transaction boundary with).
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// --- Project ---------------------------------------------------------

func (s *Service) CreateProject(ctx context.Context, name string, cfg model.ProjectConfig) (int64, error) {
	if len(name) < 3 || len(name) > 50 {
		return 0, mrkrerrors.NewBadRequest("project name must be 3-50 characters")
	}
	for _, def := range cfg.LabelDefinitions {
		if def.Type == model.LabelDefinitionText && def.Target != model.LabelDefinitionTargetBlock {
			return 0, mrkrerrors.NewBadRequest("text label definitions must target block")
		}
	}
	return s.store.CreateProject(ctx, name, cfg)
}

func (s *Service) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return s.store.GetProject(ctx, id)
}

// ProjectListEntry pairs a project with its document status counts, the
// shape the project enumeration endpoint returns.
type ProjectListEntry struct {
	Project model.Project
	Counts  model.ProjectStatusCounts
}

func (s *Service) ListProjects(ctx context.Context) ([]ProjectListEntry, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ProjectListEntry, 0, len(projects))
	for _, p := range projects {
		counts, err := s.store.ProjectStatusCounts(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ProjectListEntry{Project: p, Counts: counts})
	}
	return entries, nil
}

// --- Document ----------------------------------------------------------

func (s *Service) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, projectID int64, filter model.DocumentListFilter) ([]model.Document, error) {
	return s.store.ListProjectDocumentsFiltered(ctx, projectID, filter)
}

// UpdateLabelData replaces a document's data wholesale without touching
// status, per the Document Service's `update_label_data` operation.
func (s *Service) UpdateLabelData(ctx context.Context, documentID int64, data *model.DocumentLabelData) error {
	return s.store.UpdateDocumentData(ctx, documentID, data)
}

// BatchUpdateAssignee reassigns a batch of documents; userID nil clears
// the assignee.
func (s *Service) BatchUpdateAssignee(ctx context.Context, ids []int64, userID *int64) error {
	if len(ids) == 0 {
		return mrkrerrors.NewBadRequest("ids must not be empty")
	}
	return s.store.BatchUpdateAssignee(ctx, ids, userID)
}

// BatchUpdateReviewer reassigns a batch of documents' reviewer; userID
// nil clears the reviewer.
func (s *Service) BatchUpdateReviewer(ctx context.Context, ids []int64, userID *int64) error {
	if len(ids) == 0 {
		return mrkrerrors.NewBadRequest("ids must not be empty")
	}
	return s.store.BatchUpdateReviewer(ctx, ids, userID)
}

// BatchUpdateStatus transitions a batch of documents to status. Manual
// transitions may never target `processing` — only the scan worker may
// enter or exit that status.
func (s *Service) BatchUpdateStatus(ctx context.Context, ids []int64, status model.DocumentStatus) error {
	if len(ids) == 0 {
		return mrkrerrors.NewBadRequest("ids must not be empty")
	}
	if !model.IsPublicStatus(status) {
		return mrkrerrors.NewBadRequest(fmt.Sprintf("status %q is not a valid manual transition target", status))
	}
	return s.store.BatchUpdateStatus(ctx, ids, status)
}

// --- User ---------------------------------------------------------------

func (s *Service) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	return s.store.CreateUser(ctx, username, email, passwordHash)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.UserList, error) {
	return s.store.ListUsers(ctx)
}
