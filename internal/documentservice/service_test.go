package documentservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/mrkr-core/internal/model"
)

type fakeStore struct {
	projects         map[int64]*model.Project
	documents        map[int64]*model.Document
	batchStatusCalls []model.DocumentStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:  map[int64]*model.Project{},
		documents: map[int64]*model.Document{},
	}
}

func (s *fakeStore) CreateProject(ctx context.Context, name string, cfg model.ProjectConfig) (int64, error) {
	return 1, nil
}
func (s *fakeStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return s.projects[id], nil
}
func (s *fakeStore) ListProjects(ctx context.Context) ([]model.Project, error) { return nil, nil }
func (s *fakeStore) ProjectStatusCounts(ctx context.Context, projectID int64) (model.ProjectStatusCounts, error) {
	return model.ProjectStatusCounts{}, nil
}
func (s *fakeStore) CreateDocument(ctx context.Context, projectID int64, path string) (int64, error) {
	return 1, nil
}
func (s *fakeStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	return s.documents[id], nil
}
func (s *fakeStore) ListProjectDocumentsFiltered(ctx context.Context, projectID int64, filter model.DocumentListFilter) ([]model.Document, error) {
	return nil, nil
}
func (s *fakeStore) UpdateDocumentData(ctx context.Context, documentID int64, data *model.DocumentLabelData) error {
	return nil
}
func (s *fakeStore) BatchUpdateAssignee(ctx context.Context, ids []int64, userID *int64) error {
	return nil
}
func (s *fakeStore) BatchUpdateReviewer(ctx context.Context, ids []int64, userID *int64) error {
	return nil
}
func (s *fakeStore) BatchUpdateStatus(ctx context.Context, ids []int64, status model.DocumentStatus) error {
	s.batchStatusCalls = append(s.batchStatusCalls, status)
	return nil
}
func (s *fakeStore) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	return 1, nil
}
func (s *fakeStore) ListUsers(ctx context.Context) ([]model.UserList, error) { return nil, nil }

func TestBatchUpdateStatus_RejectsProcessing(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	err := svc.BatchUpdateStatus(context.Background(), []int64{1, 2}, model.DocumentStatusProcessing)
	require.Error(t, err)
	assert.Empty(t, store.batchStatusCalls)
}

func TestBatchUpdateStatus_AcceptsPublicStatuses(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	for _, status := range model.PublicDocumentStatuses {
		err := svc.BatchUpdateStatus(context.Background(), []int64{1}, status)
		require.NoError(t, err)
	}
	assert.Len(t, store.batchStatusCalls, len(model.PublicDocumentStatuses))
}

func TestBatchUpdateStatus_RejectsEmptyIDs(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	err := svc.BatchUpdateStatus(context.Background(), nil, model.DocumentStatusOpen)
	require.Error(t, err)
}

func TestCreateProject_RejectsShortName(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	_, err := svc.CreateProject(context.Background(), "ab", model.ProjectConfig{})
	require.Error(t, err)
}

func TestCreateProject_RejectsTextLabelOutsideBlockTarget(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	cfg := model.ProjectConfig{
		LabelDefinitions: []model.LabelDefinition{
			{Type: model.LabelDefinitionText, Target: model.LabelDefinitionTargetPage, Name: "Note"},
		},
	}

	_, err := svc.CreateProject(context.Background(), "a valid project", cfg)
	require.Error(t, err)
}
