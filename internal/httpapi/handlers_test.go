package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/mrkr-core/internal/documentservice"
	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/logging"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

type fakeStore struct {
	projects  map[int64]*model.Project
	documents map[int64]*model.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[int64]*model.Project{}, documents: map[int64]*model.Document{}}
}

func (s *fakeStore) CreateProject(ctx context.Context, name string, cfg model.ProjectConfig) (int64, error) {
	return 1, nil
}
func (s *fakeStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	if p, ok := s.projects[id]; ok {
		return p, nil
	}
	return nil, mrkrerrors.NewNotFound("project", id)
}
func (s *fakeStore) ListProjects(ctx context.Context) ([]model.Project, error) { return nil, nil }
func (s *fakeStore) ProjectStatusCounts(ctx context.Context, projectID int64) (model.ProjectStatusCounts, error) {
	return model.ProjectStatusCounts{}, nil
}
func (s *fakeStore) CreateDocument(ctx context.Context, projectID int64, path string) (int64, error) {
	return 1, nil
}
func (s *fakeStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	if d, ok := s.documents[id]; ok {
		return d, nil
	}
	return nil, mrkrerrors.NewNotFound("document", id)
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
	return nil
}
func (s *fakeStore) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	return 1, nil
}
func (s *fakeStore) ListUsers(ctx context.Context) ([]model.UserList, error) { return nil, nil }

type fakeScanClient struct {
	projectCalls  []int64
	documentCalls []int64
}

func (f *fakeScanClient) SubmitProjectScan(ctx context.Context, projectID int64, force bool) error {
	f.projectCalls = append(f.projectCalls, projectID)
	return nil
}

func (f *fakeScanClient) SubmitDocumentScan(ctx context.Context, documentID int64, force bool) error {
	f.documentCalls = append(f.documentCalls, documentID)
	return nil
}

type fakeFileAccessor struct{}

func (fakeFileAccessor) DocumentPages(c *gin.Context, documentID int64) ([]file.PageContent, error) {
	return []file.PageContent{{Page: 0, Format: "JPEG", Content: "Zg=="}}, nil
}

func setupTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	c.Request = req

	return c, w
}

func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return response
}

func TestHealth_ReturnsHealthy(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("GET", "/api/v1/utils/health", nil)
	router.health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", parseResponse(w)["health"])
}

func TestGetProject_NotFound(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("GET", "/api/v1/project/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	router.getProject(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProject_Found(t *testing.T) {
	store := newFakeStore()
	store.projects[5] = &model.Project{ID: 5, Name: "a project"}
	router := New(documentservice.New(store), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("GET", "/api/v1/project/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	router.getProject(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a project", parseResponse(w)["name"])
}

func TestGetProject_InvalidID(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("GET", "/api/v1/project/not-a-number", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-number"}}
	router.getProject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProject_InvalidBody(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("POST", "/api/v1/project", map[string]interface{}{})
	router.createProject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProject_Success(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("POST", "/api/v1/project", createProjectRequest{Name: "a valid project"})
	router.createProject(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.EqualValues(t, 1, resp["project_id"])
}

func TestScanProject_SubmitsTask(t *testing.T) {
	scanClient := &fakeScanClient{}
	router := New(documentservice.New(newFakeStore()), scanClient, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("POST", "/api/v1/project/7/scan?force=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	router.scanProject(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{7}, scanClient.projectCalls)
}

func TestScanDocument_SubmitsTask(t *testing.T) {
	scanClient := &fakeScanClient{}
	router := New(documentservice.New(newFakeStore()), scanClient, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("POST", "/api/v1/document/9/scan", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	router.scanDocument(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{9}, scanClient.documentCalls)
}

func TestBatchUpdateStatus_RejectsEmptyIDs(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("PUT", "/api/v1/document/status", batchStatusRequest{Status: model.DocumentStatusOpen})
	router.batchUpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchUpdateStatus_RejectsProcessing(t *testing.T) {
	router := New(documentservice.New(newFakeStore()), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("PUT", "/api/v1/document/status", batchStatusRequest{
		IDs:    []int64{1, 2},
		Status: model.DocumentStatusProcessing,
	})
	router.batchUpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentContent_ReturnsPages(t *testing.T) {
	store := newFakeStore()
	store.documents[3] = &model.Document{ID: 3, ProjectID: 1, Path: "a.png"}
	store.projects[1] = &model.Project{ID: 1}
	router := New(documentservice.New(store), &fakeScanClient{}, fakeFileAccessor{}, logging.NewLogger("test"))

	c, w := setupTestContext("GET", "/api/v1/document/3/content", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	router.documentContent(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
