package scan

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/mrkr-core/internal/logging"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers"
	"github.com/adverant/mrkr-core/internal/providers/file"
	"github.com/adverant/mrkr-core/internal/providers/ocr"
)

// fakeStore is an in-memory Store used only by these tests.
type fakeStore struct {
	projects     map[int64]*model.Project
	documents    map[int64]*model.Document
	nextID       int64
	ocrArtifacts []model.OcrResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:  map[int64]*model.Project{},
		documents: map[int64]*model.Document{},
		nextID:    1,
	}
}

func (s *fakeStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, assert.AnError
	}
	return p, nil
}

func (s *fakeStore) ListProjectDocuments(ctx context.Context, projectID int64) ([]model.Document, error) {
	var out []model.Document
	for _, d := range s.documents {
		if d.ProjectID == projectID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateDocument(ctx context.Context, projectID int64, path string) (int64, error) {
	id := s.nextID
	s.nextID++
	s.documents[id] = &model.Document{
		ID:        id,
		ProjectID: projectID,
		Path:      path,
		Status:    model.DocumentStatusProcessing,
	}
	return id, nil
}

func (s *fakeStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	d, ok := s.documents[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) UpdateDocumentDataAndStatus(ctx context.Context, documentID int64, data *model.DocumentLabelData, status model.DocumentStatus) error {
	d, ok := s.documents[documentID]
	if !ok {
		return assert.AnError
	}
	d.Data = data
	d.Status = status
	return nil
}

func (s *fakeStore) AppendOcrArtifact(ctx context.Context, documentID int64, result model.OcrResult) (int64, error) {
	s.ocrArtifacts = append(s.ocrArtifacts, result)
	return int64(len(s.ocrArtifacts)), nil
}

// fakeFileProvider always reports one file "a.png" and yields one blank
// image for any path.
type fakeFileProvider struct{}

func (fakeFileProvider) IsFile(ctx context.Context) (bool, error)   { return true, nil }
func (fakeFileProvider) IsFolder(ctx context.Context) (bool, error) { return false, nil }

func (fakeFileProvider) List(ctx context.Context) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errc := make(chan error, 1)
	out <- "a.png"
	close(out)
	close(errc)
	return out, errc
}

func (fakeFileProvider) Read(ctx context.Context, chunkSize int) (<-chan []byte, <-chan error) {
	out := make(chan []byte)
	errc := make(chan error, 1)
	close(out)
	close(errc)
	return out, errc
}

func (fakeFileProvider) ReadAsImages(ctx context.Context, page int) ([]file.PageImage, error) {
	return []file.PageImage{{Page: 1}}, nil
}

func (fakeFileProvider) ReadAsBase64Images(ctx context.Context, page int) ([]file.PageContent, error) {
	return nil, nil
}

func (fakeFileProvider) Close() error { return nil }

// fakeOcrProvider returns a single-page OcrResult, independent of input.
type fakeOcrProvider struct{}

func (fakeOcrProvider) OCR(ctx context.Context, images []file.PageImage) (*model.OcrResult, error) {
	return &model.OcrResult{
		ID: uuid.New(),
		Items: []model.OcrItem{
			{ID: uuid.New(), Type: model.OcrItemPage, Page: 1},
		},
	}, nil
}

func fakeBundle() providers.Bundle {
	return providers.Bundle{
		File: func(ctx context.Context, path string) (file.Provider, error) {
			return fakeFileProvider{}, nil
		},
		Ocr: func() (ocr.Provider, error) {
			return fakeOcrProvider{}, nil
		},
	}
}

func TestScanDocumentWith_SkipsAlreadyScanned(t *testing.T) {
	store := newFakeStore()
	store.documents[1] = &model.Document{
		ID:     1,
		Path:   "a.png",
		Status: model.DocumentStatusOpen,
		Data:   &model.DocumentLabelData{},
	}

	engine := NewEngine(store, noopLogger(), "")

	err := engine.scanDocumentWith(context.Background(), 1, false, fakeBundle())
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusOpen, store.documents[1].Status)
}

func TestScanDocumentWith_ScansWhenDataNil(t *testing.T) {
	store := newFakeStore()
	store.documents[1] = &model.Document{ID: 1, Path: "a.png", Status: model.DocumentStatusProcessing}

	engine := NewEngine(store, noopLogger(), "")

	err := engine.scanDocumentWith(context.Background(), 1, false, fakeBundle())
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusOpen, store.documents[1].Status)
	require.NotNil(t, store.documents[1].Data)
	assert.Len(t, store.documents[1].Data.Pages, 1)
	assert.Len(t, store.ocrArtifacts, 1, "ocr result must be persisted as an artifact")
}

func TestScanDocumentWith_ForceRescans(t *testing.T) {
	store := newFakeStore()
	store.documents[1] = &model.Document{
		ID:     1,
		Path:   "a.png",
		Status: model.DocumentStatusDone,
		Data:   &model.DocumentLabelData{LabelStatus: model.LabelStatusDone},
	}

	engine := NewEngine(store, noopLogger(), "")

	err := engine.scanDocumentWith(context.Background(), 1, true, fakeBundle())
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusOpen, store.documents[1].Status)
	assert.Equal(t, model.LabelStatusOpen, store.documents[1].Data.LabelStatus)
}

func TestSyncProjectFileSystem_CreatesOnlyNewScannableDocuments(t *testing.T) {
	store := newFakeStore()
	project := &model.Project{ID: 10}
	store.projects[10] = project
	store.documents[1] = &model.Document{ID: 1, ProjectID: 10, Path: "a.png"}

	engine := NewEngine(store, noopLogger(), "")
	bundle := fakeBundle()

	err := engine.syncProjectFileSystem(context.Background(), project, bundle.File)
	require.NoError(t, err)

	docs, _ := store.ListProjectDocuments(context.Background(), 10)
	assert.Len(t, docs, 1, "a.png already existed and must not be recreated")
}

func noopLogger() *logging.Logger {
	return logging.NewLogger("test")
}
