// Package scan is the Scan Pipeline: it walks a project's File Provider
// to discover new documents, then runs each document through its
// project's OCR Provider and the Label Synthesizer, writing the result
// back through the Document Service's storage layer.
//
// Submission and execution are split exactly as teacher's asynq
// Consumer splits them: a Client enqueues flat (id, force) payloads, a
// Server consumes them with a bounded worker pool.
package scan

import (
	"context"
	"fmt"

	"github.com/adverant/mrkr-core/internal/labelsynth"
	"github.com/adverant/mrkr-core/internal/logging"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// Store is the subset of the storage layer the Scan Pipeline needs. It is
// satisfied by *storage.PostgresClient; tests substitute a fake.
type Store interface {
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjectDocuments(ctx context.Context, projectID int64) ([]model.Document, error)
	CreateDocument(ctx context.Context, projectID int64, path string) (int64, error)
	GetDocument(ctx context.Context, id int64) (*model.Document, error)
	UpdateDocumentDataAndStatus(ctx context.Context, documentID int64, data *model.DocumentLabelData, status model.DocumentStatus) error
	AppendOcrArtifact(ctx context.Context, documentID int64, result model.OcrResult) (int64, error)
}

// Engine runs one scan_project or scan_document operation. It is the
// shared logic behind both the asynq handlers and the secondary raw-Redis
// consumer.
type Engine struct {
	store         Store
	log           *logging.Logger
	tesseractPath string
}

// NewEngine builds an Engine. tesseractPath is passed through to every
// resolved LocalOCR provider.
func NewEngine(store Store, log *logging.Logger, tesseractPath string) *Engine {
	return &Engine{store: store, log: log, tesseractPath: tesseractPath}
}

// ScanProject syncs a project's file tree into documents, then scans
// every document. Errors for individual documents are logged and do not
// abort the remaining documents, matching the original implementation's
// per-item exception isolation.
func (e *Engine) ScanProject(ctx context.Context, projectID int64, force bool) error {
	e.log.Debug("scanning project", "project_id", projectID)

	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project %d: %w", projectID, err)
	}

	bundle, err := providers.Resolve(ctx, project.Config, project.Config.FileProvider.Path, e.tesseractPath)
	if err != nil {
		return fmt.Errorf("resolve providers for project %d: %w", projectID, err)
	}

	if err := e.syncProjectFileSystem(ctx, project, bundle.File); err != nil {
		return fmt.Errorf("sync file system for project %d: %w", projectID, err)
	}

	documents, err := e.store.ListProjectDocuments(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list documents for project %d: %w", projectID, err)
	}

	for _, doc := range documents {
		if err := e.scanDocumentWith(ctx, doc.ID, force, bundle); err != nil {
			e.log.Error("error scanning document", "document_id", doc.ID, "error", err)
		}
	}

	e.log.Debug("scan of project successful", "project_id", projectID)
	return nil
}

// ScanDocument resolves documentID's project providers and scans it.
func (e *Engine) ScanDocument(ctx context.Context, documentID int64, force bool) error {
	e.log.Debug("scanning document", "document_id", documentID)

	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document %d: %w", documentID, err)
	}

	project, err := e.store.GetProject(ctx, doc.ProjectID)
	if err != nil {
		return fmt.Errorf("get project %d: %w", doc.ProjectID, err)
	}

	bundle, err := providers.Resolve(ctx, project.Config, project.Config.FileProvider.Path, e.tesseractPath)
	if err != nil {
		return fmt.Errorf("resolve providers for project %d: %w", doc.ProjectID, err)
	}

	return e.scanDocumentWith(ctx, documentID, force, bundle)
}

// scanDocumentWith is the crash-safe, idempotent core: a document is
// (re-)scanned only if it was never scanned (data == nil) or force is
// set, mirroring the original implementation's
// `if document.data is None or force` verbatim.
func (e *Engine) scanDocumentWith(ctx context.Context, documentID int64, force bool, bundle providers.Bundle) error {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document %d: %w", documentID, err)
	}

	if doc.Data != nil && !force {
		e.log.Debug("document already scanned", "document_id", documentID)
		return nil
	}

	ocrResult, err := e.runDocumentOCR(ctx, doc, bundle)
	if err != nil {
		return fmt.Errorf("run ocr for document %d: %w", documentID, err)
	}

	if _, err := e.store.AppendOcrArtifact(ctx, documentID, *ocrResult); err != nil {
		return fmt.Errorf("append ocr artifact for document %d: %w", documentID, err)
	}

	data := labelsynth.Synthesize(ocrResult)

	if err := e.store.UpdateDocumentDataAndStatus(ctx, documentID, data, model.DocumentStatusOpen); err != nil {
		return fmt.Errorf("update document %d data: %w", documentID, err)
	}

	e.log.Debug("scan of document successful", "document_id", documentID)
	return nil
}

func (e *Engine) runDocumentOCR(ctx context.Context, doc *model.Document, bundle providers.Bundle) (*model.OcrResult, error) {
	fp, err := bundle.File(ctx, doc.Path)
	if err != nil {
		return nil, fmt.Errorf("open file provider for %s: %w", doc.Path, err)
	}
	defer fp.Close()

	images, err := fp.ReadAsImages(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read images for %s: %w", doc.Path, err)
	}

	ocrProvider, err := bundle.Ocr()
	if err != nil {
		return nil, fmt.Errorf("build ocr provider: %w", err)
	}

	return ocrProvider.OCR(ctx, images)
}

// syncProjectFileSystem lists the project's files, compares them against
// known document paths, and creates a document for every new scannable
// file. Already-known paths are left untouched.
func (e *Engine) syncProjectFileSystem(ctx context.Context, project *model.Project, fileFactory file.Factory) error {
	existing, err := e.store.ListProjectDocuments(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("list existing documents: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.Path] = true
	}

	root, err := fileFactory(ctx, "/")
	if err != nil {
		return fmt.Errorf("open root file provider: %w", err)
	}
	defer root.Close()

	paths, errc := root.List(ctx)
	for path := range paths {
		if !file.IsScannable(path) {
			continue
		}
		if known[path] {
			e.log.Debug("document already exists", "path", path)
			continue
		}

		e.log.Debug("creating document", "path", path)
		if _, err := e.store.CreateDocument(ctx, project.ID, path); err != nil {
			e.log.Error("failed to create document", "path", path, "error", err)
		}
	}

	if err := <-errc; err != nil {
		return err
	}

	return nil
}
