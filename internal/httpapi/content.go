package httpapi

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/adverant/mrkr-core/internal/documentservice"
	"github.com/adverant/mrkr-core/internal/providers"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// ContentAccessor implements FileAccessor against the project's resolved
// File Provider, independent of whether that project is Local or
// ObjectStore backed.
type ContentAccessor struct {
	docs *documentservice.Service
}

// NewContentAccessor builds a ContentAccessor sharing the Document
// Service's storage view of projects and documents.
func NewContentAccessor(docs *documentservice.Service) *ContentAccessor {
	return &ContentAccessor{docs: docs}
}

func (a *ContentAccessor) DocumentPages(c *gin.Context, documentID int64) ([]file.PageContent, error) {
	ctx := c.Request.Context()

	doc, err := a.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	project, err := a.docs.GetProject(ctx, doc.ProjectID)
	if err != nil {
		return nil, err
	}

	bundle, err := providers.Resolve(ctx, project.Config, project.Config.FileProvider.Path, "")
	if err != nil {
		return nil, fmt.Errorf("resolve file provider for project %d: %w", project.ID, err)
	}

	fp, err := bundle.File(ctx, doc.Path)
	if err != nil {
		return nil, fmt.Errorf("open file provider for %s: %w", doc.Path, err)
	}
	defer fp.Close()

	return fp.ReadAsBase64Images(ctx, 0)
}
