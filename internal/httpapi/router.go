// Package httpapi is the thin HTTP façade mapping the versioned
// `/api/v1` route table onto Document Service and Scan Pipeline
// operations. It is a collaborator, not core engineering: handlers
// validate, translate, and either call the Document Service directly or
// enqueue a scan task and return — they never block on scan execution.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adverant/mrkr-core/internal/documentservice"
	"github.com/adverant/mrkr-core/internal/logging"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// Router builds and owns the gin engine serving every route in the
// Document Annotation Backend's HTTP façade.
type Router struct {
	engine  *gin.Engine
	docs    *documentservice.Service
	scan    ScanSubmitter
	log     *logging.Logger
	fileCfg FileAccessor
}

// FileAccessor resolves a document's content for the `/document/{id}/content`
// endpoint, independent of which File Provider variant the owning
// project is configured with.
type FileAccessor interface {
	DocumentPages(ctx *gin.Context, documentID int64) ([]file.PageContent, error)
}

// ScanSubmitter is the subset of *scan.Client the façade needs to enqueue
// scan tasks without blocking the request loop. Satisfied by *scan.Client.
type ScanSubmitter interface {
	SubmitProjectScan(ctx context.Context, projectID int64, force bool) error
	SubmitDocumentScan(ctx context.Context, documentID int64, force bool) error
}

// New builds a Router. fileAccessor may be nil if content serving is not
// wired yet; the content endpoint then returns 500.
func New(docs *documentservice.Service, scanClient ScanSubmitter, fileAccessor FileAccessor, log *logging.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	r := &Router{engine: engine, docs: docs, scan: scanClient, log: log, fileCfg: fileAccessor}
	r.routes()
	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) routes() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")

	v1.GET("/utils/health", r.health)

	v1.POST("/user", r.createUser)
	v1.GET("/user/list-users", r.listUsers)

	v1.POST("/project", r.createProject)
	v1.GET("/project/list-projects", r.listProjects)
	v1.GET("/project/:id", r.getProject)
	v1.POST("/project/:id/scan", r.scanProject)
	v1.GET("/project/:id/list-documents", r.listDocuments)

	v1.GET("/document/:id", r.getDocument)
	v1.GET("/document/:id/content", r.documentContent)
	v1.PUT("/document/:id/data", r.updateDocumentData)
	v1.POST("/document/:id/scan", r.scanDocument)
	v1.PUT("/document/assignee", r.batchUpdateAssignee)
	v1.PUT("/document/reviewer", r.batchUpdateReviewer)
	v1.PUT("/document/status", r.batchUpdateStatus)
}

func (r *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"health": "healthy", "message": "ok"})
}
