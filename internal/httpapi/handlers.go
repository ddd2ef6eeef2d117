package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/model"

	"github.com/adverant/mrkr-core/internal/auth"
)

// fail writes the error-taxonomy-mapped response for err: the Kind's own
// HTTPStatus for a tagged *errors.Error, 500 with a generic detail for
// anything else — every unhandled failure logs the incident first.
func (r *Router) fail(c *gin.Context, err error) {
	var taxErr *mrkrerrors.Error
	if errors.As(err, &taxErr) {
		status := taxErr.Kind.HTTPStatus()
		if status >= 500 {
			r.log.Error("request failed", "path", c.FullPath(), "error", err)
			c.JSON(status, gin.H{"detail": "internal error"})
			return
		}
		c.JSON(status, gin.H{"detail": taxErr.Message})
		return
	}

	r.log.Error("unhandled request error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return v, true
}

// --- User ----------------------------------------------------------------

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (r *Router) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		r.fail(c, err)
		return
	}

	id, err := r.docs.CreateUser(c.Request.Context(), req.Username, req.Email, hash)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user created", "user_id": id})
}

func (r *Router) listUsers(c *gin.Context) {
	users, err := r.docs.ListUsers(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- Project ---------------------------------------------------------

type createProjectRequest struct {
	Name   string              `json:"name" binding:"required"`
	Config model.ProjectConfig `json:"config"`
}

func (r *Router) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	id, err := r.docs.CreateProject(c.Request.Context(), req.Name, req.Config)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project created", "project_id": id})
}

func (r *Router) getProject(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}

	project, err := r.docs.GetProject(c.Request.Context(), id)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

type projectListEntryResponse struct {
	model.Project
	Processing int64 `json:"processing"`
	Open       int64 `json:"open"`
	Review     int64 `json:"review"`
	Done       int64 `json:"done"`
}

func (r *Router) listProjects(c *gin.Context) {
	entries, err := r.docs.ListProjects(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}

	out := make([]projectListEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, projectListEntryResponse{
			Project:    e.Project,
			Processing: e.Counts.Processing,
			Open:       e.Counts.Open,
			Review:     e.Counts.Review,
			Done:       e.Counts.Done,
		})
	}

	c.JSON(http.StatusOK, out)
}

func (r *Router) scanProject(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	if err := r.scan.SubmitProjectScan(c.Request.Context(), id, force); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project scan scheduled"})
}

func (r *Router) listDocuments(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}

	filter := model.DocumentListFilter{
		OrderBy: c.DefaultQuery("order_by", "id"),
		Order:   c.DefaultQuery("order", "asc"),
		Filter:  c.Query("filter"),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	documents, err := r.docs.ListDocuments(c.Request.Context(), id, filter)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, documents)
}

// --- Document ------------------------------------------------------------

func (r *Router) getDocument(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}

	doc, err := r.docs.GetDocument(c.Request.Context(), id)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (r *Router) documentContent(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}

	if r.fileCfg == nil {
		r.fail(c, mrkrerrors.NewIOError("content", errors.New("file accessor not configured")))
		return
	}

	pages, err := r.fileCfg.DocumentPages(c, id)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pages)
}

func (r *Router) updateDocumentData(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}

	var data model.DocumentLabelData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := r.docs.UpdateLabelData(c.Request.Context(), id, &data); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document data updated"})
}

func (r *Router) scanDocument(c *gin.Context) {
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	if err := r.scan.SubmitDocumentScan(c.Request.Context(), id, force); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document scan scheduled"})
}

type batchAssigneeRequest struct {
	IDs    []int64 `json:"document_ids" binding:"required"`
	UserID *int64  `json:"user_id"`
}

func (r *Router) batchUpdateAssignee(c *gin.Context) {
	var req batchAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := r.docs.BatchUpdateAssignee(c.Request.Context(), req.IDs, req.UserID); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "assignee updated"})
}

func (r *Router) batchUpdateReviewer(c *gin.Context) {
	var req batchAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := r.docs.BatchUpdateReviewer(c.Request.Context(), req.IDs, req.UserID); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reviewer updated"})
}

type batchStatusRequest struct {
	IDs    []int64              `json:"document_ids" binding:"required"`
	Status model.DocumentStatus `json:"status" binding:"required"`
}

func (r *Router) batchUpdateStatus(c *gin.Context) {
	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := r.docs.BatchUpdateStatus(c.Request.Context(), req.IDs, req.Status); err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
