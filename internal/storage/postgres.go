// Package storage is the Postgres-backed persistence layer for the
// project, document, ocr, and user tables.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/model"
)

// PostgresClient owns the connection pool and implements every CRUD
// operation the Document/Project/User services need.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens and tunes a connection pool against
// databaseURL, grounded on the teacher's pool-tuning conventions.
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

func (c *PostgresClient) Close() error {
	return c.db.Close()
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// --- Project -----------------------------------------------------------

func (c *PostgresClient) CreateProject(ctx context.Context, name string, cfg model.ProjectConfig) (int64, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshal project config: %w", err)
	}

	var id int64
	err = c.db.QueryRowContext(ctx, `
		INSERT INTO project (name, created, updated, config)
		VALUES ($1, now(), now(), $2)
		RETURNING id
	`, name, cfgJSON).Scan(&id)
	if err != nil {
		return 0, mrkrerrors.NewStorageError("create_project", err)
	}

	return id, nil
}

func (c *PostgresClient) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, name, created, updated, config
		FROM project WHERE id = $1
	`, id)

	var p model.Project
	var cfgJSON []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Created, &p.Updated, &cfgJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, mrkrerrors.NewNotFound("project", id)
		}
		return nil, mrkrerrors.NewStorageError("get_project", err)
	}

	if err := json.Unmarshal(cfgJSON, &p.Config); err != nil {
		return nil, mrkrerrors.NewStorageError("decode_project_config", err)
	}

	return &p, nil
}

func (c *PostgresClient) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, created, updated, config FROM project ORDER BY id ASC
	`)
	if err != nil {
		return nil, mrkrerrors.NewStorageError("list_projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var cfgJSON []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Created, &p.Updated, &cfgJSON); err != nil {
			return nil, mrkrerrors.NewStorageError("scan_project", err)
		}
		if err := json.Unmarshal(cfgJSON, &p.Config); err != nil {
			return nil, mrkrerrors.NewStorageError("decode_project_config", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// ProjectStatusCounts computes the aggregate status for one project as a
// single grouped query, so it stays correct under concurrent writers.
func (c *PostgresClient) ProjectStatusCounts(ctx context.Context, projectID int64) (model.ProjectStatusCounts, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT status, count(*) FROM document WHERE project_id = $1 GROUP BY status
	`, projectID)
	if err != nil {
		return model.ProjectStatusCounts{}, mrkrerrors.NewStorageError("project_status_counts", err)
	}
	defer rows.Close()

	var counts model.ProjectStatusCounts
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return model.ProjectStatusCounts{}, mrkrerrors.NewStorageError("scan_status_counts", err)
		}
		switch model.DocumentStatus(status) {
		case model.DocumentStatusProcessing:
			counts.Processing = n
		case model.DocumentStatusOpen:
			counts.Open = n
		case model.DocumentStatusReview:
			counts.Review = n
		case model.DocumentStatusDone:
			counts.Done = n
		}
	}

	return counts, rows.Err()
}

// --- Document ------------------------------------------------------------

func (c *PostgresClient) CreateDocument(ctx context.Context, projectID int64, path string) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO document (project_id, path, status, data, created, updated)
		VALUES ($1, $2, $3, NULL, now(), now())
		RETURNING id
	`, projectID, path, model.DocumentStatusProcessing).Scan(&id)
	if err != nil {
		return 0, mrkrerrors.NewStorageError("create_document", err)
	}
	return id, nil
}

func (c *PostgresClient) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, status, data, assignee_id, reviewer_id, created, updated
		FROM document WHERE id = $1
	`, id)
	return scanDocument(row, id)
}

func scanDocument(row *sql.Row, id int64) (*model.Document, error) {
	var d model.Document
	var status string
	var dataJSON []byte

	if err := row.Scan(&d.ID, &d.ProjectID, &d.Path, &status, &dataJSON,
		&d.AssigneeID, &d.ReviewerID, &d.Created, &d.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, mrkrerrors.NewNotFound("document", id)
		}
		return nil, mrkrerrors.NewStorageError("get_document", err)
	}

	d.Status = model.DocumentStatus(status)

	if dataJSON != nil {
		var data model.DocumentLabelData
		if err := json.Unmarshal(dataJSON, &data); err != nil {
			return nil, mrkrerrors.NewStorageError("decode_document_data", err)
		}
		d.Data = &data
	}

	return &d, nil
}

// ListProjectDocuments returns every document of a project in id order,
// used by the filesystem sync step to detect already-known paths.
func (c *PostgresClient) ListProjectDocuments(ctx context.Context, projectID int64) ([]model.Document, error) {
	return c.listDocuments(ctx, projectID, model.DocumentListFilter{OrderBy: "id", Order: "asc", Limit: 1<<31 - 1})
}

// ListProjectDocumentsFiltered applies the full filter/sort/page contract
// from Document Service's `list` operation.
func (c *PostgresClient) ListProjectDocumentsFiltered(ctx context.Context, projectID int64, filter model.DocumentListFilter) ([]model.Document, error) {
	return c.listDocuments(ctx, projectID, filter)
}

func (c *PostgresClient) listDocuments(ctx context.Context, projectID int64, filter model.DocumentListFilter) ([]model.Document, error) {
	orderBy := "id"
	switch filter.OrderBy {
	case "created", "updated":
		orderBy = filter.OrderBy
	}
	order := "ASC"
	if filter.Order == "desc" {
		order = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, path, status, data, assignee_id, reviewer_id, created, updated
		FROM document
		WHERE project_id = $1
		AND ($2 = '' OR path ILIKE '%%' || $2 || '%%' OR status::text ILIKE '%%' || $2 || '%%' OR id::text ILIKE '%%' || $2 || '%%')
		ORDER BY %s %s
		LIMIT $3 OFFSET $4
	`, orderBy, order)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := c.db.QueryContext(ctx, query, projectID, filter.Filter, limit, filter.Offset)
	if err != nil {
		return nil, mrkrerrors.NewStorageError("list_documents", err)
	}
	defer rows.Close()

	var documents []model.Document
	for rows.Next() {
		var d model.Document
		var status string
		var dataJSON []byte
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Path, &status, &dataJSON,
			&d.AssigneeID, &d.ReviewerID, &d.Created, &d.Updated); err != nil {
			return nil, mrkrerrors.NewStorageError("scan_document", err)
		}
		d.Status = model.DocumentStatus(status)
		if dataJSON != nil {
			var data model.DocumentLabelData
			if err := json.Unmarshal(dataJSON, &data); err != nil {
				return nil, mrkrerrors.NewStorageError("decode_document_data", err)
			}
			d.Data = &data
		}
		documents = append(documents, d)
	}

	return documents, rows.Err()
}

// UpdateDocumentDataAndStatus atomically replaces a document's data and
// sets its status, bumping `updated`. This is the only path that may
// transition a document into or out of DocumentStatusProcessing.
func (c *PostgresClient) UpdateDocumentDataAndStatus(ctx context.Context, documentID int64, data *model.DocumentLabelData, status model.DocumentStatus) error {
	var dataJSON []byte
	var err error
	if data != nil {
		dataJSON, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal document data: %w", err)
		}
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE document SET data = $2, status = $3, updated = now()
		WHERE id = $1
	`, documentID, dataJSON, status)
	if err != nil {
		return mrkrerrors.NewStorageError("update_document_data", err)
	}
	return requireRowsAffected(res, "document", documentID)
}

// UpdateDocumentData replaces `data` wholesale without changing status,
// per the Document Service's update_label_data operation.
func (c *PostgresClient) UpdateDocumentData(ctx context.Context, documentID int64, data *model.DocumentLabelData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document data: %w", err)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE document SET data = $2, updated = now() WHERE id = $1
	`, documentID, dataJSON)
	if err != nil {
		return mrkrerrors.NewStorageError("update_document_data", err)
	}
	return requireRowsAffected(res, "document", documentID)
}

// BatchUpdateAssignee reassigns a batch of documents within a single
// transaction. userID nil clears the assignee.
func (c *PostgresClient) BatchUpdateAssignee(ctx context.Context, ids []int64, userID *int64) error {
	return c.batchUpdateColumn(ctx, "assignee_id", ids, userID)
}

// BatchUpdateReviewer reassigns a batch of documents' reviewer within a
// single transaction. userID nil clears the reviewer.
func (c *PostgresClient) BatchUpdateReviewer(ctx context.Context, ids []int64, userID *int64) error {
	return c.batchUpdateColumn(ctx, "reviewer_id", ids, userID)
}

func (c *PostgresClient) batchUpdateColumn(ctx context.Context, column string, ids []int64, value *int64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return mrkrerrors.NewStorageError("begin_tx", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE document SET %s = $1, updated = now() WHERE id = ANY($2)`, column)
	if _, err := tx.ExecContext(ctx, query, value, pqInt64Array(ids)); err != nil {
		return mrkrerrors.NewStorageError("batch_update_"+column, err)
	}

	if err := tx.Commit(); err != nil {
		return mrkrerrors.NewStorageError("commit_tx", err)
	}
	return nil
}

// BatchUpdateStatus transitions a batch of documents within a single
// transaction. Rejecting a `processing` target is the caller's
// responsibility (Document Service), since that is a domain rule, not a
// storage-layer one.
func (c *PostgresClient) BatchUpdateStatus(ctx context.Context, ids []int64, status model.DocumentStatus) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return mrkrerrors.NewStorageError("begin_tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE document SET status = $1, updated = now() WHERE id = ANY($2)
	`, status, pqInt64Array(ids)); err != nil {
		return mrkrerrors.NewStorageError("batch_update_status", err)
	}

	if err := tx.Commit(); err != nil {
		return mrkrerrors.NewStorageError("commit_tx", err)
	}
	return nil
}

func requireRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mrkrerrors.NewStorageError("rows_affected", err)
	}
	if n == 0 {
		return mrkrerrors.NewNotFound(entity, id)
	}
	return nil
}

// pqInt64Array renders a Go []int64 as a Postgres array literal, avoiding
// a dependency on lib/pq's reflection-based Array() helper for this one
// simple case.
func pqInt64Array(ids []int64) string {
	s := "{"
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", id)
	}
	return s + "}"
}

// --- OCR artifact ----------------------------------------------------

// AppendOcrArtifact records a new append-only OCR run against a document.
func (c *PostgresClient) AppendOcrArtifact(ctx context.Context, documentID int64, result model.OcrResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal ocr result: %w", err)
	}

	var id int64
	err = c.db.QueryRowContext(ctx, `
		INSERT INTO ocr (document_id, result, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id
	`, documentID, resultJSON, time.Now().Unix()).Scan(&id)
	if err != nil {
		return 0, mrkrerrors.NewStorageError("append_ocr_artifact", err)
	}
	return id, nil
}

// --- User ---------------------------------------------------------------

func (c *PostgresClient) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO "user" (username, email, password, disabled)
		VALUES ($1, $2, $3, false)
		RETURNING id
	`, username, email, passwordHash).Scan(&id)
	if err != nil {
		return 0, mrkrerrors.NewStorageError("create_user", err)
	}
	return id, nil
}

func (c *PostgresClient) ListUsers(ctx context.Context) ([]model.UserList, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, username, email, disabled FROM "user" ORDER BY id ASC
	`)
	if err != nil {
		return nil, mrkrerrors.NewStorageError("list_users", err)
	}
	defer rows.Close()

	var users []model.UserList
	for rows.Next() {
		var u model.UserList
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Disabled); err != nil {
			return nil, mrkrerrors.NewStorageError("scan_user", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
