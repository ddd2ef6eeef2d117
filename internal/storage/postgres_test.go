package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/mrkr-core/internal/model"
)

func newMockClient(t *testing.T) (*PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresClient{db: db}, mock
}

func TestGetDocument_NotFound(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT id, project_id, path, status, data, assignee_id, reviewer_id, created, updated`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := c.GetDocument(context.Background(), 42)
	require.Error(t, err)
}

func TestGetDocument_Found(t *testing.T) {
	c, mock := newMockClient(t)

	now := time.Unix(0, 0)
	rows := sqlmock.NewRows([]string{"id", "project_id", "path", "status", "data", "assignee_id", "reviewer_id", "created", "updated"}).
		AddRow(int64(1), int64(2), "a/b.pdf", "open", nil, nil, nil, now, now)

	mock.ExpectQuery(`SELECT id, project_id, path, status, data, assignee_id, reviewer_id, created, updated`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	doc, err := c.GetDocument(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusOpen, doc.Status)
	assert.Nil(t, doc.Data)
}

func TestUpdateDocumentDataAndStatus_NoRowsIsNotFound(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectExec(`UPDATE document SET data = \$2, status = \$3, updated = now\(\)`).
		WithArgs(int64(9), sqlmock.AnyArg(), model.DocumentStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := c.UpdateDocumentDataAndStatus(context.Background(), 9, nil, model.DocumentStatusOpen)
	require.Error(t, err)
}

func TestBatchUpdateStatus_CommitsTransaction(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE document SET status = \$1, updated = now\(\)`).
		WithArgs(model.DocumentStatusDone, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := c.BatchUpdateStatus(context.Background(), []int64{1, 2, 3}, model.DocumentStatusDone)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStatusCounts_AggregatesRows(t *testing.T) {
	c, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("open", int64(3)).
		AddRow("done", int64(1)).
		AddRow("processing", int64(2))

	mock.ExpectQuery(`SELECT status, count\(\*\) FROM document WHERE project_id = \$1 GROUP BY status`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	counts, err := c.ProjectStatusCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Open)
	assert.Equal(t, int64(1), counts.Done)
	assert.Equal(t, int64(2), counts.Processing)
	assert.Equal(t, int64(0), counts.Review)
}
