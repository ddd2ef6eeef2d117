// Package sdk is a thin HTTP client over the Document Annotation
// Backend's `/api/v1` façade. It is a collaborator, not core
// engineering: it adds a fixed retry policy on top of net/http and
// leaves every response shape for the caller to unmarshal.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

// Client is a retrying HTTP client bound to one façade base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a Client against baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do executes method/path with an optional JSON body, retrying up to
// maxAttempts times with a fixed 1s backoff on transport errors and 5xx
// responses. 4xx responses are not retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = encoded
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, method, endpoint, payload)
		if err == nil {
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("read response body: %w", readErr)
			} else if resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, respBody)
			} else if resp.StatusCode >= 400 {
				return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, respBody)
			} else {
				if out != nil && len(respBody) > 0 {
					if err := json.Unmarshal(respBody, out); err != nil {
						return fmt.Errorf("decode response: %w", err)
					}
				}
				return nil
			}
		} else {
			lastErr = err
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// Health calls GET /api/v1/utils/health.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.do(ctx, http.MethodGet, "/api/v1/utils/health", nil, nil, &out)
	return out, err
}

// CreateProject calls POST /api/v1/project.
func (c *Client) CreateProject(ctx context.Context, body interface{}) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.do(ctx, http.MethodPost, "/api/v1/project", nil, body, &out)
	return out, err
}

// GetProject calls GET /api/v1/project/{id}.
func (c *Client) GetProject(ctx context.Context, id int64, out interface{}) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/project/%d", id), nil, nil, out)
}

// ListProjects calls GET /api/v1/project/list-projects.
func (c *Client) ListProjects(ctx context.Context, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/api/v1/project/list-projects", nil, nil, out)
}

// ScanProject calls POST /api/v1/project/{id}/scan.
func (c *Client) ScanProject(ctx context.Context, id int64, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/project/%d/scan", id), query, nil, nil)
}

// ListDocuments calls GET /api/v1/project/{id}/list-documents.
func (c *Client) ListDocuments(ctx context.Context, projectID int64, out interface{}) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/project/%d/list-documents", projectID), nil, nil, out)
}

// GetDocument calls GET /api/v1/document/{id}.
func (c *Client) GetDocument(ctx context.Context, id int64, out interface{}) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/document/%d", id), nil, nil, out)
}

// DocumentContent calls GET /api/v1/document/{id}/content.
func (c *Client) DocumentContent(ctx context.Context, id int64, out interface{}) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/document/%d/content", id), nil, nil, out)
}

// UpdateDocumentData calls PUT /api/v1/document/{id}/data.
func (c *Client) UpdateDocumentData(ctx context.Context, id int64, body interface{}) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/document/%d/data", id), nil, body, nil)
}

// ScanDocument calls POST /api/v1/document/{id}/scan.
func (c *Client) ScanDocument(ctx context.Context, id int64, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/document/%d/scan", id), query, nil, nil)
}

// BatchUpdateAssignee calls PUT /api/v1/document/assignee.
func (c *Client) BatchUpdateAssignee(ctx context.Context, body interface{}) error {
	return c.do(ctx, http.MethodPut, "/api/v1/document/assignee", nil, body, nil)
}

// BatchUpdateReviewer calls PUT /api/v1/document/reviewer.
func (c *Client) BatchUpdateReviewer(ctx context.Context, body interface{}) error {
	return c.do(ctx, http.MethodPut, "/api/v1/document/reviewer", nil, body, nil)
}

// BatchUpdateStatus calls PUT /api/v1/document/status.
func (c *Client) BatchUpdateStatus(ctx context.Context, body interface{}) error {
	return c.do(ctx, http.MethodPut, "/api/v1/document/status", nil, body, nil)
}

// CreateUser calls POST /api/v1/user.
func (c *Client) CreateUser(ctx context.Context, body interface{}) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.do(ctx, http.MethodPost, "/api/v1/user", nil, body, &out)
	return out, err
}

// ListUsers calls GET /api/v1/user/list-users.
func (c *Client) ListUsers(ctx context.Context, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/api/v1/user/list-users", nil, nil, out)
}
