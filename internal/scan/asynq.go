package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adverant/mrkr-core/internal/logging"
)

// Client submits scan tasks onto the asynq-backed queue. It never blocks
// on the task's execution — submission and execution are decoupled by
// design, per the Scan Pipeline's "must not block the request loop" rule.
type Client struct {
	client *asynq.Client
}

// NewClient connects a Client to redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

func (c *Client) SubmitProjectScan(ctx context.Context, projectID int64, force bool) error {
	task, err := NewScanProjectTask(projectID, force)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func (c *Client) SubmitDocumentScan(ctx context.Context, documentID int64, force bool) error {
	task, err := NewScanDocumentTask(documentID, force)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ServerConfig configures the asynq consumer side of the Scan Pipeline.
type ServerConfig struct {
	RedisURL          string
	Concurrency       int // backend.max_workers
	ProcessingTimeout time.Duration
}

// Server consumes scan_project/scan_document tasks with a bounded worker
// pool, mirroring teacher's asynq.Server + ServeMux wiring.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine *Engine
	log    *logging.Logger
	cfg    ServerConfig
}

// NewServer builds a Server bound to engine.
func NewServer(cfg ServerConfig, engine *Engine, log *logging.Logger) (*Server, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	asynqServer := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"scan":    10,
			"default": 1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task processing error", "type", task.Type(), "error", err)
		}),
	})

	s := &Server{
		server: asynqServer,
		mux:    asynq.NewServeMux(),
		engine: engine,
		log:    log,
		cfg:    cfg,
	}

	s.mux.HandleFunc(TypeScanProject, s.handleScanProject)
	s.mux.HandleFunc(TypeScanDocument, s.handleScanDocument)

	return s, nil
}

// Run starts the server in a goroutine and returns immediately.
func (s *Server) Run() error {
	go func() {
		if err := s.server.Run(s.mux); err != nil {
			s.log.Error("scan server stopped with error", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight tasks before returning.
func (s *Server) Shutdown() {
	s.server.Shutdown()
}

func (s *Server) timeoutCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.ProcessingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *Server) handleScanProject(ctx context.Context, task *asynq.Task) error {
	var payload ProjectPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal scan:project payload: %w", err)
	}

	runCtx, cancel := s.timeoutCtx(ctx)
	defer cancel()

	if err := s.engine.ScanProject(runCtx, payload.ProjectID, payload.Force); err != nil {
		return fmt.Errorf("scan project %d: %w", payload.ProjectID, err)
	}
	return nil
}

func (s *Server) handleScanDocument(ctx context.Context, task *asynq.Task) error {
	var payload DocumentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal scan:document payload: %w", err)
	}

	runCtx, cancel := s.timeoutCtx(ctx)
	defer cancel()

	if err := s.engine.ScanDocument(runCtx, payload.DocumentID, payload.Force); err != nil {
		return fmt.Errorf("scan document %d: %w", payload.DocumentID, err)
	}
	return nil
}
