package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/mrkr-core/internal/logging"
)

// RedisConsumerConfig configures the secondary, directly-driven consumer
// path: a plain Redis list fed by a deployment that does not speak
// asynq's own task encoding.
type RedisConsumerConfig struct {
	RedisURL    string
	QueueName   string // default "mrkr:scan"
	Concurrency int
}

// redisJob is the flat payload pushed onto QueueName: a JSON-encoded
// document id and force flag, one entry per list element.
type redisJob struct {
	DocumentID int64 `json:"document_id"`
	Force      bool  `json:"force"`
}

// RedisConsumer is an alternate Scan Pipeline entrypoint for deployments
// that push scan jobs directly onto a Redis list with BRPOP/LPUSH rather
// than through asynq's client. It drives the same Engine the asynq
// Server does, so a document scanned through either path gets identical
// idempotence and crash-safety guarantees.
type RedisConsumer struct {
	client *redis.Client
	engine *Engine
	log    *logging.Logger
	cfg    RedisConsumerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisConsumer connects a RedisConsumer to cfg.RedisURL.
func NewRedisConsumer(cfg RedisConsumerConfig, engine *Engine, log *logging.Logger) (*RedisConsumer, error) {
	if cfg.QueueName == "" {
		cfg.QueueName = "mrkr:scan"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client: client,
		engine: engine,
		log:    log,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start launches cfg.Concurrency worker goroutines.
func (c *RedisConsumer) Start() {
	for i := 0; i < c.cfg.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
}

// Stop signals every worker to exit and waits for them to drain, then
// closes the Redis client.
func (c *RedisConsumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if err := c.processNext(); err != nil {
				c.log.Error("redis scan consumer error", "worker", id, "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *RedisConsumer) processNext() error {
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.cfg.QueueName).Result()
	if err != nil {
		if err == redis.Nil || c.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("brpop %s: %w", c.cfg.QueueName, err)
	}
	if len(result) < 2 {
		return fmt.Errorf("unexpected brpop result shape")
	}

	var job redisJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("unmarshal scan job: %w", err)
	}

	if err := c.engine.ScanDocument(c.ctx, job.DocumentID, job.Force); err != nil {
		c.log.Error("scan failed", "document_id", job.DocumentID, "error", err)
	}
	return nil
}
