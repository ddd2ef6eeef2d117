// mrkr-core worker: the document-annotation backend's combined process.
// It serves the `/api/v1` HTTP façade and runs the Scan Pipeline's asynq
// consumer (plus, where configured, the secondary raw-Redis consumer)
// in the same process, matching the teacher's single-binary shape.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adverant/mrkr-core/internal/config"
	"github.com/adverant/mrkr-core/internal/documentservice"
	"github.com/adverant/mrkr-core/internal/httpapi"
	"github.com/adverant/mrkr-core/internal/logging"
	"github.com/adverant/mrkr-core/internal/scan"
	"github.com/adverant/mrkr-core/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("worker")
	defer logger.Sync()

	logger.Info("mrkr-core worker starting",
		"env", cfg.Env, "max_workers", cfg.MaxWorkers, "http_port", cfg.HTTPPort)

	logger.Info("running migrations", "path", cfg.MigrationsPath)
	if err := storage.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	pg, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pg.Close()
	logger.Info("connected to postgres")

	scanEngine := scan.NewEngine(pg, logging.NewLogger("scan"), cfg.TesseractPath)

	scanClient, err := scan.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect scan client to redis: %v", err)
	}
	defer scanClient.Close()

	scanServer, err := scan.NewServer(scan.ServerConfig{
		RedisURL:          cfg.RedisURL,
		Concurrency:       cfg.MaxWorkers,
		ProcessingTimeout: time.Duration(cfg.ProcessingTimeout) * time.Millisecond,
	}, scanEngine, logging.NewLogger("scan.asynq"))
	if err != nil {
		log.Fatalf("failed to build scan server: %v", err)
	}
	if err := scanServer.Run(); err != nil {
		log.Fatalf("failed to start scan server: %v", err)
	}
	logger.Info("scan pipeline running", "concurrency", cfg.MaxWorkers)

	redisConsumer, err := scan.NewRedisConsumer(scan.RedisConsumerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.MaxWorkers,
	}, scanEngine, logging.NewLogger("scan.redis"))
	if err != nil {
		log.Fatalf("failed to build redis scan consumer: %v", err)
	}
	redisConsumer.Start()
	logger.Info("secondary redis scan consumer running")

	docsService := documentservice.New(pg)
	contentAccessor := httpapi.NewContentAccessor(docsService)
	router := httpapi.New(docsService, scanClient, contentAccessor, logging.NewLogger("httpapi"))

	httpServer := &http.Server{
		Addr:    httpPortAddr(cfg.HTTPPort),
		Handler: router.Engine(),
	}

	go func() {
		logger.Info("http facade listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped with error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	logger.Info("draining in-flight scan tasks")
	scanServer.Shutdown()

	if err := redisConsumer.Stop(); err != nil {
		logger.Error("error stopping redis scan consumer", "error", err)
	}

	logger.Info("shutdown complete")
}

func httpPortAddr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return ":" + strconv.Itoa(port)
}
