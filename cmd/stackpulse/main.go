// stackpulse - health and metrics aggregator for a local AI stack.
//
// Periodically probes the configured services (Open WebUI, Ollama,
// pipelines, mem0 by default), collects host resource metrics, merges
// everything into one snapshot and serves it over HTTP and WebSocket.
//
// Usage:
//
//	STACKPULSE_LISTEN_ADDR=127.0.0.1:8088 stackpulse
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftworks/stackpulse/internal/redis"
	"github.com/driftworks/stackpulse/internal/server"
	"github.com/driftworks/stackpulse/pkg/agent"
	"github.com/driftworks/stackpulse/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("stackpulse %s (commit: %s)\n", version, commit)
			os.Exit(0)
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration error", "error", err)
		fmt.Println("\nRun 'stackpulse --help' for usage information.")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []agent.Option{agent.WithLogger(logger)}

	var publisher *redis.Publisher
	if cfg.RedisURL != "" {
		p, err := redis.NewPublisher(cfg.RedisURL, 3*cfg.Interval)
		if err != nil {
			logger.Error("Invalid Redis URL", "error", err)
			os.Exit(1)
		}
		publisher = p
		opts = append(opts, agent.WithPublisher(p))
		logger.Info("Snapshot publishing enabled", "redis", cfg.RedisURL)
	}

	a, err := agent.New(cfg, opts...)
	if err != nil {
		logger.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		logger.Error("Failed to start agent", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg.ListenAddr, a, logger)
	srv.Routes()
	srvErr := srv.Start()

	// Wait for a shutdown signal or a dead listener.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
	case err := <-srvErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}

	// Graceful shutdown: stop accepting connections, then stop the agent.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	cancel()
	if err := a.Stop(context.Background()); err != nil {
		logger.Error("Agent shutdown error", "error", err)
		os.Exit(1)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close Redis publisher", "error", err)
		}
	}
}

func printHelp() {
	fmt.Println(`Usage: stackpulse [options]

stackpulse aggregates health and metrics for a local AI stack. It probes
each configured service, collects host CPU/memory/disk/network counters,
and serves the merged snapshot over HTTP and WebSocket.

Environment Variables:
  STACKPULSE_LISTEN_ADDR      HTTP listen address (default: 127.0.0.1:8088)
  STACKPULSE_INTERVAL         Refresh interval in seconds (default: 30)
  STACKPULSE_PROBE_TIMEOUT    Per-probe timeout in seconds (default: 5)
  STACKPULSE_OLLAMA_URL       Ollama base URL (default: http://localhost:11434)
  STACKPULSE_PIPELINES_URL    Pipelines base URL (default: http://localhost:9099)
  STACKPULSE_PIPELINES_TOKEN  Bearer token for the pipelines service
  STACKPULSE_REDIS_URL        Optional Redis URL for snapshot publishing
  STACKPULSE_SERVICES         Service registry override,
                              key=name=baseURL=healthPath comma-separated

Endpoints:
  GET /health          liveness and uptime
  GET /api/status      full snapshot
  GET /api/services    service statuses only
  GET /api/system      host metrics only
  GET /api/models      live model list from Ollama
  GET /api/pipelines   live pipeline list
  GET /ws              WebSocket snapshot stream

Options:
  -h, --help      Show this help message
  -v, --version   Show version information`)
}
