package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llmbridge/internal/server"
	"llmbridge/pkg/config"
	"llmbridge/pkg/logger"
	"llmbridge/pkg/manager"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file (defaults to LLMBRIDGE_CONFIG_PATH or ~/.config/llmbridge/config.yaml)")
	flag.Parse()

	var (
		cfg *config.Store
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.LoadLocalConfig()
	}
	if err != nil {
		logger.Fatalf("Fatal parsing config: %v", err)
	}

	logger.SetLogger(logger.New(os.Stderr,
		config.String(cfg, "log.format", "text"),
		config.String(cfg, "log.level", "info")))

	mgr := manager.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Remote alias overrides are optional.
	if rm := config.RemoteFromConfig(cfg, mgr); rm != nil {
		rm.Start(ctx)
	}

	srv := server.NewServer(mgr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d",
		config.String(cfg, "server.host", "127.0.0.1"),
		config.Int(cfg, "server.port", 8080))
	if err := srv.Start(addr); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
	logger.Info("server stopped")
}
