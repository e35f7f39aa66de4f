package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/gohm/internal/archive"
	"github.com/me/gohm/internal/config"
	"github.com/me/gohm/internal/logging"
	"github.com/me/gohm/internal/scripted"
	"github.com/me/gohm/internal/server"
	"github.com/me/gohm/internal/store"
	"github.com/me/gohm/pkg/health"
)

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to YAML config with policy definitions")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Archive database path (default ~/.gohm/gohm.db)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		// Explicit flags win over file values.
		flagCfg := cfg
		cfg = loaded
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "addr":
				cfg.Addr = flagCfg.Addr
			case "log-level":
				cfg.LogLevel = flagCfg.LogLevel
			case "log-format":
				cfg.LogFormat = flagCfg.LogFormat
			case "db":
				cfg.DBPath = flagCfg.DBPath
			}
		})
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".gohm")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "gohm.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Build scripted policies and the executor. An Initialize failure aborts
	// startup; no partially-registered executor is ever run.
	policies := make([]health.Policy, 0, len(cfg.Policies))
	for _, spec := range cfg.Policies {
		policies = append(policies, scripted.New(spec, logger))
	}

	exec, err := health.NewExecutor(logger, policies...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build executor: %v\n", err)
		os.Exit(1)
	}

	handle, err := exec.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start executor: %v\n", err)
		os.Exit(1)
	}

	// Archiver persists table entries to the store in the background.
	arch := archive.NewArchiver(st, exec, archive.Config{
		PollInterval: time.Duration(cfg.ArchiveInterval),
	}, logger)

	srv := server.New(cfg, exec, st, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := arch.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("archiver stopped", "error", err)
		}
	}()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "policies", len(policies))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Destroy the executor first, then wait for its worker to exit.
	exec.Destroy()
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handle.Wait(waitCtx); err != nil {
		logger.Error("executor did not drain", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
