package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/slateroom/slateroom-agent/internal/api"
	"github.com/slateroom/slateroom-agent/internal/artifacts"
	"github.com/slateroom/slateroom-agent/internal/burnin"
	"github.com/slateroom/slateroom-agent/internal/config"
	"github.com/slateroom/slateroom-agent/internal/db"
	"github.com/slateroom/slateroom-agent/internal/logging"
	"github.com/slateroom/slateroom-agent/internal/render"
	"github.com/slateroom/slateroom-agent/internal/review"
	"github.com/slateroom/slateroom-agent/internal/tracker"
	"github.com/slateroom/slateroom-agent/internal/transcode"
	"github.com/slateroom/slateroom-agent/internal/ui"
	"github.com/slateroom/slateroom-agent/internal/watcher"
)

func newRunCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cctx.configFlag)
		},
	}
}

func runDaemon(configPath string) error {
	startTime := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.Agent.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.Agent.LogLevel)
	logger.Info("starting slateroom agent",
		"version", config.Version, "data_dir", cfg.Agent.DataDir)

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another slateroom agent instance is already running")
	}
	defer lock.Unlock()

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := review.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Slateroom Agent %s\n", config.Version)
	fmt.Printf("  API URL:    http://127.0.0.1:%d\n", cfg.Agent.Port)
	fmt.Printf("  Auth Token: %s\n", authToken)
	fmt.Println()

	var trackerClient tracker.Client
	if cfg.Tracker.BaseURL != "" && cfg.Tracker.Token != "" {
		trackerClient = tracker.NewHTTPClient(cfg.Tracker.BaseURL, cfg.Tracker.Token, cfg.Tracker.Project, logger)
		logger.Info("tracker connected", "base_url", cfg.Tracker.BaseURL, "project", cfg.Tracker.Project)
	} else {
		trackerClient = tracker.NewStubClient(logger)
		logger.Warn("tracker not configured, versions will not be uploaded")
	}

	resolver := burnin.NewResolver(trackerClient, cfg.Movie.VersionNumberPadding, logger)

	orchestrator, err := render.NewOrchestrator(render.Config{
		HostBin:        cfg.Tools.HostBin,
		ScratchDir:     cfg.ScratchDir(),
		BurninTemplate: cfg.Movie.BurninTemplate,
		SlateLogo:      cfg.Movie.SlateLogo,
		RenderTimeout:  cfg.Tools.RenderTimeout(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("render orchestrator: %w", err)
	}

	transcoder := transcode.NewRunner(cfg.Tools.FFmpegBin, cfg.Tools.EncodeTimeout(), logger)

	service := review.NewService(repo, resolver, orchestrator, transcoder, trackerClient, review.Options{
		Project:         cfg.Tracker.Project,
		Width:           cfg.Movie.Width,
		Height:          cfg.Movie.Height,
		Padding:         cfg.Movie.VersionNumberPadding,
		FallbackFPS:     cfg.Movie.FallbackFPS,
		HostMajor:       cfg.Tools.HostMajorVersion,
		UploadToTracker: cfg.Review.UploadToTracker,
		StoreOnDisk:     cfg.Review.StoreOnDisk,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := review.NewRunner(service, repo, logger)
	go runner.Start(ctx)

	if cfg.Agent.WatchDir != "" {
		w := watcher.New(cfg.Agent.WatchDir, service, logger)
		go w.Start(ctx)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Agent.Port,
		Service:    service,
		Repository: repo,
		Runner:     runner,
		Artifacts:  artifacts.NewStreamer(logger),
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Agent.Headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner: runner,
			Logger: logger,
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo review.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
