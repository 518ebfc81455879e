package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/api"
	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/config"
	"github.com/fmuoria/jadehire-agent/internal/google"
	"github.com/fmuoria/jadehire-agent/internal/gui"
	"github.com/fmuoria/jadehire-agent/internal/llm"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"github.com/fmuoria/jadehire-agent/pkg/metrics"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jadehire: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "ignoring log level", logger.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ApplyToEnv()

	guiMode := len(os.Args) > 1 && os.Args[1] == "gui"

	var desktop *gui.App
	authCode := google.PromptAuthCode(os.Stdin, os.Stdout)
	if guiMode {
		desktop = gui.NewApp(cfg)
		authCode = desktop.PromptAuthCode
	}

	m := metrics.NewManager()

	model, err := llm.New(ctx, cfg.LLMConfig())
	if err != nil {
		return fmt.Errorf("failed to create %s model client: %w", cfg.LLMBackend, err)
	}
	defer model.Close()

	services := agent.Services{Model: model, UsageSink: m}

	var authorizer *google.Authorizer
	if cfg.GoogleEnabled() {
		tokenPath, err := cfg.TokenPath()
		if err != nil {
			return err
		}
		authorizer, err = google.NewAuthorizer(cfg.OAuthClientSecretPath, tokenPath, authCode)
		if err != nil {
			return err
		}

		orch, err := calendar.NewOrchestrator(google.NewCalendarClient(authorizer, cfg.CalendarID), cfg.TimeZone)
		if err != nil {
			return err
		}
		services.Calendar = orch.WithObserver(m)
		services.Mailer = messaging.NewDispatcher(google.NewGmailMailer(authorizer)).WithObserver(m)
	} else {
		log.Warn(ctx, "oauth_client_secret_path not set; scheduling and email workflows are disabled")
	}

	store := agent.NewStore(services, m)

	if guiMode {
		if authorizer != nil {
			desktop.SetConnector(authorizer)
		}
		_, session := store.Create()
		log.Info(ctx, "starting desktop app", logger.String("backend", cfg.LLMBackend))
		desktop.Start(session)
		return nil
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return err
	}
	server := api.NewServer(store, api.WithMetrics(m), api.WithLocation(loc))
	go store.RunEviction(ctx, sessionSweepInterval)

	addr := cfg.ListenAddr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting JadeHire", logger.String("addr", addr), logger.String("backend", cfg.LLMBackend))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
