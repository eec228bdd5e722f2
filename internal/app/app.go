package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
	"github.com/five82/backoffice/internal/config"
	"github.com/five82/backoffice/internal/logging"
	"github.com/five82/backoffice/internal/prefs"
	"github.com/five82/backoffice/internal/session"
	"github.com/five82/backoffice/internal/ui"
)

// Options configure the backoffice application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/backoffice/prefs.toml
	PollEvery  int    // seconds; zero uses the configured interval
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = closeLog() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIURL,
		Store:   &session.Store{},
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	svc := appointments.NewService(client, logger)
	owner := NewSessionOwner(client, logger)

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	logger.Info("backoffice started",
		slog.String("api_url", cfg.APIURL),
		slog.Duration("poll_interval", interval),
	)

	uiOpts := ui.Options{
		Context:  ctx,
		Client:   client,
		Service:  svc,
		OnError:  owner.Observe,
		LogPath:  cfg.LogPath,
		PollTick: interval,
		StartPoller: func(pollCtx context.Context) {
			StartPoller(pollCtx, svc, interval, logger, owner.Observe)
		},
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
	}
	return ui.Run(uiOpts)
}
