package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slotwatch/slotwatch/internal/api"
	"github.com/slotwatch/slotwatch/internal/config"
	"github.com/slotwatch/slotwatch/internal/cowin"
	"github.com/slotwatch/slotwatch/internal/logger"
	"github.com/slotwatch/slotwatch/internal/metrics"
	"github.com/slotwatch/slotwatch/internal/notify"
	"github.com/slotwatch/slotwatch/internal/server"
	"github.com/slotwatch/slotwatch/internal/service"
	"github.com/slotwatch/slotwatch/internal/storage"
	"github.com/slotwatch/slotwatch/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the watcher and HTTP server",
	Long: "Start the poll loop against the CoWIN API and the HTTP server for\n" +
		"email subscriptions, stats and metrics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			port, err := cmd.Flags().GetInt("port")
			if err != nil {
				return fmt.Errorf("reading port flag: %w", err)
			}
			cfg.Port = port
		}
		return runServe(cfg)
	},
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port (overrides PORT env var)")
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.LogDir(), 0750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	sysLogger, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(cfg.TargetsFile); os.IsNotExist(statErr) {
		if err := seedTargetsFile(cfg.TargetsFile); err != nil {
			return fmt.Errorf("writing targets template: %w", err)
		}
		return fmt.Errorf("no watch targets configured; edit %s and restart", cfg.TargetsFile)
	}

	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return fmt.Errorf("loading watch targets: %w", err)
	}

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	sysLogger.Info("slotwatch starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.Bool("fresh_db", fresh),
		slog.Int("targets", len(targets)),
		slog.Duration("poll_interval", cfg.PollInterval),
	)

	subStore := storage.NewSQLiteSubscriberStore(db)
	statsStore := storage.NewSQLiteStatsStore(db)
	dispatchLog := storage.NewSQLiteDispatchLogStore(db)

	subSvc := service.NewSubscriptionService(subStore, cfg.UnsubscribeSecret)

	m := metrics.New()

	// Channels come up only when their credentials are configured.
	var chat, social, email notify.Provider
	if cfg.TelegramBotToken != "" {
		chat = notify.NewTelegramProvider(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	if cfg.TwitterAccessToken != "" {
		social = notify.NewTwitterProvider(cfg.TwitterAccessToken)
	}
	if cfg.SMTPHost != "" {
		email = notify.NewSMTPProvider(notify.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			FromAddr:   cfg.SMTPFromAddr,
			Encryption: cfg.SMTPEncryption,
		})
	}
	for name, p := range map[string]notify.Provider{"chat": chat, "social": social, "email": email} {
		if p == nil {
			sysLogger.Warn("notification channel disabled, credentials not configured", "channel", name)
		}
	}

	dispatcher := watch.NewDispatcher(watch.DispatcherConfig{
		TweetCapacityThreshold: cfg.TweetCapacityThreshold,
		UnsubscribeBaseURL:     cfg.BaseURL,
	}, watch.NewLedger(), chat, social, email, subStore, statsStore, dispatchLog, m, sysLogger)

	poller, err := watch.NewPoller(watch.PollerConfig{
		Targets:  targets,
		Interval: cfg.PollInterval,
		Location: loc,
		MinAge:   cfg.MinAgeLimit,
		Logger:   sysLogger,
		Metrics:  m,
	}, cowin.NewClient(), dispatcher)
	if err != nil {
		return fmt.Errorf("initializing poller: %w", err)
	}

	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("starting poller: %w", err)
	}
	defer func() {
		if err := poller.Stop(); err != nil {
			sysLogger.Error("stopping poller", "error", err)
		}
	}()

	apiSrv := api.New(subSvc, statsStore, dispatchLog, sysLogger)
	srv := server.New(apiSrv, m, cfg.Port, sysLogger)

	sysLogger.Info("server ready", "url", cfg.BaseURL)
	fmt.Fprintf(os.Stderr, "slotwatch running on http://localhost:%d (logs: %s)\n",
		cfg.Port, cfg.LogDir())

	return srv.Run(ctx)
}

// seedTargetsFile writes a commented template so a first run tells the
// operator exactly what to fill in.
func seedTargetsFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	template := `# slotwatch watch targets.
# Each target names exactly one of pincode or district_id.
# min_age and tweet_threshold are optional per-target overrides.
targets:
  - pincode: "461001"
  # - district_id: "312"
  #   min_age: 45
  #   tweet_threshold: 25
`
	return os.WriteFile(path, []byte(template), 0600)
}
