// Package setup is the composition root: it builds every long-lived
// dependency (storage, cache, blocklist, CAPTCHA, signal collectors,
// notifier, router) and wires them into a core.App and a background
// job scheduler.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caasmo/fraudgate/blocklist"
	ristretto "github.com/caasmo/fraudgate/cache/ristretto"
	"github.com/caasmo/fraudgate/captcha"
	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/core"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/db/zombiezen"
	"github.com/caasmo/fraudgate/emailrep"
	"github.com/caasmo/fraudgate/erfid"
	"github.com/caasmo/fraudgate/notify"
	"github.com/caasmo/fraudgate/notify/discord"
	"github.com/caasmo/fraudgate/queue/executor"
	"github.com/caasmo/fraudgate/queue/scheduler"
	"github.com/caasmo/fraudgate/router"
	"github.com/caasmo/fraudgate/router/httprouter"
	"github.com/caasmo/fraudgate/signals"
	phuslog "github.com/phuslu/log"
)

// velocityBucketSize and velocityNumBuckets give every signal tracker a
// one-hour sliding window in 30s buckets. Width/depth are the sketch's
// count-min-sketch dimensions, sized generously since a tracker is
// process-wide and shared across every submission.
const (
	velocityBucketSize = 30 * time.Second
	velocityNumBuckets = 120
	velocityWidth      = 2048
	velocityDepth      = 4
)

// NewTextLogger builds the text-handler slog.Logger used for local and
// CI runs, where a human is reading stderr directly.
func NewTextLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// NewJSONLogger builds the phuslu/log-backed JSON slog handler used in
// production, where stderr is scraped by a log aggregator.
func NewJSONLogger() *slog.Logger {
	return slog.New(phuslog.SlogNewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// NewLogger picks NewJSONLogger for a "production" environment and
// NewTextLogger otherwise.
func NewLogger(environment string) *slog.Logger {
	if environment == "production" {
		return NewJSONLogger()
	}
	return NewTextLogger()
}

// SetupApp builds the fully-wired core.App, registers its routes, and
// returns the underlying database and blocklist store so the caller can
// pass them to SetupScheduler and manage their lifecycle.
func SetupApp(cfg *config.Config, logger *slog.Logger) (*core.App, db.Db, *blocklist.Store, error) {
	database, err := zombiezen.New(cfg.DBFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: open database: %w", err)
	}

	fastPath, err := ristretto.New[bool]("small")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: build blocklist fast-path cache: %w", err)
	}

	appCache, err := ristretto.New[interface{}](cfg.CacheLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: build app cache: %w", err)
	}

	schedule := make([]time.Duration, len(cfg.Fraud.BlockSchedule))
	for i, d := range cfg.Fraud.BlockSchedule {
		schedule[i] = d.Duration
	}
	blocklistStore := blocklist.New(database, fastPath, schedule)

	notifier, err := setupNotifier(cfg.Discord, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: build notifier: %w", err)
	}

	captchaValidator := captcha.New(captcha.Config{
		SecretKey:     cfg.Captcha.SecretKey,
		SiteverifyURL: cfg.Captcha.SiteverifyURL,
		Timeout:       cfg.Captcha.Timeout.Duration,
	}, database, notifier)

	erfidGen, err := erfid.NewGenerator(erfid.Config{
		Prefix: cfg.Erfid.Prefix,
		Format: erfid.Format(cfg.Erfid.Format),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: build erfid generator: %w", err)
	}

	emailClient := emailrep.New(emailrep.Config{
		Endpoint: cfg.Email.Endpoint,
		APIKey:   cfg.Email.APIKey,
		Timeout:  cfg.Email.Timeout.Duration,
	})

	signalDeps := signals.Deps{
		DB:              database,
		Validations:     database,
		Baselines:       database,
		JA4LayerA:       newVelocityTracker(),
		JA4LayerB:       newVelocityTracker(),
		JA4LayerC:       newVelocityTracker(),
		IPRateTracker:   newVelocityTracker(),
		HeaderFPTracker: newVelocityTracker(),
	}

	provider := config.NewProvider(cfg)

	app, err := core.NewApp(
		core.WithDb(database),
		core.WithCache(appCache),
		core.WithRouter(httprouter.New()),
		core.WithConfigProvider(provider),
		core.WithLogger(logger),
		core.WithNotifier(notifier),
		core.WithBlocklist(blocklistStore),
		core.WithCaptcha(captchaValidator),
		core.WithErfidGenerator(erfidGen),
		core.WithEmailClient(emailClient),
		core.WithSignalDeps(signalDeps),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: build app: %w", err)
	}

	registerRoutes(app.Router(), app)

	return app, database, blocklistStore, nil
}

func newVelocityTracker() *signals.VelocityTracker {
	return signals.NewVelocityTracker(velocityNumBuckets, velocityBucketSize, velocityWidth, velocityDepth)
}

// registerRoutes binds the submission endpoint and the metrics scrape
// endpoint, wrapping both behind the logging middleware.
func registerRoutes(r router.Router, app *core.App) {
	r.Handler(http.MethodPost, "/v1/submissions", app.Logger(http.HandlerFunc(app.SubmitHandler)))
	r.Handler(http.MethodGet, "/metrics", app.Logger(http.HandlerFunc(app.MetricsHandler)))
	r.Handler(http.MethodGet, "/healthz", app.Logger(http.HandlerFunc(app.HealthHandler)))
}

func setupNotifier(cfg config.Discord, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.Activated {
		return notify.NewNilNotifier(), nil
	}
	return discord.New(discord.Options{
		WebhookURL: cfg.WebhookURL,
	}, logger)
}

// SetupScheduler wires the blocklist janitor, the only background job
// this domain needs, onto the shared job queue.
func SetupScheduler(cfg *config.Config, d db.Db, blocklistStore *blocklist.Store, logger *slog.Logger) *SchedulerDaemon {
	exec := executor.New(logger, map[string]executor.JobHandler{
		db.JobTypeBlocklistJanitor: executor.NewBlocklistJanitorHandler(blocklistStore, logger),
	})
	sched := scheduler.New(cfg.Scheduler, db.JobTypeBlocklistJanitor, d, exec, logger)
	return &SchedulerDaemon{sched: sched}
}

// SchedulerDaemon adapts *scheduler.Scheduler (whose Start is
// fire-and-forget) to server.Daemon, whose Start reports an error.
type SchedulerDaemon struct {
	sched *scheduler.Scheduler
}

func (d *SchedulerDaemon) Name() string { return "blocklist-janitor-scheduler" }

func (d *SchedulerDaemon) Start() error {
	d.sched.Start()
	return nil
}

func (d *SchedulerDaemon) Stop(ctx context.Context) error {
	return d.sched.Stop(ctx)
}
