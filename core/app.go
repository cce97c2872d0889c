// Package core wires the submission pipeline: request metadata extraction,
// blocklist checks, CAPTCHA verification, concurrent signal collection,
// risk scoring, and persistence, behind a single HTTP handler.
package core

import (
	"fmt"
	"log/slog"

	"github.com/caasmo/fraudgate/blocklist"
	"github.com/caasmo/fraudgate/cache"
	"github.com/caasmo/fraudgate/captcha"
	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/erfid"
	"github.com/caasmo/fraudgate/notify"
	"github.com/caasmo/fraudgate/router"
	"github.com/caasmo/fraudgate/scoring"
	"github.com/caasmo/fraudgate/signals"
)

// App is the application-wide context. Heavy, long-lived objects
// (db connections, caches, validators) live here; all handlers and
// middleware take App as their receiver.
type App struct {
	db       db.Db
	router   router.Router
	cache    cache.Cache[string, interface{}]
	config   *config.Provider
	logger   *slog.Logger
	notifier notify.Notifier

	blocklist   *blocklist.Store
	captcha     *captcha.Validator
	erfidGen    *erfid.Generator
	emailClient signals.EmailReputationClient
	signalDeps  signals.Deps
	validator   Validator
}

func NewApp(opts ...Option) (*App, error) {
	a := &App{validator: NewValidator()}
	for _, opt := range opts {
		opt(a)
	}

	if a.db == nil {
		return nil, fmt.Errorf("db is required but was not provided")
	}
	if a.router == nil {
		return nil, fmt.Errorf("router is required but was not provided")
	}
	if a.config == nil {
		return nil, fmt.Errorf("config provider is required but was not provided")
	}
	if a.logger == nil {
		return nil, fmt.Errorf("logger is required but was not provided")
	}
	if a.blocklist == nil {
		return nil, fmt.Errorf("blocklist store is required but was not provided")
	}
	if a.captcha == nil {
		return nil, fmt.Errorf("captcha validator is required but was not provided")
	}
	if a.erfidGen == nil {
		return nil, fmt.Errorf("erfid generator is required but was not provided")
	}
	if a.notifier == nil {
		a.notifier = notify.NewNilNotifier()
	}

	return a, nil
}

// Router returns the application's router instance.
func (a *App) Router() router.Router {
	return a.router
}

// Close releases the underlying database connection.
func (a *App) Close() error {
	return a.db.Close()
}

// Db returns the database instance.
func (a *App) Db() db.Db {
	return a.db
}

// Logger returns the application's logger instance.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Cache returns the application's cache instance.
func (a *App) Cache() cache.Cache[string, interface{}] {
	return a.cache
}

// Config returns the currently active application config snapshot.
func (a *App) Config() *config.Config {
	return a.config.Get()
}

// ConfigProvider returns the underlying provider, for components (like
// the server) that need to hand config updates to other atomic readers.
func (a *App) ConfigProvider() *config.Provider {
	return a.config
}

// SetConfig atomically replaces the active configuration, for hot reload
// on SIGHUP.
func (a *App) SetConfig(newCfg *config.Config) {
	if newCfg == nil {
		a.logger.Error("attempted to set nil configuration")
		return
	}
	a.config.Update(newCfg)
	a.logger.Info("configuration reloaded successfully")
}

// Blocklist returns the blocklist store used by the pre-scoring fast
// check and the duplicate-email/block-decision writes.
func (a *App) Blocklist() *blocklist.Store {
	return a.blocklist
}

// Captcha returns the Turnstile validator.
func (a *App) Captcha() *captcha.Validator {
	return a.captcha
}

// ErfidGenerator returns the request-tracking id generator.
func (a *App) ErfidGenerator() *erfid.Generator {
	return a.erfidGen
}

// Notifier returns the operator-alert notifier.
func (a *App) Notifier() notify.Notifier {
	return a.notifier
}

// EmailClient returns the email-reputation RPC client.
func (a *App) EmailClient() signals.EmailReputationClient {
	return a.emailClient
}

// SignalDeps returns the read-only dependencies the signal collectors need.
func (a *App) SignalDeps() signals.Deps {
	return a.signalDeps
}

// scoringConfig converts the current Fraud config section into
// scoring.Config, the shape the pure scoring engine consumes.
func scoringConfig(f config.Fraud) scoring.Config {
	return scoring.Config{
		Weights: scoring.Weights{
			TokenReplay:         f.Weights.TokenReplay,
			EmailFraud:          f.Weights.EmailFraud,
			EphemeralID:         f.Weights.EphemeralID,
			ValidationFrequency: f.Weights.ValidationFrequency,
			IPDiversity:         f.Weights.IPDiversity,
			JA4SessionHopping:   f.Weights.JA4SessionHopping,
			IPRateLimit:         f.Weights.IPRateLimit,
			HeaderFingerprint:   f.Weights.HeaderFingerprint,
			TLSAnomaly:          f.Weights.TLSAnomaly,
			LatencyMismatch:     f.Weights.LatencyMismatch,
		},
		Thresholds: scoring.Thresholds{
			Block:            f.Thresholds.Block,
			EphemeralIDCount: f.Thresholds.EphemeralIDCount,
			ValidationWarn:   f.Thresholds.ValidationWarn,
			ValidationBlock:  f.Thresholds.ValidationBlock,
			IPDiversity:      f.Thresholds.IPDiversity,
		},
	}
}

// signalsConfig converts the current Fraud config section into
// signals.Config, the shape the collectors consume.
func signalsConfig(f config.Fraud) signals.Config {
	datacenterASNs := make(map[int64]bool, len(f.Fingerprint.DatacenterASNs))
	for _, asn := range f.Fingerprint.DatacenterASNs {
		datacenterASNs[asn] = true
	}
	return signals.Config{
		Email: signals.EmailConfig{
			Consumer: f.Email.Consumer,
			Flow:     f.Email.Flow,
		},
		EphemeralID: signals.EphemeralIDConfig{
			SubmissionWarnThreshold:  f.EphemeralID.SubmissionWarnThreshold,
			ValidationBlockThreshold: f.EphemeralID.ValidationBlockThreshold,
			ValidationWarnThreshold:  f.EphemeralID.ValidationWarnThreshold,
			IPWarnThreshold:          f.EphemeralID.IPWarnThreshold,
		},
		JA4: signals.JA4Config{
			LayerAWindow:          f.JA4.LayerAWindow.Duration,
			RapidGlobalWindow:     f.JA4.RapidGlobalWindow.Duration,
			ExtendedGlobalWindow:  f.JA4.ExtendedGlobalWindow.Duration,
			VelocityThreshold:     f.JA4.VelocityThreshold.Duration,
			IPsQuantileThreshold:  f.JA4.IPsQuantileThreshold,
			ReqsQuantileThreshold: f.JA4.ReqsQuantileThreshold,
		},
		IPRate: signals.IPRateConfig{
			Window: f.IPRate.Window.Duration,
		},
		Fingerprint: signals.FingerprintConfig{
			HeaderReuseWindow:         f.Fingerprint.HeaderReuseWindow.Duration,
			HeaderReuseIPThreshold:    f.Fingerprint.HeaderReuseIPThreshold,
			HeaderReuseJA4Threshold:   f.Fingerprint.HeaderReuseJA4Threshold,
			HeaderReuseCountThreshold: f.Fingerprint.HeaderReuseCountThreshold,
			MinJA4Observations:        f.Fingerprint.MinJA4Observations,
			BaselineWindow:            f.Fingerprint.BaselineWindow.Duration,
			MobileRTTThresholdMs:      f.Fingerprint.MobileRTTThresholdMs,
			DatacenterASNs:            datacenterASNs,
		},
	}
}
