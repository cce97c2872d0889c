package core

import (
	"log/slog"

	"github.com/caasmo/fraudgate/blocklist"
	"github.com/caasmo/fraudgate/cache"
	"github.com/caasmo/fraudgate/captcha"
	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/erfid"
	"github.com/caasmo/fraudgate/notify"
	"github.com/caasmo/fraudgate/router"
	"github.com/caasmo/fraudgate/signals"
)

type Option func(*App)

// WithDb sets the persistence layer.
func WithDb(d db.Db) Option {
	return func(a *App) {
		a.db = d
	}
}

// WithCache sets the cache implementation.
func WithCache(c cache.Cache[string, interface{}]) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithRouter sets the router implementation.
func WithRouter(r router.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

// WithConfigProvider sets the application's configuration provider.
func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.config = p
	}
}

// WithLogger sets the logger implementation.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithNotifier sets the operator-alert notifier. Defaults to a no-op
// notifier if never set.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithBlocklist sets the blocklist store.
func WithBlocklist(s *blocklist.Store) Option {
	return func(a *App) {
		a.blocklist = s
	}
}

// WithCaptcha sets the Turnstile validator.
func WithCaptcha(v *captcha.Validator) Option {
	return func(a *App) {
		a.captcha = v
	}
}

// WithErfidGenerator sets the request-tracking id generator.
func WithErfidGenerator(g *erfid.Generator) Option {
	return func(a *App) {
		a.erfidGen = g
	}
}

// WithEmailClient sets the email-reputation RPC client.
func WithEmailClient(c signals.EmailReputationClient) Option {
	return func(a *App) {
		a.emailClient = c
	}
}

// WithSignalDeps sets the read-only dependencies the signal collectors need.
func WithSignalDeps(d signals.Deps) Option {
	return func(a *App) {
		a.signalDeps = d
	}
}
