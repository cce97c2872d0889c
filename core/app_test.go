package core

import (
	"io"
	"log/slog"
	"testing"

	"github.com/caasmo/fraudgate/blocklist"
	"github.com/caasmo/fraudgate/captcha"
	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/db/mock"
	"github.com/caasmo/fraudgate/erfid"
	"github.com/caasmo/fraudgate/notify"
	"github.com/caasmo/fraudgate/router/httprouter"
)

func TestNewAppRequiresCoreDependencies(t *testing.T) {
	m := &mock.Db{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := erfid.NewGenerator(erfid.DefaultConfig())
	if err != nil {
		t.Fatalf("erfid.NewGenerator: %v", err)
	}

	cases := []struct {
		name string
		opts []Option
	}{
		{"missing db", []Option{WithRouter(httprouter.New()), WithConfigProvider(config.NewProvider(config.NewDefaultConfig())), WithLogger(logger), WithBlocklist(blocklist.New(m, nil, nil)), WithCaptcha(captcha.New(captcha.Config{}, m, notify.NewNilNotifier())), WithErfidGenerator(g)}},
		{"missing router", []Option{WithDb(m), WithConfigProvider(config.NewProvider(config.NewDefaultConfig())), WithLogger(logger), WithBlocklist(blocklist.New(m, nil, nil)), WithCaptcha(captcha.New(captcha.Config{}, m, notify.NewNilNotifier())), WithErfidGenerator(g)}},
		{"missing logger", []Option{WithDb(m), WithRouter(httprouter.New()), WithConfigProvider(config.NewProvider(config.NewDefaultConfig())), WithBlocklist(blocklist.New(m, nil, nil)), WithCaptcha(captcha.New(captcha.Config{}, m, notify.NewNilNotifier())), WithErfidGenerator(g)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewApp(tc.opts...); err == nil {
				t.Fatal("expected an error for missing required dependency")
			}
		})
	}
}

func TestNewAppDefaultsNotifier(t *testing.T) {
	m := &mock.Db{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := erfid.NewGenerator(erfid.DefaultConfig())
	if err != nil {
		t.Fatalf("erfid.NewGenerator: %v", err)
	}

	a, err := NewApp(
		WithDb(m),
		WithRouter(httprouter.New()),
		WithConfigProvider(config.NewProvider(config.NewDefaultConfig())),
		WithLogger(logger),
		WithBlocklist(blocklist.New(m, nil, nil)),
		WithCaptcha(captcha.New(captcha.Config{}, m, notify.NewNilNotifier())),
		WithErfidGenerator(g),
	)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if a.Notifier() == nil {
		t.Error("expected a default notifier to be set")
	}
}

func TestScoringConfigConvertsFraudSection(t *testing.T) {
	f := config.NewDefaultConfig().Fraud
	sc := scoringConfig(f)
	if sc.Weights.TokenReplay != f.Weights.TokenReplay {
		t.Errorf("TokenReplay weight = %v, want %v", sc.Weights.TokenReplay, f.Weights.TokenReplay)
	}
	if sc.Thresholds.Block != f.Thresholds.Block {
		t.Errorf("Block threshold = %v, want %v", sc.Thresholds.Block, f.Thresholds.Block)
	}
}

func TestSignalsConfigConvertsDatacenterASNs(t *testing.T) {
	f := config.NewDefaultConfig().Fraud
	f.Fingerprint.DatacenterASNs = []int64{13335, 16509}

	sc := signalsConfig(f)
	if !sc.Fingerprint.DatacenterASNs[13335] || !sc.Fingerprint.DatacenterASNs[16509] {
		t.Errorf("DatacenterASNs = %v, want both 13335 and 16509 present", sc.Fingerprint.DatacenterASNs)
	}
	if len(sc.Fingerprint.DatacenterASNs) != 2 {
		t.Errorf("DatacenterASNs has %d entries, want 2", len(sc.Fingerprint.DatacenterASNs))
	}
}
