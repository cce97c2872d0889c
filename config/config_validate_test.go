package config

import "testing"

func newTestConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Captcha.SecretKey = "test-secret"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid default config", func(t *testing.T) {
		cfg := newTestConfig()
		if err := Validate(cfg); err != nil {
			t.Fatalf("Validate() with default config failed: %v", err)
		}
	})

	errorCases := []struct {
		name    string
		mutator func(*Config)
	}{
		{"invalid server", func(c *Config) { c.Server.Addr = "invalid" }},
		{"invalid scheduler", func(c *Config) { c.Scheduler.Interval = Duration{0} }},
		{"invalid captcha", func(c *Config) { c.Captcha.SiteverifyURL = "" }},
		{"invalid discord", func(c *Config) { c.Discord.Activated = true; c.Discord.WebhookURL = "" }},
		{"invalid fraud schedule", func(c *Config) { c.Fraud.BlockSchedule = nil }},
		{"invalid fraud weights", func(c *Config) { c.Fraud.Weights.TokenReplay = 0 }},
		{"invalid fraud thresholds", func(c *Config) { c.Fraud.Thresholds.Block = 0 }},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tt.mutator(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("Validate() expected an error for %s, but got nil", tt.name)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	t.Parallel()
	validCases := []Server{
		{Addr: ":8080"},
		{Addr: "localhost:8080"},
	}
	for _, cfg := range validCases {
		if err := validateServer(&cfg); err != nil {
			t.Errorf("validateServer(%+v) failed: %v", cfg, err)
		}
	}

	invalidCases := []Server{
		{},
		{Addr: "localhost"},
		{Addr: ":99999"},
	}
	for _, cfg := range invalidCases {
		if err := validateServer(&cfg); err == nil {
			t.Errorf("validateServer(%+v) expected error, got nil", cfg)
		}
	}
}

func TestValidateScheduler(t *testing.T) {
	t.Parallel()
	valid := Scheduler{Interval: Duration{1}, MaxJobsPerTick: 1, ConcurrencyMultiplier: 1}
	if err := validateScheduler(&valid); err != nil {
		t.Errorf("valid case failed: %v", err)
	}

	invalidCases := []Scheduler{
		{Interval: Duration{0}, MaxJobsPerTick: 1, ConcurrencyMultiplier: 1},
		{Interval: Duration{1}, MaxJobsPerTick: 0, ConcurrencyMultiplier: 1},
		{Interval: Duration{1}, MaxJobsPerTick: 1, ConcurrencyMultiplier: 0},
	}
	for _, cfg := range invalidCases {
		if err := validateScheduler(&cfg); err == nil {
			t.Errorf("validateScheduler(%+v) expected error, got nil", cfg)
		}
	}
}

func TestValidateDiscord(t *testing.T) {
	t.Parallel()
	validCases := []Discord{
		{Activated: false},
		{Activated: true, WebhookURL: "https://discord.com/api/webhooks/1/2"},
		{Activated: true, WebhookURL: "https://discordapp.com/api/webhooks/1/2"},
	}
	for _, cfg := range validCases {
		if err := validateDiscord(&cfg); err != nil {
			t.Errorf("validateDiscord(%+v) failed: %v", cfg, err)
		}
	}

	invalidCases := []Discord{
		{Activated: true},
		{Activated: true, WebhookURL: "https://example.com"},
	}
	for _, cfg := range invalidCases {
		if err := validateDiscord(&cfg); err == nil {
			t.Errorf("validateDiscord(%+v) expected error, got nil", cfg)
		}
	}
}

func TestValidateFraud(t *testing.T) {
	t.Parallel()
	valid := NewDefaultConfig().Fraud
	if err := validateFraud(&valid); err != nil {
		t.Errorf("valid case failed: %v", err)
	}

	badWeights := valid
	badWeights.Weights.TokenReplay = 0
	if err := validateFraud(&badWeights); err == nil {
		t.Error("expected error for weights not summing to 1.0")
	}

	badSchedule := valid
	badSchedule.BlockSchedule = []Duration{{0}}
	if err := validateFraud(&badSchedule); err == nil {
		t.Error("expected error for non-positive schedule entry")
	}

	badThresholds := valid
	badThresholds.Thresholds.ValidationBlock = 1
	badThresholds.Thresholds.ValidationWarn = 2
	if err := validateFraud(&badThresholds); err == nil {
		t.Error("expected error when validation_block < validation_warn")
	}
}
