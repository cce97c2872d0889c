package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Validate checks the entire configuration for correctness, aggregating
// per-section checks the way each config region owns its own invariants.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateScheduler(&cfg.Scheduler); err != nil {
		return fmt.Errorf("scheduler config validation failed: %w", err)
	}
	if err := validateCaptcha(&cfg.Captcha); err != nil {
		return fmt.Errorf("captcha config validation failed: %w", err)
	}
	if err := validateEmail(&cfg.Email); err != nil {
		return fmt.Errorf("email config validation failed: %w", err)
	}
	if err := validateDiscord(&cfg.Discord); err != nil {
		return fmt.Errorf("discord config validation failed: %w", err)
	}
	if err := validateFraud(&cfg.Fraud); err != nil {
		return fmt.Errorf("fraud config validation failed: %w", err)
	}
	return nil
}

func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	_, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
	}
	if err := validatePort(port); err != nil {
		return fmt.Errorf("invalid server port in address '%s': %w", server.Addr, err)
	}
	return nil
}

func validatePort(portStr string) error {
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number: %w", portStr, err)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("invalid port '%d': must be between 1 and 65535", portNum)
	}
	return nil
}

func validateScheduler(s *Scheduler) error {
	if s.Interval.Duration <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	if s.MaxJobsPerTick < 1 {
		return fmt.Errorf("scheduler.max_jobs_per_tick must be >= 1")
	}
	if s.ConcurrencyMultiplier < 1 {
		return fmt.Errorf("scheduler.concurrency_multiplier must be >= 1")
	}
	return nil
}

func validateCaptcha(c *Captcha) error {
	if c.SiteverifyURL == "" {
		return fmt.Errorf("captcha.siteverify_url cannot be empty")
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("captcha.timeout must be positive")
	}
	return nil
}

func validateEmail(e *EmailReputation) error {
	if e.Endpoint == "" {
		// Disabled: the email-fraud signal collector fails open when unset.
		return nil
	}
	if e.Timeout.Duration <= 0 {
		return fmt.Errorf("email.timeout must be positive")
	}
	return nil
}

func validateDiscord(d *Discord) error {
	if !d.Activated {
		return nil
	}
	if d.WebhookURL == "" {
		return fmt.Errorf("discord.webhook_url cannot be empty when activated")
	}
	if !strings.Contains(d.WebhookURL, "discord.com/api/webhooks/") &&
		!strings.Contains(d.WebhookURL, "discordapp.com/api/webhooks/") {
		return fmt.Errorf("discord.webhook_url must contain discord.com/api/webhooks/ or discordapp.com/api/webhooks/")
	}
	return nil
}

func validateFraud(f *Fraud) error {
	if len(f.BlockSchedule) == 0 {
		return fmt.Errorf("fraud.block_schedule cannot be empty")
	}
	for i, d := range f.BlockSchedule {
		if d.Duration <= 0 {
			return fmt.Errorf("fraud.block_schedule[%d] must be positive", i)
		}
	}

	sum := f.Weights.TokenReplay + f.Weights.EmailFraud + f.Weights.EphemeralID +
		f.Weights.ValidationFrequency + f.Weights.IPDiversity + f.Weights.JA4SessionHopping +
		f.Weights.IPRateLimit + f.Weights.HeaderFingerprint + f.Weights.TLSAnomaly +
		f.Weights.LatencyMismatch
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("fraud.weights must sum to 1.0, got %.4f", sum)
	}

	if f.Thresholds.Block <= 0 || f.Thresholds.Block > 100 {
		return fmt.Errorf("fraud.thresholds.block must be between 0 and 100")
	}
	if f.Thresholds.EphemeralIDCount < 1 {
		return fmt.Errorf("fraud.thresholds.ephemeral_id_count must be >= 1")
	}
	if f.Thresholds.ValidationBlock < f.Thresholds.ValidationWarn {
		return fmt.Errorf("fraud.thresholds.validation_block must be >= validation_warn")
	}

	return nil
}
