package config

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
)

// ScopeApplication is the SecureConfig scope holding the shared secrets
// (captcha, email-reputation, testing API key) reloadable without a
// process restart.
const ScopeApplication = "application"

// Reload returns a closure that fetches the latest encrypted secrets,
// merges them into a copy of the provider's current config, validates
// the result, and swaps it in. Wired to SIGHUP in cmd/fraudgate.
func Reload(secureConfig SecureConfig, provider *Provider, logger *slog.Logger) func() error {
	return func() error {
		decryptedBytes, err := secureConfig.Latest(ScopeApplication)
		if err != nil {
			logger.Error("reload: failed to fetch latest secrets", "error", err)
			return fmt.Errorf("failed to fetch latest secrets: %w", err)
		}
		if len(decryptedBytes) == 0 {
			return fmt.Errorf("fetched secrets are empty")
		}

		var secrets struct {
			CaptchaSecretKey string
			EmailAPIKey      string
			TestingAPIKey    string
		}
		if err := toml.Unmarshal(decryptedBytes, &secrets); err != nil {
			logger.Error("reload: failed to unmarshal secrets", "error", err)
			return fmt.Errorf("failed to unmarshal secrets: %w", err)
		}

		current := provider.Get()
		updated := *current
		updated.Captcha.SecretKey = secrets.CaptchaSecretKey
		updated.Email.APIKey = secrets.EmailAPIKey
		updated.Testing.APIKey = secrets.TestingAPIKey

		if err := Validate(&updated); err != nil {
			logger.Error("reload: updated configuration failed validation", "error", err)
			return fmt.Errorf("updated configuration failed validation: %w", err)
		}

		provider.Update(&updated)
		logger.Info("reload: configuration reloaded")
		return nil
	}
}
