package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variable names for secrets that never live in the TOML file
// on disk, per spec §6.
const (
	EnvCaptchaSecretKey  = "TURNSTILE_SECRET_KEY"
	EnvEmailAPIKey       = "EMAIL_REPUTATION_API_KEY"
	EnvTestingAPIKey     = "X_API_KEY"
	EnvAllowTestBypass   = "ALLOW_TESTING_BYPASS"
	EnvAllowedOrigins    = "ALLOWED_ORIGINS"
	EnvEnvironment       = "ENVIRONMENT"
	EnvSecureConfigScope = "application"
)

// Load builds the application configuration: defaults, then an optional
// TOML file overlay, then secrets from the environment (or, when
// secureConfig is non-nil, from an age-encrypted blob instead of plain
// env vars). dbFile overrides whatever DBFile the TOML/defaults set.
func Load(tomlPath string, dbFile string, secureConfig SecureConfig, logger *slog.Logger) (*Config, error) {
	cfg := NewDefaultConfig()

	if tomlPath != "" {
		data, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read toml file '%s': %w", tomlPath, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to unmarshal toml: %w", err)
		}
	}

	if dbFile != "" {
		cfg.DBFile = dbFile
	}

	if err := loadSecrets(cfg, secureConfig, logger); err != nil {
		return nil, fmt.Errorf("config: failed to load secrets: %w", err)
	}

	if env := os.Getenv(EnvAllowedOrigins); env != "" {
		var origins []string
		for _, o := range strings.Split(env, ",") {
			if o := strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	if env := os.Getenv(EnvEnvironment); env != "" {
		cfg.Server.Environment = env
	}
	if os.Getenv(EnvAllowTestBypass) == "true" {
		cfg.Testing.AllowBypass = true
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// loadSecrets fills in the fields tagged `toml:"-"`. When secureConfig is
// provided it takes priority over plain environment variables, since an
// age-encrypted file at rest is strictly safer than process env on a
// shared host.
func loadSecrets(cfg *Config, secureConfig SecureConfig, logger *slog.Logger) error {
	if secureConfig != nil {
		plaintext, err := secureConfig.Latest(EnvSecureConfigScope)
		if err != nil {
			logger.Warn("no encrypted secrets available, falling back to environment", "error", err)
		} else {
			var secrets struct {
				CaptchaSecretKey string
				EmailAPIKey      string
				TestingAPIKey    string
			}
			if err := toml.Unmarshal(plaintext, &secrets); err != nil {
				return fmt.Errorf("failed to unmarshal decrypted secrets: %w", err)
			}
			cfg.Captcha.SecretKey = secrets.CaptchaSecretKey
			cfg.Email.APIKey = secrets.EmailAPIKey
			cfg.Testing.APIKey = secrets.TestingAPIKey
		}
	}

	if cfg.Captcha.SecretKey == "" {
		cfg.Captcha.SecretKey = os.Getenv(EnvCaptchaSecretKey)
	}
	if cfg.Email.APIKey == "" {
		cfg.Email.APIKey = os.Getenv(EnvEmailAPIKey)
	}
	if cfg.Testing.APIKey == "" {
		cfg.Testing.APIKey = os.Getenv(EnvTestingAPIKey)
	}

	return nil
}
