package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SecureConfig stores and retrieves encrypted configuration blobs, keyed
// by scope (e.g. "application" for the shared secrets Load reads).
type SecureConfig interface {
	// Latest decrypts and returns the stored plaintext for scope.
	Latest(scope string) ([]byte, error)

	// Save encrypts plaintextData and writes it as the current content
	// for scope.
	Save(scope string, plaintextData []byte) error
}

// secureConfigAge implements SecureConfig using age, storing one
// encrypted file per scope under a base directory. Unlike the
// DB-versioned config store this generalizes from, the fraud-scoring
// schema has no config-versioning table to put secrets in, so this
// reads and writes the encrypted blob directly on disk.
type secureConfigAge struct {
	baseDir    string
	ageKeyPath string
	logger     *slog.Logger
}

// NewSecureConfigAge creates a SecureConfig backed by age-encrypted files
// under baseDir, one per scope, using the identity in ageKeyPath.
func NewSecureConfigAge(baseDir, ageKeyPath string, logger *slog.Logger) SecureConfig {
	return &secureConfigAge{
		baseDir:    baseDir,
		ageKeyPath: ageKeyPath,
		logger:     logger.With("secure_config_type", "age"),
	}
}

func (s *secureConfigAge) scopePath(scope string) string {
	return s.baseDir + "/" + scope + ".age"
}

func (s *secureConfigAge) Latest(scope string) ([]byte, error) {
	encryptedData, err := os.ReadFile(s.scopePath(scope))
	if err != nil {
		return nil, fmt.Errorf("secureconfig: failed to read encrypted file for scope '%s': %w", scope, err)
	}

	identities, err := loadAndParseIdentities(s.ageKeyPath, s.logger, "decryption")
	if err != nil {
		return nil, err
	}

	decryptedReader, err := ageDecrypt(bytes.NewReader(encryptedData), identities)
	if err != nil {
		return nil, fmt.Errorf("secureconfig: failed to decrypt configuration for scope '%s': %w", scope, err)
	}

	decryptedBytes, err := io.ReadAll(decryptedReader)
	if err != nil {
		return nil, fmt.Errorf("secureconfig: failed to read decrypted stream for scope '%s': %w", scope, err)
	}

	return decryptedBytes, nil
}

func (s *secureConfigAge) Save(scope string, plaintextData []byte) error {
	identities, err := loadAndParseIdentities(s.ageKeyPath, s.logger, "encryption")
	if err != nil {
		return err
	}

	encryptedData, err := ageEncrypt(identities, plaintextData)
	if err != nil {
		return fmt.Errorf("secureconfig: failed to encrypt configuration for scope '%s': %w", scope, err)
	}

	if err := os.WriteFile(s.scopePath(scope), encryptedData, 0o600); err != nil {
		return fmt.Errorf("secureconfig: failed to write encrypted file for scope '%s': %w", scope, err)
	}

	s.logger.Info("saved secure config", "scope", scope)
	return nil
}
