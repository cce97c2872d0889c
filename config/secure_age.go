package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"filippo.io/age"
)

// loadAndParseIdentities reads the age key file, parses the identities,
// and zeroes the raw key material immediately after parsing.
func loadAndParseIdentities(keyPath string, logger *slog.Logger, operation string) ([]age.Identity, error) {
	keyContent, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("secureconfig: failed to read age key file '%s' for %s: %w", keyPath, operation, err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyContent))

	for i := range keyContent {
		keyContent[i] = 0
	}

	if err != nil {
		return nil, fmt.Errorf("secureconfig: failed to parse age identities from key file '%s' for %s: %w", keyPath, operation, err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("secureconfig: no age identities found in key file '%s' for %s", keyPath, operation)
	}
	if _, ok := identities[0].(*age.X25519Identity); !ok {
		return nil, fmt.Errorf("secureconfig: unsupported age identity type '%T' - must be X25519", identities[0])
	}

	return identities, nil
}

func ageDecrypt(r io.Reader, identities []age.Identity) (io.Reader, error) {
	return age.Decrypt(r, identities...)
}

func ageEncrypt(identities []age.Identity, plaintext []byte) ([]byte, error) {
	recipient := identities[0].(*age.X25519Identity).Recipient()

	out := &bytes.Buffer{}
	w, err := age.Encrypt(out, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to create age encryption writer: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(plaintext)); err != nil {
		return nil, fmt.Errorf("failed to write data to age encryption writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close age encryption writer: %w", err)
	}
	return out.Bytes(), nil
}
