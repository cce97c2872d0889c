package config

import (
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
)

func newTestKey(t *testing.T) string {
	t.Helper()
	key, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	keyPath := filepath.Join(t.TempDir(), "key.txt")
	if err := os.WriteFile(keyPath, []byte(key.String()), 0o600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}
	return keyPath
}

func TestSecureConfigAgeSaveAndLatestRoundtrip(t *testing.T) {
	t.Parallel()

	keyPath := newTestKey(t)
	baseDir := t.TempDir()
	store := NewSecureConfigAge(baseDir, keyPath, nullLogger())

	want := []byte("CaptchaSecretKey = \"my-secret\"\n")
	if err := store.Save(ScopeApplication, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Latest(ScopeApplication)
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Latest() got = %q, want %q", string(got), string(want))
	}
}

func TestSecureConfigAgeLatestFailures(t *testing.T) {
	t.Parallel()

	keyPath := newTestKey(t)
	baseDir := t.TempDir()

	t.Run("missing scope file", func(t *testing.T) {
		t.Parallel()
		store := NewSecureConfigAge(baseDir, keyPath, nullLogger())
		if _, err := store.Latest("missing"); err == nil {
			t.Error("expected error for missing encrypted file")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		store := NewSecureConfigAge(baseDir, keyPath, nullLogger())
		if err := store.Save("wrongkey", []byte("secret")); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}

		wrongKeyPath := newTestKey(t)
		wrongStore := NewSecureConfigAge(baseDir, wrongKeyPath, nullLogger())
		if _, err := wrongStore.Latest("wrongkey"); err == nil {
			t.Error("expected decryption failure with wrong key")
		}
	})

	t.Run("nonexistent key file", func(t *testing.T) {
		t.Parallel()
		store := NewSecureConfigAge(baseDir, "/path/to/nonexistent/key.txt", nullLogger())
		if _, err := store.Latest(ScopeApplication); err == nil {
			t.Error("expected error for nonexistent key file")
		}
	})
}

func TestLoadAndParseIdentitiesFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{"malformed key", "this-is-not-a-key"},
		{"empty key file", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			keyPath := filepath.Join(t.TempDir(), "key.txt")
			if err := os.WriteFile(keyPath, []byte(tc.content), 0o600); err != nil {
				t.Fatalf("failed to write key file: %v", err)
			}

			if _, err := loadAndParseIdentities(keyPath, nullLogger(), "test"); err == nil {
				t.Error("loadAndParseIdentities() expected an error, but got nil")
			}
		})
	}
}
