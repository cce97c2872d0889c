// Package erfid generates and parses the request-tracking identifier
// attached to every submission and validation event.
package erfid

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Format string

const (
	FormatUUID   Format = "uuid"
	FormatNano   Format = "nano"
	FormatCustom Format = "custom"
)

const nanoAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
const nanoLength = 21

var (
	uuidV4Re = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	nanoRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)
	tsRe     = regexp.MustCompile(`^\d{13}$`)
)

// Config configures the generator. Generator is required when Format is
// FormatCustom and forbidden otherwise.
type Config struct {
	Prefix           string
	Format           Format
	Generator        func() (string, error)
	IncludeTimestamp bool
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Format {
	case FormatUUID, FormatNano:
		if c.Generator != nil {
			return fmt.Errorf("erfid: generator must not be set for format %q", c.Format)
		}
	case FormatCustom:
		if c.Generator == nil {
			return fmt.Errorf("erfid: generator is required for format %q", c.Format)
		}
	default:
		return fmt.Errorf("erfid: unknown format %q", c.Format)
	}
	return nil
}

// DefaultConfig returns the documented defaults: prefix "erf", UUIDv4 base
// id, no embedded timestamp.
func DefaultConfig() Config {
	return Config{Prefix: "erf", Format: FormatUUID}
}

// Generator produces erfid values for a fixed Config.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "erf"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg}, nil
}

// Generate produces a new id of the form prefix_[timestamp_]baseId.
func (g *Generator) Generate() (string, error) {
	base, err := g.baseID()
	if err != nil {
		return "", fmt.Errorf("erfid: generate base id: %w", err)
	}

	parts := []string{g.cfg.Prefix}
	if g.cfg.IncludeTimestamp {
		parts = append(parts, strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	parts = append(parts, base)
	return strings.Join(parts, "_"), nil
}

func (g *Generator) baseID() (string, error) {
	switch g.cfg.Format {
	case FormatUUID:
		return uuid.NewString(), nil
	case FormatNano:
		return nanoID(nanoLength)
	case FormatCustom:
		return g.cfg.Generator()
	default:
		return "", fmt.Errorf("unknown format %q", g.cfg.Format)
	}
}

func nanoID(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, v := range b {
		out[i] = nanoAlphabet[int(v)%len(nanoAlphabet)]
	}
	return string(out), nil
}

// Parsed is the decomposed form of an erfid value.
type Parsed struct {
	Prefix    string
	Timestamp *time.Time
	BaseID    string
}

// Parse decomposes and validates id against cfg's format. Custom-format
// configs skip base-id shape validation since the shape is caller-defined.
func Parse(id string, cfg Config) (*Parsed, error) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("erfid: %q has %d underscore-separated parts, want 2 or 3", id, len(parts))
	}

	prefix := parts[0]
	if prefix != cfg.Prefix {
		return nil, fmt.Errorf("erfid: prefix %q does not match configured prefix %q", prefix, cfg.Prefix)
	}

	var (
		tsPart   string
		base     string
		parsedTS *time.Time
	)
	if len(parts) == 3 {
		tsPart, base = parts[1], parts[2]
		if !tsRe.MatchString(tsPart) {
			return nil, fmt.Errorf("erfid: %q has invalid 13-digit timestamp component", id)
		}
		ms, err := strconv.ParseInt(tsPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("erfid: invalid timestamp: %w", err)
		}
		t := time.UnixMilli(ms)
		parsedTS = &t
	} else {
		base = parts[1]
	}

	if err := validateBaseID(base, cfg.Format); err != nil {
		return nil, err
	}

	return &Parsed{Prefix: prefix, Timestamp: parsedTS, BaseID: base}, nil
}

func validateBaseID(base string, format Format) error {
	switch format {
	case FormatUUID:
		if !uuidV4Re.MatchString(strings.ToLower(base)) {
			return fmt.Errorf("erfid: %q is not a valid UUIDv4", base)
		}
	case FormatNano:
		if !nanoRe.MatchString(base) {
			return fmt.Errorf("erfid: %q is not a valid 21-char nano id", base)
		}
	case FormatCustom:
		// caller-defined shape, nothing to validate here.
	default:
		return fmt.Errorf("erfid: unknown format %q", format)
	}
	return nil
}
