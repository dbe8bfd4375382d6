// Package config loads training and encoding settings from defaults, an
// optional YAML file and BPE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/bpe/internal/logutil"
)

// ErrInvalid is returned when a loaded value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every tunable of a training run.
type Config struct {
	Language     string    `yaml:"language"`
	Iterations   int       `yaml:"iterations"`
	MinFrequency int       `yaml:"min_frequency"`
	UnknownToken string    `yaml:"unknown_token"`
	Workers      int       `yaml:"workers"` // Concurrent encoders for batch encoding; 0 means unlimited.
	Debug        Verbosity `yaml:"debug"`
}

// Verbosity is the debug level: 0 logs at Info, 1 at Debug, 2 and above at
// Trace. It also accepts the booleans true (1) and false (0).
type Verbosity int

// UnmarshalYAML accepts an integer level or a boolean.
func (v *Verbosity) UnmarshalYAML(node *yaml.Node) error {
	var n int
	if err := node.Decode(&n); err == nil {
		*v = Verbosity(n)
		return nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return fmt.Errorf("debug must be a level or a boolean: %w", err)
	}
	*v = 0
	if b {
		*v = 1
	}
	return nil
}

func parseVerbosity(s string) (Verbosity, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return Verbosity(n), nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// EnvVar describes one environment override.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// Default returns the defaults: English, 3 iterations, pairs seen at least 5
// times, "<unk>".
func Default() Config {
	return Config{
		Language:     "en",
		Iterations:   3,
		MinFrequency: 5,
		UnknownToken: "<unk>",
	}
}

// Load returns Default overlaid with the YAML file at path (skipped when
// path is empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if s := clean("BPE_LANG"); s != "" {
		c.Language = s
	}
	if s := clean("BPE_UNK"); s != "" {
		c.UnknownToken = s
	}
	for name, dst := range map[string]*int{
		"BPE_ITERATIONS":    &c.Iterations,
		"BPE_MIN_FREQUENCY": &c.MinFrequency,
		"BPE_WORKERS":       &c.Workers,
	} {
		s := clean(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, name, s, err)
		}
		*dst = n
	}
	if s := clean("BPE_DEBUG"); s != "" {
		v, err := parseVerbosity(s)
		if err != nil {
			return fmt.Errorf("%w: BPE_DEBUG=%q: %w", ErrInvalid, s, err)
		}
		c.Debug = v
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations %d < 0", ErrInvalid, c.Iterations)
	case c.MinFrequency < 0:
		return fmt.Errorf("%w: min_frequency %d < 0", ErrInvalid, c.MinFrequency)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d < 0", ErrInvalid, c.Workers)
	case c.Debug < 0:
		return fmt.Errorf("%w: debug %d < 0", ErrInvalid, c.Debug)
	case c.UnknownToken == "":
		return fmt.Errorf("%w: unknown_token is empty", ErrInvalid)
	case c.Language == "":
		return fmt.Errorf("%w: language is empty", ErrInvalid)
	}
	return nil
}

// LogLevel maps Debug to a slog level.
func (c Config) LogLevel() slog.Level {
	switch {
	case c.Debug >= 2:
		return logutil.LevelTrace
	case c.Debug == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// AsMap lists the environment overrides with their effective values.
func (c Config) AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BPE_LANG":          {"BPE_LANG", c.Language, "Language tag used for normalization and pre-tokenization (default \"en\")"},
		"BPE_ITERATIONS":    {"BPE_ITERATIONS", c.Iterations, "Number of merge iterations (default 3)"},
		"BPE_MIN_FREQUENCY": {"BPE_MIN_FREQUENCY", c.MinFrequency, "Minimum pair count to merge (default 5)"},
		"BPE_UNK":           {"BPE_UNK", c.UnknownToken, "Unknown token string (default \"<unk>\")"},
		"BPE_WORKERS":       {"BPE_WORKERS", c.Workers, "Concurrent encoders for batch encoding (default unlimited)"},
		"BPE_DEBUG":         {"BPE_DEBUG", c.Debug, "Show additional debug information (BPE_DEBUG=1), or per-merge trace output (BPE_DEBUG=2)"},
	}
}

// clean reads an environment variable, trimming whitespace and quotes.
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' \t")
}
