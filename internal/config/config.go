// Package config loads writegood.toml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"writegood/internal/analysis"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = "writegood.toml"

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the merged project configuration.
type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`

	Analyzer AnalyzerConfig `toml:"analyzer"`
	Settings SettingsConfig `toml:"settings"`
	LSP      LSPConfig      `toml:"lsp"`
	Check    CheckConfig    `toml:"check"`
	Cache    CacheConfig    `toml:"cache"`
}

// AnalyzerConfig selects the external analyzer process.
type AnalyzerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout Duration `toml:"timeout"`
	// Offsets is "utf16" or "bytes".
	Offsets string `toml:"offsets"`
}

// SettingsConfig points at the persisted enablement state.
type SettingsConfig struct {
	Path string `toml:"path"`
}

// LSPConfig tunes the language server.
type LSPConfig struct {
	Debounce Duration `toml:"debounce"`
	Watch    bool     `toml:"watch"`
	// Severity is "hint" or "information".
	Severity string `toml:"severity"`
}

// CheckConfig drives `writegood check`.
type CheckConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	Jobs    int      `toml:"jobs"`
	Format  string   `toml:"format"`
}

// CacheConfig controls the on-disk findings cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Analyzer: AnalyzerConfig{
			Timeout: Duration{5 * time.Second},
			Offsets: string(analysis.OffsetsUTF16),
		},
		LSP: LSPConfig{
			Debounce: Duration{300 * time.Millisecond},
			Severity: "hint",
		},
		Check: CheckConfig{
			Format: "pretty",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes path over Default. Relative paths inside the file are
// resolved against its directory.
func LoadFile(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		logger.Warn("unknown config key", slog.String("path", path), slog.String("key", key.String()))
	}
	cfg.Path = path
	base := filepath.Dir(path)
	cfg.Settings.Path = resolve(base, cfg.Settings.Path)
	cfg.Cache.Dir = resolve(base, cfg.Cache.Dir)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load reads explicit when set, otherwise the nearest FileName above
// startDir, otherwise Default.
func Load(startDir, explicit string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := explicit
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, err
		}
		if !ok {
			logger.Debug("no config file found, using defaults")
			return Default(), nil
		}
		path = found
	}
	cfg, err := LoadFile(path, logger)
	if err != nil {
		return Config{}, err
	}
	logger.Debug("loaded config", slog.String("path", path))
	return cfg, nil
}

// Validate rejects values no component can use.
func (c Config) Validate() error {
	if _, err := analysis.ParseOffsetUnits(c.Analyzer.Offsets); err != nil {
		return fmt.Errorf("[analyzer].offsets: %w", err)
	}
	if c.Analyzer.Timeout.Duration < 0 {
		return fmt.Errorf("[analyzer].timeout must not be negative")
	}
	if c.LSP.Debounce.Duration < 0 {
		return fmt.Errorf("[lsp].debounce must not be negative")
	}
	switch c.LSP.Severity {
	case "", "hint", "information":
	default:
		return fmt.Errorf("[lsp].severity must be hint or information, got %q", c.LSP.Severity)
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative")
	}
	return nil
}

// AnalyzerOptions converts the [analyzer] section.
func (c Config) AnalyzerOptions() (analysis.CommandOptions, error) {
	units, err := analysis.ParseOffsetUnits(c.Analyzer.Offsets)
	if err != nil {
		return analysis.CommandOptions{}, err
	}
	return analysis.CommandOptions{
		Command: c.Analyzer.Command,
		Args:    append([]string(nil), c.Analyzer.Args...),
		Timeout: c.Analyzer.Timeout.Duration,
		Offsets: units,
	}, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(base, filepath.FromSlash(path))
}
