package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"writegood/internal/analysis"
	"writegood/internal/config"
	"writegood/internal/controller"
	"writegood/internal/observ"
	"writegood/internal/settings"
)

const appName = "writegood"

// env is the state shared by every subcommand after setupRoot.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	settings *settings.FileStore
	timer    *observ.Timer
	color    bool
	quiet    bool
	timings  bool
}

type envKey struct{}

func setupRoot(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	levelName, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := parseLogLevel(levelName)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	colorMode, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := readColorMode(colorMode)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	if err := setupProfiling(cmd); err != nil {
		return err
	}

	quiet, _ := flags.GetBool("quiet")
	timings, _ := flags.GetBool("timings")
	timer := observ.NewTimer()

	explicit, _ := flags.GetString("config")
	var cfg config.Config
	err = timer.Track("config", func() (string, error) {
		var loadErr error
		cfg, loadErr = config.Load(".", explicit, logger)
		return cfg.Path, loadErr
	})
	if err != nil {
		return err
	}

	settingsPath, _ := flags.GetString("settings")
	if settingsPath == "" {
		settingsPath = cfg.Settings.Path
	}
	if settingsPath == "" {
		settingsPath, err = settings.DefaultPath(appName)
		if err != nil {
			return fmt.Errorf("failed to resolve settings path: %w", err)
		}
	}

	e := &env{
		cfg:      cfg,
		logger:   logger,
		settings: settings.NewFileStore(settingsPath),
		timer:    timer,
		color:    useColor,
		quiet:    quiet,
		timings:  timings,
	}
	cmd.SetContext(withEnv(cmd.Context(), e))
	return nil
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("invalid --log-level value %q (expected debug|info|warn|error)", value)
	}
	return level, nil
}

func readColorMode(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "", nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// loadSettings reads the settings file, falling back to defaults.
func (e *env) loadSettings() settings.Settings {
	idx := e.timer.Begin("settings")
	st := settings.LoadOrDefault(e.settings, e.logger)
	e.timer.End(idx, e.settings.Path())
	return st
}

// openPlugin builds a plugin over the persisted settings. The returned
// persister must be closed to flush pending writes.
func (e *env) openPlugin(analyzer analysis.Analyzer) (*controller.Plugin, *settings.Persister) {
	persister := settings.NewPersister(e.settings, e.logger)
	plugin := controller.New(controller.Options{
		Analyzer: analyzer,
		Settings: e.loadSettings(),
		Saver:    persister,
		Logger:   e.logger,
	})
	return plugin, persister
}

// analyzer builds the configured analyzer, memoized on disk unless the
// cache is disabled.
func (e *env) analyzer() (analysis.Analyzer, error) {
	opts, err := e.cfg.AnalyzerOptions()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Command) == "" {
		return nil, fmt.Errorf("no analyzer configured: set [analyzer] command in %s", config.FileName)
	}
	cmdAnalyzer, err := analysis.NewCommandAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	if !e.cfg.Cache.Enabled {
		return cmdAnalyzer, nil
	}
	cache, err := analysis.OpenDiskCache(appName, e.cfg.Cache.Dir)
	if err != nil {
		e.logger.Warn("disk cache unavailable", slog.String("error", err.Error()))
		return cmdAnalyzer, nil
	}
	return analysis.Cached(cmdAnalyzer, cache, e.logger), nil
}

func (e *env) printf(cmd *cobra.Command, format string, args ...any) {
	if e.quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
