package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"writegood/internal/lsp"
	"writegood/internal/settings"
	"writegood/internal/version"
	"writegood/internal/watch"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the writegood language server over stdio",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Bool("watch", false, "follow renames and deletions on disk (default from config)")
	lspCmd.Flags().String("watch-root", ".", "directory watched with --watch")
	lspCmd.Flags().Duration("debounce", 0, "delay before re-analyzing after an edit (default from config)")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	e, err := envFrom(cmd)
	if err != nil {
		return err
	}
	analyzer, err := e.analyzer()
	if err != nil {
		return err
	}
	watchOn := e.cfg.LSP.Watch
	if cmd.Flags().Changed("watch") {
		watchOn, _ = cmd.Flags().GetBool("watch")
	}
	watchRoot, _ := cmd.Flags().GetString("watch-root")
	debounce := e.cfg.LSP.Debounce.Duration
	if cmd.Flags().Changed("debounce") {
		debounce, _ = cmd.Flags().GetDuration("debounce")
	}
	severity := lsp.SeverityHint
	if e.cfg.LSP.Severity == "information" {
		severity = lsp.SeverityInformation
	}

	persister := settings.NewPersister(e.settings, e.logger)
	defer func() {
		if err := persister.Close(); err != nil {
			e.logger.Warn("failed to flush settings", slog.String("error", err.Error()))
		}
	}()

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce: debounce,
		Analyzer: analyzer,
		Settings: e.loadSettings(),
		Saver:    persister,
		Logger:   e.logger,
		Severity: severity,
		Version:  version.Get().Version,
		Trace:    e.logger.Enabled(cmd.Context(), slog.LevelDebug),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if watchOn {
		if err := startWatch(ctx, e, watchRoot, server); err != nil {
			return err
		}
	}

	if err := server.Run(ctx); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}

// fileEvents receives rename and delete notifications from a watcher.
type fileEvents interface {
	HandleFileRename(oldPath, newPath string)
	HandleFileDelete(path string)
}

func startWatch(ctx context.Context, e *env, root string, sink fileEvents) error {
	w, err := watch.New(root, watch.Options{
		Include: e.cfg.Check.Include,
		Exclude: e.cfg.Check.Exclude,
		Logger:  e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		_ = w.Close()
	}()
	go forwardEvents(w.Events(), sink, nil)
	return nil
}

// forwardEvents applies watcher events to sink until events is closed.
// report, when set, is called after each event.
func forwardEvents(events <-chan watch.Event, sink fileEvents, report func(watch.Event)) {
	for ev := range events {
		switch ev.Kind {
		case watch.EventRename:
			sink.HandleFileRename(ev.OldPath, ev.Path)
		case watch.EventDelete:
			sink.HandleFileDelete(ev.Path)
		}
		if report != nil {
			report(ev)
		}
	}
}

// pluginEvents adapts a plugin to fileEvents using path identities.
type pluginEvents struct {
	rename func(oldIdentity, newIdentity string)
	remove func(identity string)
}

func (p pluginEvents) HandleFileRename(oldPath, newPath string) {
	p.rename(pathIdentity(oldPath), pathIdentity(newPath))
}

func (p pluginEvents) HandleFileDelete(path string) {
	p.remove(pathIdentity(path))
}
