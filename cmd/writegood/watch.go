package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"writegood/internal/controller"
	"writegood/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Follow renames and deletions on disk and update stored enablement",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("pair-window", watch.DefaultPairWindow, "how long a rename waits for its target")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	window, err := cmd.Flags().GetDuration("pair-window")
	if err != nil {
		return fmt.Errorf("failed to get pair-window flag: %w", err)
	}
	return withPlugin(cmd, func(e *env, p *controller.Plugin) error {
		w, err := watch.New(root, watch.Options{
			Include:    e.cfg.Check.Include,
			Exclude:    e.cfg.Check.Exclude,
			PairWindow: window,
			Logger:     e.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		defer w.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			sink := pluginEvents{rename: p.HandleRename, remove: p.HandleDelete}
			forwardEvents(w.Events(), sink, func(ev watch.Event) {
				if ev.Kind == watch.EventRename {
					e.printf(cmd, "rename %s -> %s\n", ev.OldPath, ev.Path)
					return
				}
				e.printf(cmd, "delete %s\n", ev.Path)
			})
		}()

		err = w.Run(cmd.Context())
		<-done
		if dropped := w.Dropped(); dropped > 0 {
			e.logger.Warn("events dropped", slog.Int64("count", dropped))
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
