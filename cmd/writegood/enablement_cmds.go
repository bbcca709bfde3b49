package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"writegood/internal/controller"
	"writegood/internal/enablement"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle [flags] <file>",
	Short: "Flip checks for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var statusCmd = &cobra.Command{
	Use:   "status [file...]",
	Short: "Show per-file enablement",
	RunE:  runStatus,
}

var mvCmd = &cobra.Command{
	Use:   "mv <old> <new>",
	Short: "Carry a file's enablement over to a new path",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

var forgetCmd = &cobra.Command{
	Use:   "forget <file...>",
	Short: "Drop stored enablement so files follow the default",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runForget,
}

func init() {
	toggleCmd.Flags().Bool("on", false, "enable checks instead of flipping")
	toggleCmd.Flags().Bool("off", false, "disable checks instead of flipping")
	toggleCmd.MarkFlagsMutuallyExclusive("on", "off")
}

func pathIdentity(path string) string {
	return enablement.PathIdentity(path)
}

// withPlugin opens a plugin without an analyzer, runs fn and flushes any
// settings it saved.
func withPlugin(cmd *cobra.Command, fn func(e *env, p *controller.Plugin) error) error {
	e, err := envFrom(cmd)
	if err != nil {
		return err
	}
	defer printTimings(cmd.ErrOrStderr(), e)
	plugin, persister := e.openPlugin(nil)
	defer plugin.Close()
	runErr := fn(e, plugin)
	idx := e.timer.Begin("save")
	closeErr := persister.Close()
	e.timer.End(idx, "")
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to save settings: %w", closeErr)
	}
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	on, _ := cmd.Flags().GetBool("on")
	off, _ := cmd.Flags().GetBool("off")
	return withPlugin(cmd, func(e *env, p *controller.Plugin) error {
		id := pathIdentity(args[0])
		var enabled bool
		switch {
		case on:
			p.SetEnabled(id, true)
			enabled = true
		case off:
			p.SetEnabled(id, false)
		default:
			enabled = p.Toggle(id)
		}
		e.logger.Debug("toggled", slog.String("identity", id), slog.Bool("enabled", enabled))
		e.printf(cmd, "%s: checks %s\n", args[0], onOff(enabled))
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := envFrom(cmd)
	if err != nil {
		return err
	}
	st := e.loadSettings()
	store := enablement.NewStore(st.EnableChecksByDefault, st.FileChecksState)
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintf(out, "default: %s\n", onOff(store.Default()))
		fmt.Fprintf(out, "settings: %s\n", e.settings.Path())
		printEntries(cmd, store.Snapshot())
		return nil
	}
	for _, path := range args {
		enabled, explicit := store.Lookup(pathIdentity(path))
		source := "explicit"
		if !explicit {
			enabled = store.Default()
			source = "default"
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", path, onOff(enabled), source)
	}
	return nil
}

func printEntries(cmd *cobra.Command, entries map[string]bool) {
	if len(entries) == 0 {
		return
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, onOff(entries[id])})
	}
	writeTable(cmd.OutOrStdout(), []string{"File", "Checks"}, rows)
}

func runMove(cmd *cobra.Command, args []string) error {
	return withPlugin(cmd, func(e *env, p *controller.Plugin) error {
		p.HandleRename(pathIdentity(args[0]), pathIdentity(args[1]))
		e.printf(cmd, "%s -> %s\n", args[0], args[1])
		return nil
	})
}

func runForget(cmd *cobra.Command, args []string) error {
	return withPlugin(cmd, func(e *env, p *controller.Plugin) error {
		for _, path := range args {
			p.HandleDelete(pathIdentity(path))
			e.printf(cmd, "%s: forgotten\n", path)
		}
		return nil
	})
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
