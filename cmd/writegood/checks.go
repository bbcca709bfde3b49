package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"writegood/internal/analysis"
	"writegood/internal/controller"
)

var checksCmd = &cobra.Command{
	Use:   "checks [name=on|off...]",
	Short: "List or change the enabled checks",
	Long: `Without arguments checks lists every check and the default enablement.
Arguments of the form name=on or name=off change individual checks;
--default on|off changes the enablement used for files with no stored entry.`,
	RunE: runChecks,
}

func init() {
	checksCmd.Flags().String("default", "", "set the default enablement for files (on|off)")
}

func runChecks(cmd *cobra.Command, args []string) error {
	defaultValue, err := cmd.Flags().GetString("default")
	if err != nil {
		return fmt.Errorf("failed to get default flag: %w", err)
	}
	type change struct {
		name string
		on   bool
	}
	changes := make([]change, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid argument %q (expected name=on|off)", arg)
		}
		on, err := parseOnOff(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		changes = append(changes, change{name: strings.TrimSpace(name), on: on})
	}

	return withPlugin(cmd, func(e *env, p *controller.Plugin) error {
		for _, c := range changes {
			if err := p.SetCheck(c.name, c.on); err != nil {
				return err
			}
		}
		if defaultValue != "" {
			on, err := parseOnOff(defaultValue)
			if err != nil {
				return fmt.Errorf("--default: %w", err)
			}
			p.SetDefaultEnabled(on)
		}
		if e.quiet && (len(changes) > 0 || defaultValue != "") {
			return nil
		}
		checks := p.Checks()
		rows := make([][]string, 0, len(analysis.CheckNames))
		for _, name := range analysis.CheckNames {
			rows = append(rows, []string{name, onOff(checks[name])})
		}
		writeTable(cmd.OutOrStdout(), []string{"Check", "Enabled"}, rows)
		fmt.Fprintf(cmd.OutOrStdout(), "files default: %s\n", onOff(p.Store().Default()))
		return nil
	})
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q (expected on|off)", value)
}
