package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"writegood/internal/batch"
	"writegood/internal/enablement"
	"writegood/internal/render"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Check prose files and print findings",
	Long: `Check runs the analyzer over files and directories (default: the current
directory). Files whose checks are disabled are skipped unless --all is set.
Exits with status 1 when any finding is reported.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|short|json); default from config")
	checkCmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	checkCmd.Flags().Bool("all", false, "check files even when their checks are disabled")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=config or auto)")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("show-skipped", false, "list files skipped because their checks are disabled")
	checkCmd.Flags().Bool("decorations", false, "include the ordered decoration list in json output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := envFrom(cmd)
	if err != nil {
		return err
	}
	defer printTimings(cmd.ErrOrStderr(), e)

	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if formatName == "" {
		formatName = e.cfg.Check.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := parseProgressMode(uiValue)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs == 0 {
		jobs = e.cfg.Check.Jobs
	}
	fullPath, _ := cmd.Flags().GetBool("fullpath")
	showSkipped, _ := cmd.Flags().GetBool("show-skipped")
	withDecorations, _ := cmd.Flags().GetBool("decorations")

	if len(args) == 0 {
		args = []string{"."}
	}
	matcher, err := batch.NewMatcher(e.cfg.Check.Include, e.cfg.Check.Exclude)
	if err != nil {
		return err
	}
	idx := e.timer.Begin("collect")
	files, err := batch.Collect(args, matcher)
	e.timer.End(idx, fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return err
	}

	analyzer, err := e.analyzer()
	if err != nil {
		return err
	}
	st := e.loadSettings()
	req := &batch.Request{
		Files:      files,
		Jobs:       jobs,
		All:        all,
		Analyzer:   analyzer,
		Checks:     st.Checks,
		Enablement: enablement.NewStore(st.EnableChecksByDefault, st.FileChecksState),
		Identity:   enablement.PathIdentity,
		Logger:     e.logger,
	}

	idx = e.timer.Begin("analyze")
	var result batch.Result
	if wantProgress(mode, format, e.quiet, len(files)) {
		result, err = runCheckWithUI(cmd.Context(), "writegood check", files, req)
	} else {
		result, err = batch.Run(cmd.Context(), req)
	}
	e.timer.End(idx, fmt.Sprintf("%d findings", result.FindingCount()))
	if err != nil {
		return err
	}

	opts := render.Options{
		Color:              e.color,
		PathMode:           render.PathModeAuto,
		ShowSkipped:        showSkipped,
		IncludeDecorations: withDecorations,
	}
	if fullPath {
		opts.PathMode = render.PathModeAbsolute
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		opts.BaseDir = wd
	}
	if err := render.Write(cmd.OutOrStdout(), format, result.Files, opts); err != nil {
		return err
	}

	if errs := result.Errors(); errs != nil {
		for _, f := range result.Files {
			if f.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", filepath.ToSlash(f.Path), f.Err)
			}
		}
		return &exitError{code: 2}
	}
	if result.FindingCount() > 0 {
		return &exitError{code: 1}
	}
	return nil
}
