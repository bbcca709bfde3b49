package main

import (
	"fmt"
	"os"
	"strings"

	"writegood/internal/render"
)

// progressMode is the --ui setting of `writegood check`.
type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func parseProgressMode(value string) (progressMode, error) {
	switch mode := progressMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return progressAuto, nil
	case progressAuto, progressOn, progressOff:
		return mode, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// wantProgress decides whether check draws the progress view on stderr.
// Quiet runs and JSON output never get one; in auto mode both streams must
// be terminals.
func wantProgress(mode progressMode, format render.Format, quiet bool, files int) bool {
	if quiet || files == 0 || format == render.FormatJSON {
		return false
	}
	switch mode {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}
