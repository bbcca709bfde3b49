package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"writegood/internal/source"
)

// OffsetUnits selects how an external analyzer counts offsets.
type OffsetUnits string

const (
	// OffsetsUTF16 counts UTF-16 code units, as JavaScript tools do.
	OffsetsUTF16 OffsetUnits = "utf16"
	// OffsetsBytes counts bytes of the UTF-8 text.
	OffsetsBytes OffsetUnits = "bytes"
)

// ParseOffsetUnits converts a config string to OffsetUnits.
func ParseOffsetUnits(s string) (OffsetUnits, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf16", "utf-16":
		return OffsetsUTF16, nil
	case "bytes", "byte", "utf8", "utf-8":
		return OffsetsBytes, nil
	default:
		return "", fmt.Errorf("invalid offset units %q (expected utf16|bytes)", s)
	}
}

// CommandOptions configures CommandAnalyzer.
type CommandOptions struct {
	Command string
	Args    []string
	Timeout time.Duration
	Offsets OffsetUnits
}

// CommandAnalyzer runs an external analyzer once per call. The request is
// written to stdin as {"text": ..., "checks": {...}} and the process must
// print a JSON array of {"index", "offset", "reason"} objects on stdout.
type CommandAnalyzer struct {
	command string
	args    []string
	timeout time.Duration
	offsets OffsetUnits
}

type commandRequest struct {
	Text   string `json:"text"`
	Checks Checks `json:"checks"`
}

type commandSuggestion struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

// NewCommandAnalyzer validates opts and returns an analyzer.
func NewCommandAnalyzer(opts CommandOptions) (*CommandAnalyzer, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, fmt.Errorf("analyzer command is empty")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	offsets := opts.Offsets
	if offsets == "" {
		offsets = OffsetsUTF16
	}
	return &CommandAnalyzer{
		command: opts.Command,
		args:    append([]string(nil), opts.Args...),
		timeout: timeout,
		offsets: offsets,
	}, nil
}

func (a *CommandAnalyzer) Analyze(ctx context.Context, text string, checks Checks) ([]Finding, error) {
	payload, err := json.Marshal(commandRequest{Text: text, Checks: checks})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrAnalyzerFailed, err)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// #nosec G204 -- command comes from the user's own configuration
	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s: %w: %s", ErrAnalyzerFailed, a.command, err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrAnalyzerFailed, a.command, err)
	}
	return decodeSuggestions(stdout.Bytes(), text, a.offsets)
}

func decodeSuggestions(raw []byte, text string, units OffsetUnits) ([]Finding, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var suggestions []commandSuggestion
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("%w: decode output: %w", ErrAnalyzerFailed, err)
	}
	findings := make([]Finding, 0, len(suggestions))
	starts := source.NewUTF16Cursor(text)
	ends := source.NewUTF16Cursor(text)
	for _, s := range suggestions {
		if s.Index < 0 || s.Offset <= 0 {
			continue
		}
		start, end := s.Index, s.Index+s.Offset
		if units == OffsetsUTF16 {
			start = starts.ByteOffset(s.Index)
			end = ends.ByteOffset(s.Index + s.Offset)
		}
		if end <= start {
			continue
		}
		findings = append(findings, Finding{StartOffset: start, Length: end - start, Reason: s.Reason})
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].StartOffset < findings[j].StartOffset
	})
	return findings, nil
}
