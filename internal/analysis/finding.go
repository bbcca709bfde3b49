// Package analysis defines the contract between the decoration engine and
// the prose analyzer, together with adapters that run an external analyzer
// and memoize its results.
package analysis

import (
	"context"
	"errors"
	"sort"
)

// ErrAnalyzerFailed wraps every failure reported by an analyzer adapter.
var ErrAnalyzerFailed = errors.New("analyzer failed")

// Finding is one flagged span of text. StartOffset is a byte offset into the
// text handed to the analyzer; a Finding is stale as soon as the text changes.
type Finding struct {
	StartOffset int    `json:"start" msgpack:"start"`
	Length      int    `json:"length" msgpack:"length"`
	Reason      string `json:"reason" msgpack:"reason"`
}

// End returns the exclusive end offset of the finding.
func (f Finding) End() int {
	return f.StartOffset + f.Length
}

// Analyzer maps text and an enabled-check set to findings ordered by
// ascending start offset. Implementations must not keep state across calls.
type Analyzer interface {
	Analyze(ctx context.Context, text string, checks Checks) ([]Finding, error)
}

// Func adapts a plain function to Analyzer.
type Func func(ctx context.Context, text string, checks Checks) ([]Finding, error)

func (fn Func) Analyze(ctx context.Context, text string, checks Checks) ([]Finding, error) {
	return fn(ctx, text, checks)
}

// Check names understood by write-good style analyzers.
const (
	CheckPassive  = "passive"
	CheckIllusion = "illusion"
	CheckSo       = "so"
	CheckThereIs  = "thereIs"
	CheckWeasel   = "weasel"
	CheckAdverb   = "adverb"
	CheckTooWordy = "tooWordy"
	CheckCliches  = "cliches"
	CheckEPrime   = "eprime"
)

// CheckNames lists every known check in canonical order.
var CheckNames = []string{
	CheckPassive,
	CheckIllusion,
	CheckSo,
	CheckThereIs,
	CheckWeasel,
	CheckAdverb,
	CheckTooWordy,
	CheckCliches,
	CheckEPrime,
}

// Checks maps a check name to whether it is enabled.
type Checks map[string]bool

// DefaultChecks enables everything except E-Prime.
func DefaultChecks() Checks {
	out := make(Checks, len(CheckNames))
	for _, name := range CheckNames {
		out[name] = name != CheckEPrime
	}
	return out
}

// IsKnownCheck reports whether name is one of CheckNames.
func IsKnownCheck(name string) bool {
	for _, known := range CheckNames {
		if known == name {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (c Checks) Clone() Checks {
	out := make(Checks, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Enabled returns the sorted names of enabled checks.
func (c Checks) Enabled() []string {
	out := make([]string, 0, len(c))
	for name, on := range c {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
