// Package settings loads, merges and persists the plugin settings object.
package settings

import (
	"encoding/json"
	"fmt"

	"writegood/internal/analysis"
)

// Settings is the persisted, versionless settings object.
type Settings struct {
	Checks                analysis.Checks `json:"checks"`
	FileChecksState       map[string]bool `json:"fileChecksState"`
	EnableChecksByDefault bool            `json:"enableChecksByDefault"`
}

// rawSettings mirrors Settings with optional fields so missing keys can be
// told apart from explicit false values.
type rawSettings struct {
	Checks                map[string]bool `json:"checks"`
	FileChecksState       map[string]bool `json:"fileChecksState"`
	EnableChecksByDefault *bool           `json:"enableChecksByDefault"`
}

// Defaults returns the canonical default table.
func Defaults() Settings {
	return Settings{
		Checks:                analysis.DefaultChecks(),
		FileChecksState:       make(map[string]bool),
		EnableChecksByDefault: true,
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{
		Checks:                s.Checks.Clone(),
		FileChecksState:       make(map[string]bool, len(s.FileChecksState)),
		EnableChecksByDefault: s.EnableChecksByDefault,
	}
	for k, v := range s.FileChecksState {
		out.FileChecksState[k] = v
	}
	return out
}

// Decode parses raw JSON and fills every missing key from Defaults.
// Unknown check names are kept so that analyzers understanding more checks
// still receive them.
func Decode(data []byte) (Settings, error) {
	var raw rawSettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return Defaults(), fmt.Errorf("decode settings: %w", err)
	}
	return merge(raw), nil
}

func merge(raw rawSettings) Settings {
	out := Defaults()
	for name, on := range raw.Checks {
		out.Checks[name] = on
	}
	for id, on := range raw.FileChecksState {
		out.FileChecksState[id] = on
	}
	if raw.EnableChecksByDefault != nil {
		out.EnableChecksByDefault = *raw.EnableChecksByDefault
	}
	return out
}

// Encode renders s as indented JSON.
func Encode(s Settings) ([]byte, error) {
	if s.Checks == nil {
		s.Checks = analysis.Checks{}
	}
	if s.FileChecksState == nil {
		s.FileChecksState = map[string]bool{}
	}
	return json.MarshalIndent(s, "", "  ")
}
