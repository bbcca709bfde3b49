package lsp

import (
	"encoding/json"
	"log/slog"
	"sort"

	"writegood/internal/analysis"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings merges a client configuration object into the plugin.
// Absent keys leave the current value alone.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var cfg lspSettings
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.logger.Warn("ignoring malformed configuration", slog.String("error", err.Error()))
		return
	}
	if cfg.WriteGood.Trace != nil {
		s.mu.Lock()
		s.traceLSP = *cfg.WriteGood.Trace
		s.mu.Unlock()
	}
	names := make([]string, 0, len(cfg.WriteGood.Checks))
	for name := range cfg.WriteGood.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !analysis.IsKnownCheck(name) {
			s.logger.Warn("ignoring unknown check", slog.String("check", name))
			continue
		}
		if err := s.plugin.SetCheck(name, cfg.WriteGood.Checks[name]); err != nil {
			s.logger.Warn("set check failed", slog.String("check", name), slog.String("error", err.Error()))
		}
	}
	if cfg.WriteGood.EnableChecksByDefault != nil {
		s.plugin.SetDefaultEnabled(*cfg.WriteGood.EnableChecksByDefault)
	}
}
