package lsp

import (
	"encoding/json"
	"log/slog"
)

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	switch params.Command {
	case CommandToggleChecks:
		res, ok := s.toggleChecks(params.Arguments)
		if !ok {
			return s.sendResponse(msg.ID, nil)
		}
		return s.sendResponse(msg.ID, res)
	default:
		return s.sendError(msg.ID, codeInvalidRequest, "unknown command "+params.Command)
	}
}

// toggleChecks flips enablement for the document named by the first
// argument, or the last touched document. ok is false when neither exists.
func (s *Server) toggleChecks(args []json.RawMessage) (toggleResult, bool) {
	uri := ""
	if len(args) > 0 {
		var arg string
		if err := json.Unmarshal(args[0], &arg); err == nil {
			uri = canonicalURI(arg)
		}
	}
	if uri == "" {
		s.mu.Lock()
		uri = s.lastTouched
		s.mu.Unlock()
	}
	if uri == "" {
		s.logger.Info("toggle ignored: no active document")
		return toggleResult{}, false
	}
	if doc := s.document(uri); doc != nil && doc.view != nil {
		s.plugin.SetActive(doc.view)
	}
	enabled := s.plugin.Toggle(identityForURI(uri))
	s.tracef("toggled checks", slog.String("uri", uri), slog.Bool("enabled", enabled))
	return toggleResult{URI: uri, Enabled: enabled}, true
}
