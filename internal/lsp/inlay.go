package lsp

import (
	"encoding/json"

	"writegood/internal/decor"
)

func (s *Server) handleInlayHint(msg *rpcMessage) error {
	var params inlayHintParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	doc := s.document(canonicalURI(params.TextDocument.URI))
	if doc == nil {
		return s.sendResponse(msg.ID, []inlayHint{})
	}
	return s.sendResponse(msg.ID, buildInlayHints(doc, params.Range))
}

// buildInlayHints renders the annotations of the last published rebuild
// that fall inside rng.
func buildInlayHints(doc *document, rng lspRange) []inlayHint {
	doc.mu.Lock()
	entries := doc.entries
	file := doc.file
	doc.mu.Unlock()

	hints := []inlayHint{}
	if file == nil {
		return hints
	}
	for _, e := range entries {
		if e.Kind != decor.KindAnnotation {
			continue
		}
		pos := positionForOffset(file, e.Pos)
		if !rangeContains(rng, pos) {
			continue
		}
		hints = append(hints, inlayHint{
			Position:    pos,
			Label:       e.Message,
			PaddingLeft: e.Side == decor.SideAfter,
		})
	}
	return hints
}
