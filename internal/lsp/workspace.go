package lsp

import (
	"encoding/json"
	"log/slog"

	"writegood/internal/controller"
)

// handleDidRenameFiles moves enablement and any open buffer to the new URI.
func (s *Server) handleDidRenameFiles(msg *rpcMessage) error {
	var params renameFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	for _, f := range params.Files {
		s.renameURI(canonicalURI(f.OldURI), canonicalURI(f.NewURI))
	}
	return nil
}

func (s *Server) handleDidDeleteFiles(msg *rpcMessage) error {
	var params deleteFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	for _, f := range params.Files {
		s.deleteURI(canonicalURI(f.URI))
	}
	return nil
}

// HandleFileRename applies a rename observed outside the client, such as
// by a filesystem watcher.
func (s *Server) HandleFileRename(oldPath, newPath string) {
	s.renameURI(pathToURI(oldPath), pathToURI(newPath))
}

// HandleFileDelete applies a deletion observed outside the client.
func (s *Server) HandleFileDelete(path string) {
	s.deleteURI(pathToURI(path))
}

func (s *Server) renameURI(oldURI, newURI string) {
	if oldURI == "" || newURI == "" || oldURI == newURI {
		return
	}
	s.mu.Lock()
	doc := s.docs[oldURI]
	if doc != nil {
		delete(s.docs, oldURI)
		s.docs[newURI] = doc
	}
	if s.lastTouched == oldURI {
		s.lastTouched = newURI
	}
	_, hadDiagnostics := s.published[oldURI]
	delete(s.published, oldURI)
	s.mu.Unlock()
	if doc != nil {
		doc.mu.Lock()
		doc.uri = newURI
		doc.mu.Unlock()
	}
	if hadDiagnostics {
		if err := s.sendPublish(oldURI, nil, nil); err != nil {
			s.logger.Warn("failed to clear diagnostics", slog.String("error", err.Error()))
		}
	}
	s.plugin.HandleRename(identityForURI(oldURI), identityForURI(newURI))
	if doc != nil && doc.view != nil {
		// republish under the new URI
		s.schedule(doc.view, controller.EventReevaluate)
	}
	s.tracef("renamed", slog.String("from", oldURI), slog.String("to", newURI))
}

func (s *Server) deleteURI(uri string) {
	if uri == "" {
		return
	}
	s.plugin.HandleDelete(identityForURI(uri))
	s.tracef("deleted", slog.String("uri", uri))
}
