package lsp

import (
	"context"
	"log/slog"
	"time"

	"writegood/internal/controller"
	"writegood/internal/decor"
	"writegood/internal/source"
)

type pendingRebuild struct {
	timer *time.Timer
	kind  controller.EventKind
}

// inflightRebuild is the cancel handle of a running analysis.
type inflightRebuild struct {
	cancel context.CancelFunc
}

// schedule debounces rebuilds per view. Text edits wait for the debounce
// window; a pending reevaluation is never downgraded to a text rebuild.
func (s *Server) schedule(v *controller.View, kind controller.EventKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdownRequested {
		return
	}
	if p, ok := s.pending[v]; ok {
		p.timer.Stop()
		if p.kind == controller.EventReevaluate {
			kind = controller.EventReevaluate
		}
	}
	delay := s.debounce
	if kind != controller.EventTextChanged {
		delay = s.reevalDelay
	}
	p := &pendingRebuild{kind: kind}
	p.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.pending[v] != p {
			s.mu.Unlock()
			return
		}
		delete(s.pending, v)
		s.mu.Unlock()
		s.runRebuild(v, p.kind)
	})
	s.pending[v] = p
}

func (s *Server) runRebuild(v *controller.View, kind controller.EventKind) {
	doc, ok := v.Document().(*document)
	if !ok {
		return
	}
	s.mu.Lock()
	if prev := s.inflight[v]; prev != nil {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	run := &inflightRebuild{cancel: cancel}
	s.inflight[v] = run
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		if s.inflight[v] == run {
			delete(s.inflight, v)
		}
		s.mu.Unlock()
	}()

	version := doc.Version()
	r := v.Begin(kind)
	res := r.Compute(ctx)
	if ctx.Err() != nil {
		v.Discard(r.Seq)
		s.tracef("discard canceled rebuild", slog.String("uri", doc.URI()), slog.Uint64("seq", r.Seq))
		return
	}
	if !v.Apply(res) {
		return
	}
	s.tracef("rebuild applied",
		slog.String("uri", doc.URI()),
		slog.Uint64("seq", r.Seq),
		slog.String("event", kind.String()),
		slog.Bool("enabled", r.Enabled),
		slog.Int("findings", len(res.Findings)),
		slog.Duration("took", res.Duration))
	s.publish(doc, r, res, version)
}

// publish sends diagnostics and decorations for res unless a newer rebuild
// has already been published for doc.
func (s *Server) publish(doc *document, r controller.Rebuild, res controller.Result, version int) {
	file := r.File()
	doc.mu.Lock()
	if res.Seq <= doc.shownSeq {
		doc.mu.Unlock()
		return
	}
	doc.shownSeq = res.Seq
	doc.shownVersion = version
	doc.shownEnabled = r.Enabled
	doc.entries = res.Entries
	doc.file = file
	uri := doc.uri
	doc.mu.Unlock()

	diags := make([]lspDiagnostic, 0, len(res.Findings))
	for _, f := range res.Findings {
		diags = append(diags, lspDiagnostic{
			Range:    rangeForSpan(file, f.Span),
			Severity: s.severity,
			Source:   "write-good",
			Message:  f.Finding.Reason,
		})
	}
	s.mu.Lock()
	if _, open := s.docs[uri]; !open {
		s.mu.Unlock()
		return
	}
	if len(diags) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	v := version
	if err := s.sendPublish(uri, &v, diags); err != nil {
		s.logger.Warn("failed to publish diagnostics", slog.String("uri", uri), slog.String("error", err.Error()))
	}
	params := decorationsParams{
		URI:         uri,
		Version:     version,
		Enabled:     r.Enabled,
		Decorations: toLSPDecorations(file, res.Entries),
	}
	if err := s.sendNotification("writegood/decorations", params); err != nil {
		s.logger.Warn("failed to publish decorations", slog.String("uri", uri), slog.String("error", err.Error()))
	}
}

func toLSPDecorations(file *source.File, entries []decor.Entry) []lspDecoration {
	out := make([]lspDecoration, 0, len(entries))
	for _, e := range entries {
		out = append(out, lspDecoration{
			Kind:    e.Kind.String(),
			Range:   rangeForSpan(file, source.Span{Start: e.Pos, End: e.End}),
			Class:   e.Class,
			Message: e.Message,
			Side:    int(e.Side),
		})
	}
	return out
}

func (s *Server) cancel(v *controller.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[v]; ok {
		p.timer.Stop()
		delete(s.pending, v)
	}
	if run := s.inflight[v]; run != nil {
		run.cancel()
		delete(s.inflight, v)
	}
}

func (s *Server) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, v)
	}
	for v, run := range s.inflight {
		run.cancel()
		delete(s.inflight, v)
	}
}

// flushPending runs every pending rebuild on the calling goroutine.
func (s *Server) flushPending() {
	s.mu.Lock()
	runs := make(map[*controller.View]controller.EventKind, len(s.pending))
	for v, p := range s.pending {
		if p.timer.Stop() {
			runs[v] = p.kind
		}
		delete(s.pending, v)
	}
	s.mu.Unlock()
	for v, kind := range runs {
		s.runRebuild(v, kind)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for uri := range prev {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logger.Warn("failed to clear diagnostics", slog.String("error", err.Error()))
		}
	}
}
