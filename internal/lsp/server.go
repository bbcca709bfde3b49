package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"writegood/internal/analysis"
	"writegood/internal/controller"
	"writegood/internal/decor"
	"writegood/internal/settings"
	"writegood/internal/source"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// CommandToggleChecks flips linting for one document.
const CommandToggleChecks = "writegood.toggleChecks"

// Diagnostic severities accepted in ServerOptions.Severity.
const (
	SeverityInformation = 3
	SeverityHint        = 4
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	Analyzer analysis.Analyzer
	Settings settings.Settings
	Saver    controller.Saver
	Logger   *slog.Logger
	// Severity of published diagnostics; hint unless set to information.
	Severity int
	Version  string
	Trace    bool
}

// Server handles stdio JSON-RPC for the writegood language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	docs        map[string]*document
	lastTouched string
	published   map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	reevalDelay       time.Duration
	pending           map[*controller.View]*pendingRebuild
	inflight          map[*controller.View]*inflightRebuild
	baseCtx           context.Context
	plugin            *controller.Plugin
	logger            *slog.Logger
	traceLSP          bool
	severity          int
	version           string
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	severity := opts.Severity
	if severity != SeverityInformation {
		severity = SeverityHint
	}
	s := &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		docs:      make(map[string]*document),
		published: make(map[string]struct{}),
		debounce:  debounce,
		pending:   make(map[*controller.View]*pendingRebuild),
		inflight:  make(map[*controller.View]*inflightRebuild),
		baseCtx:   context.Background(),
		logger:    logger.With(slog.String("component", "lsp")),
		traceLSP:  opts.Trace,
		severity:  severity,
		version:   opts.Version,
	}
	s.plugin = controller.New(controller.Options{
		Analyzer: opts.Analyzer,
		Settings: opts.Settings,
		Saver:    opts.Saver,
		Logger:   s.logger,
		Schedule: s.schedule,
	})
	return s
}

// Plugin exposes the controller driving the server's views.
func (s *Server) Plugin() *controller.Plugin {
	return s.plugin
}

// Run serves LSP requests until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.plugin.Close()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("failed to parse message", slog.String("error", err.Error()))
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdownRequested() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/didRenameFiles":
		return s.handleDidRenameFiles(msg)
	case "workspace/didDeleteFiles":
		return s.handleDidDeleteFiles(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/inlayHint":
		return s.handleInlayHint(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}

	fileOps := &fileOperationRegistrationOptions{
		Filters: []fileOperationFilter{{Scheme: "file", Pattern: fileOperationPattern{Glob: "**/*"}}},
	}
	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			InlayHintProvider: &inlayHintOptions{},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{CommandToggleChecks},
			},
			Workspace: &workspaceCapabilities{
				FileOperations: &fileOperationsCapabilities{
					DidRename: fileOps,
					DidDelete: fileOps,
				},
			},
		},
		ServerInfo: &serverInfo{Name: "writegood", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.cancelAll()
	s.clearPublishedDiagnostics()
	if err := s.plugin.Flush(); err != nil {
		s.logger.Warn("settings flush failed", slog.String("error", err.Error()))
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	doc := newDocument(uri, params.TextDocument.Text, params.TextDocument.Version)
	s.mu.Lock()
	prev := s.docs[uri]
	s.docs[uri] = doc
	s.lastTouched = uri
	s.mu.Unlock()
	if prev != nil {
		s.closeView(prev)
	}
	doc.view = s.plugin.NewView(doc, nil)
	s.plugin.SetActive(doc.view)
	s.tracef("didOpen", slog.String("uri", uri), slog.Int("version", params.TextDocument.Version))
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	doc := s.touch(uri)
	if doc == nil {
		return nil
	}
	doc.edit(func(text string) string {
		return applyChanges(text, params.ContentChanges)
	}, params.TextDocument.Version)
	s.tracef("didChange", slog.String("uri", uri), slog.Int("version", params.TextDocument.Version))
	s.plugin.SetActive(doc.view)
	s.schedule(doc.view, controller.EventTextChanged)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	doc := s.touch(uri)
	if doc == nil {
		return nil
	}
	if params.Text != nil {
		doc.edit(func(string) string { return *params.Text }, -1)
	}
	s.tracef("didSave", slog.String("uri", uri))
	s.schedule(doc.view, controller.EventTextChanged)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc := s.docs[uri]
	delete(s.docs, uri)
	if s.lastTouched == uri {
		s.lastTouched = ""
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if doc != nil {
		s.closeView(doc)
	}
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logger.Warn("failed to clear diagnostics", slog.String("error", err.Error()))
		}
	}
	return nil
}

// touch records uri as the most recently used document and returns it.
func (s *Server) touch(uri string) *document {
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[uri]
	if doc != nil {
		s.lastTouched = uri
	}
	return doc
}

func (s *Server) document(uri string) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[uri]
}

func (s *Server) closeView(doc *document) {
	if doc.view == nil {
		return
	}
	s.cancel(doc.view)
	s.plugin.CloseView(doc.view)
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: list,
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) tracef(msg string, attrs ...any) {
	if !s.currentTrace() {
		return
	}
	s.logger.Info(msg, attrs...)
}

func (s *Server) currentTrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceLSP
}

// document is an open editor buffer.
type document struct {
	mu      sync.Mutex
	uri     string
	text    string
	version int
	view    *controller.View

	// last published rebuild
	shownSeq     uint64
	shownVersion int
	shownEnabled bool
	entries      []decor.Entry
	file         *source.File
}

func newDocument(uri, text string, version int) *document {
	return &document{uri: uri, text: text, version: version}
}

func (d *document) Identity() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return identityForURI(d.uri)
}

func (d *document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *document) URI() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uri
}

func (d *document) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// edit replaces the text with fn(text); a negative version keeps the
// current one.
func (d *document) edit(fn func(string) string, version int) {
	d.mu.Lock()
	d.text = fn(d.text)
	if version >= 0 {
		d.version = version
	}
	d.mu.Unlock()
}
