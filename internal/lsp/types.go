package lsp

import "encoding/json"

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInvalidRequest = -32600
)

type initializeParams struct {
	RootURI               string            `json:"rootUri,omitempty"`
	RootPath              string            `json:"rootPath,omitempty"`
	WorkspaceFolders      []workspaceFolder `json:"workspaceFolders,omitempty"`
	InitializationOptions json.RawMessage   `json:"initializationOptions,omitempty"`
}

type workspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type textDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type versionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type textDocumentContentChangeEvent struct {
	Range *lspRange `json:"range,omitempty"`
	Text  string    `json:"text"`
}

type didOpenTextDocumentParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type didChangeTextDocumentParams struct {
	TextDocument   versionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []textDocumentContentChangeEvent `json:"contentChanges"`
}

type didSaveTextDocumentParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

type didCloseTextDocumentParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type fileRename struct {
	OldURI string `json:"oldUri"`
	NewURI string `json:"newUri"`
}

type renameFilesParams struct {
	Files []fileRename `json:"files"`
}

type fileDelete struct {
	URI string `json:"uri"`
}

type deleteFilesParams struct {
	Files []fileDelete `json:"files"`
}

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

type toggleResult struct {
	URI     string `json:"uri"`
	Enabled bool   `json:"enabled"`
}

type textDocumentSyncOptions struct {
	OpenClose bool        `json:"openClose"`
	Change    int         `json:"change"`
	Save      saveOptions `json:"save,omitempty"`
}

type saveOptions struct {
	IncludeText bool `json:"includeText,omitempty"`
}

type executeCommandOptions struct {
	Commands []string `json:"commands"`
}

type fileOperationFilter struct {
	Scheme  string               `json:"scheme,omitempty"`
	Pattern fileOperationPattern `json:"pattern"`
}

type fileOperationPattern struct {
	Glob string `json:"glob"`
}

type fileOperationRegistrationOptions struct {
	Filters []fileOperationFilter `json:"filters"`
}

type fileOperationsCapabilities struct {
	DidRename *fileOperationRegistrationOptions `json:"didRename,omitempty"`
	DidDelete *fileOperationRegistrationOptions `json:"didDelete,omitempty"`
}

type workspaceCapabilities struct {
	FileOperations *fileOperationsCapabilities `json:"fileOperations,omitempty"`
}

type serverCapabilities struct {
	TextDocumentSync       textDocumentSyncOptions `json:"textDocumentSync"`
	InlayHintProvider      *inlayHintOptions       `json:"inlayHintProvider,omitempty"`
	ExecuteCommandProvider *executeCommandOptions  `json:"executeCommandProvider,omitempty"`
	Workspace              *workspaceCapabilities  `json:"workspace,omitempty"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   *serverInfo        `json:"serverInfo,omitempty"`
}

type publishDiagnosticsParams struct {
	URI         string          `json:"uri"`
	Version     *int            `json:"version,omitempty"`
	Diagnostics []lspDiagnostic `json:"diagnostics"`
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity,omitempty"`
	Code     string   `json:"code,omitempty"`
	Source   string   `json:"source,omitempty"`
	Message  string   `json:"message"`
}

// decorationsParams is the payload of the writegood/decorations
// notification. It carries the full ordered set so clients that draw line
// markers themselves need no other request.
type decorationsParams struct {
	URI         string          `json:"uri"`
	Version     int             `json:"version"`
	Enabled     bool            `json:"enabled"`
	Decorations []lspDecoration `json:"decorations"`
}

type lspDecoration struct {
	Kind    string   `json:"kind"`
	Range   lspRange `json:"range"`
	Class   string   `json:"class"`
	Message string   `json:"message,omitempty"`
	Side    int      `json:"side,omitempty"`
}

type inlayHintParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Range        lspRange               `json:"range"`
}

type inlayHintOptions struct {
	ResolveProvider bool `json:"resolveProvider,omitempty"`
}

type inlayHint struct {
	Position     position `json:"position"`
	Label        string   `json:"label"`
	Kind         int      `json:"kind,omitempty"`
	Tooltip      string   `json:"tooltip,omitempty"`
	PaddingLeft  bool     `json:"paddingLeft,omitempty"`
	PaddingRight bool     `json:"paddingRight,omitempty"`
}

type didChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}

type lspSettings struct {
	WriteGood writeGoodSettings `json:"writegood"`
}

type writeGoodSettings struct {
	Checks                map[string]bool `json:"checks,omitempty"`
	EnableChecksByDefault *bool           `json:"enableChecksByDefault,omitempty"`
	Trace                 *bool           `json:"trace,omitempty"`
}
