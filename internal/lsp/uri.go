package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"writegood/internal/enablement"
)

func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// canonicalURI round-trips file URIs through the filesystem path so that
// differently escaped spellings of one file compare equal. Other schemes
// (untitled:, vscode-notebook-cell:) are kept verbatim.
func canonicalURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if path := uriToPath(uri); path != "" {
		return pathToURI(path)
	}
	return uri
}

// identityForURI is the enablement key of a document: its filesystem path
// for file URIs, the URI itself otherwise.
func identityForURI(uri string) string {
	if path := uriToPath(uri); path != "" {
		return enablement.PathIdentity(path)
	}
	return uri
}
