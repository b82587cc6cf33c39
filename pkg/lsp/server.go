// Package lsp provides a Language Server Protocol (LSP) server for
// package.html documents. Hovering shows the Javadoc comment the document
// converts to, and diagnostics flag documents without a usable body.
package lsp

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/safeconv"
	"github.com/Sumatoshi-tech/docfang/pkg/version"
)

const serverName = "docfang package.html"

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server implements the package.html LSP server.
type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	opts    javadoc.Options
	logger  *slog.Logger
}

// NewServer creates a server that previews comments rendered with opts.
func NewServer(opts javadoc.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{store: NewDocumentStore(), opts: opts, logger: logger}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv
}

// Run starts the LSP server on stdio.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		srv.logger.Error("lsp server stopped", "error", err)

		return err
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	text, _ := srv.store.Get(uri)

	srv.store.Set(uri, ApplyChanges(text, params.ContentChanges))
	srv.publishDiagnostics(ctx, uri)

	return nil
}

// ApplyChanges applies full and incremental content changes in order.
func ApplyChanges(text string, changes []any) string {
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = change.Text
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				text = change.Text

				continue
			}

			start, end := change.Range.IndexesIn(text)
			text = text[:start] + change.Text + text[end:]
		}
	}

	return text
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.Delete(params.TextDocument.URI)

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects a nil hover for unknown documents.
	}

	preview := Preview(text, srv.opts)
	if preview == "" {
		return nil, nil //nolint:nilnil // nothing to show.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: preview,
		},
	}, nil
}

// Preview renders the comment a package.html converts to as a Markdown
// code block, or "" when it converts to nothing.
func Preview(text string, opts javadoc.Options) string {
	comment := javadoc.PackageHTMLToJavadoc(text, opts)
	if comment == "" {
		return ""
	}

	return "```java\n" + comment + "```"
}

// Diagnostics reports structural problems in a package.html document.
func Diagnostics(text string) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	if strings.TrimSpace(text) == "" {
		return diags
	}

	span := htmlbody.Find(text)

	switch {
	case span.Kind == htmlbody.KindNone:
		diags = append(diags, diagnostic(text, 0, 0, protocol.DiagnosticSeverityWarning,
			"no <body> or <html> element; the whole document becomes the package comment"))
	case strings.TrimSpace(text[span.Start:span.End]) == "":
		diags = append(diags, diagnostic(text, span.Start, span.End, protocol.DiagnosticSeverityInformation,
			"empty body; no package-info.java will be generated"))
	}

	return diags
}

func diagnostic(text string, start, end int, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := "docfang"

	return protocol.Diagnostic{
		Range:    protocol.Range{Start: position(text, start), End: position(text, end)},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// position converts a byte offset into a zero-based line and UTF-16
// character position.
func position(text string, offset int) protocol.Position {
	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1

	character := 0

	for _, r := range prefix[lineStart:] {
		character++

		if r >= 0x10000 {
			character++
		}
	}

	return protocol.Position{Line: safeconv.MustIntToUint32(line), Character: safeconv.MustIntToUint32(character)}
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: Diagnostics(text),
	})
}
