package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/pwoolcoc/wren/compiler"
	"github.com/pwoolcoc/wren/vm"
)

const lspName = "wren-lsp"

// LspServer bridges editor features to the VM. Diagnostics only need the
// compiler frontend and run inline; completion and hover read live VM
// state and go through the worker.
type LspServer struct {
	worker *VMWorker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates an LSP server wrapping the given VM.
func NewLSP(v *vm.VM) *LspServer {
	worker := NewVMWorker(v)
	s := &LspServer{
		worker:  worker,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client
// disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- Lifecycle ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Wren LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With full sync the last change event carries the whole document.
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnosticsFor(text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnosticsFor runs the compiler frontend over text. Parse errors come
// back as errors; when the parse is clean, analyzer findings come back as
// warnings.
func diagnosticsFor(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	program, err := compiler.Parse(text)
	var list compiler.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			diagnostics = append(diagnostics, diagnostic(e.Pos, e.Message, protocol.DiagnosticSeverityError))
		}
		return diagnostics
	}

	for _, d := range compiler.Analyze(program) {
		severity := protocol.DiagnosticSeverityWarning
		if d.Severity == compiler.SeverityError {
			severity = protocol.DiagnosticSeverityError
		}
		diagnostics = append(diagnostics, diagnostic(d.Pos, d.Message, severity))
	}
	return diagnostics
}

func diagnostic(pos compiler.Position, message string, severity protocol.DiagnosticSeverity) protocol.Diagnostic {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	column := pos.Column - 1
	if column < 0 {
		column = 0
	}
	at := protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(column)}
	source := lspName
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: at, End: at},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// --- Completion ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		return complete(v, prefix)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// complete offers global names and interned method signatures matching
// the prefix. Must be called on the worker goroutine.
func complete(v *vm.VM, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	for _, name := range v.GlobalNames() {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindVariable
		detail := "global"
		if value, ok := v.LookupGlobal(name); ok && value.IsClass() {
			kind = protocol.CompletionItemKindClass
			detail = "class"
			if super := value.AsClass().Superclass(); super != nil {
				detail = fmt.Sprintf("class (is %s)", super.Name())
			}
		}
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	seen := map[string]bool{}
	for _, signature := range v.MethodSignatures() {
		// Space-prefixed signatures are internal and unspellable.
		if strings.HasPrefix(signature, " ") {
			continue
		}
		name, arity := vm.SignatureArity(signature)
		if seen[signature] || !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		seen[signature] = true
		kind := protocol.CompletionItemKindMethod
		detail := describeArity(arity)
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

// --- Hover ---

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		return hover(v, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	h, ok := result.(*protocol.Hover)
	if !ok {
		return nil, nil
	}
	return h, nil
}

// hover describes a global binding or the known arities of a method name.
// Must be called on the worker goroutine.
func hover(v *vm.VM, word string) *protocol.Hover {
	if value, ok := v.LookupGlobal(word); ok {
		var b strings.Builder
		if value.IsClass() {
			cls := value.AsClass()
			fmt.Fprintf(&b, "**%s**", cls.Name())
			if super := cls.Superclass(); super != nil {
				fmt.Fprintf(&b, " is %s", super.Name())
			}
			if fields := cls.NumFields(); fields > 0 {
				fmt.Fprintf(&b, "\n\n%d fields", fields)
			}
		} else {
			fmt.Fprintf(&b, "**%s**\n\nglobal, currently `%s`", word, value.Debug())
		}
		return markdownHover(b.String())
	}

	var arities []int
	seen := map[int]bool{}
	for _, signature := range v.MethodSignatures() {
		name, arity := vm.SignatureArity(signature)
		if name == word && !seen[arity] {
			seen[arity] = true
			arities = append(arities, arity)
		}
	}
	if len(arities) == 0 {
		return nil
	}
	sort.Ints(arities)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", word)
	forms := make([]string, len(arities))
	for i, arity := range arities {
		forms[i] = describeArity(arity)
	}
	b.WriteString("Known forms: " + strings.Join(forms, ", "))
	return markdownHover(b.String())
}

func markdownHover(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

func describeArity(arity int) string {
	switch arity {
	case 0:
		return "getter"
	case 1:
		return "1 argument"
	default:
		return fmt.Sprintf("%d arguments", arity)
	}
}

// --- Text extraction ---

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// extractPrefix returns the identifier fragment ending at the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isIdentRune(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the whole identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isIdentRune(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isIdentRune(rune(line[end])) {
		end++
	}
	if start == end {
		return ""
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
