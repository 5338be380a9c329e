package buffer

import (
	"slices"

	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/revision"
)

// Span is a styled byte range. Scope names the highlight group, e.g.
// "Keyword" or "semantic.function".
type Span struct {
	Start ByteOffset
	End   ByteOffset
	Scope string
}

// Styles is the highlight cache of a buffer.
type Styles struct {
	Revision revision.Revision
	Spans    []Span

	// Semantic is set when the spans include semantic tokens.
	Semantic bool
}

// Equal reports whether both style sets hold the same spans.
func (s Styles) Equal(other Styles) bool {
	return s.Semantic == other.Semantic && slices.Equal(s.Spans, other.Spans)
}

// CodeActionResponse is the set of code actions offered at one offset.
type CodeActionResponse []protocol.CodeAction

type codeActionEntry struct {
	rev  revision.Revision
	resp CodeActionResponse
}

// Diagnostic is a proxy diagnostic attached to a buffer. Range stays nil
// until the diagnostic has been mapped onto loaded buffer content.
type Diagnostic struct {
	Range      *Range
	Diagnostic protocol.Diagnostic
}

// Severity returns the diagnostic severity.
func (d Diagnostic) Severity() protocol.DiagnosticSeverity {
	return d.Diagnostic.Severity
}
