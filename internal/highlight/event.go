// Package highlight runs the background recomputation worker. It turns
// buffer snapshots into highlight spans off the editor loop and sends the
// spans back, tagged with the revision they were computed for.
//
// The worker never cancels work that has been superseded by a newer edit.
// Each result is checked against the buffer's revision when the editor loop
// writes it back, so a late result is simply dropped there.
package highlight

import (
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/buffer"
)

// Kind selects the recomputation an UpdateEvent asks for.
type Kind uint8

const (
	// Syntax re-lexes the snapshot.
	Syntax Kind = iota
	// SemanticTokens folds semantic tokens into the current highlights.
	SemanticTokens
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case SemanticTokens:
		return "semantic-tokens"
	default:
		return "unknown"
	}
}

// UpdateEvent is a unit of work for the worker. It is a value; the rope in
// the snapshot is immutable, and the span slices must not be modified
// after the event is submitted.
type UpdateEvent struct {
	Kind     Kind
	Snapshot buffer.Snapshot

	// Highlights is the buffer's highlight state when the event was built.
	Highlights buffer.Styles

	// Tokens and Legend are set for SemanticTokens events.
	Tokens protocol.SemanticTokens
	Legend []string
}
