package highlight

import (
	"slices"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/engine/rope"
)

// SemanticScopePrefix prefixes the scope of spans built from semantic
// tokens.
const SemanticScopePrefix = "semantic."

// DecodeSemanticTokens converts relative-encoded token data (five integers
// per token: delta line, delta start, length, type, modifiers) into spans
// over r. Columns are UTF-16 units. Tokens whose type is missing from the
// legend are skipped.
func DecodeSemanticTokens(r rope.Rope, data []uint32, legend []string) []buffer.Span {
	spans := make([]buffer.Span, 0, len(data)/5)
	var line, char uint32
	for i := 0; i+5 <= len(data); i += 5 {
		deltaLine, deltaStart, length, typ := data[i], data[i+1], data[i+2], data[i+3]
		if deltaLine > 0 {
			line += deltaLine
			char = deltaStart
		} else {
			char += deltaStart
		}

		idx, err := safecast.Conv[int](typ)
		if err != nil || idx >= len(legend) {
			continue
		}
		start := buffer.PositionToOffset(r, protocol.Position{Line: line, Character: char})
		end := buffer.PositionToOffset(r, protocol.Position{Line: line, Character: char + length})
		if end <= start {
			continue
		}
		spans = append(spans, buffer.Span{Start: start, End: end, Scope: SemanticScopePrefix + legend[idx]})
	}
	return spans
}

// Overlay merges semantic spans over base spans. A base span overlapping
// any semantic span is dropped. The result is ordered by start offset.
func Overlay(base, semantic []buffer.Span) []buffer.Span {
	sem := slices.Clone(semantic)
	slices.SortFunc(sem, byStart)

	out := make([]buffer.Span, 0, len(base)+len(sem))
	j := 0
	for _, s := range base {
		for j < len(sem) && sem[j].End <= s.Start {
			j++
		}
		if j < len(sem) && sem[j].Start < s.End {
			continue
		}
		out = append(out, s)
	}
	out = append(out, sem...)
	slices.SortStableFunc(out, byStart)
	return out
}

func byStart(a, b buffer.Span) int {
	switch {
	case a.Start < b.Start:
		return -1
	case a.Start > b.Start:
		return 1
	}
	return 0
}
