package highlight

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/language"
)

// lexerFor resolves a lexer from the language tag, falling back to the
// file name. It returns nil when nothing matches.
func lexerFor(tag language.Tag, path string) chroma.Lexer {
	if tag != language.None {
		if l := lexers.Get(tag.ID()); l != nil {
			return l
		}
		if l := lexers.Get(tag.String()); l != nil {
			return l
		}
	}
	if path != "" {
		return lexers.Match(filepath.Base(path))
	}
	return nil
}

// Tokenize lexes the snapshot into highlight spans. Plain text and
// whitespace produce no span.
func Tokenize(snap buffer.Snapshot) ([]buffer.Span, error) {
	lexer := lexerFor(snap.Language, snap.Path)
	if lexer == nil {
		return nil, nil
	}
	lexer = chroma.Coalesce(lexer)

	text := snap.Text()
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil, err
	}

	limit := snap.Rope.Len()
	var spans []buffer.Span
	var off buffer.ByteOffset
	for _, tok := range it.Tokens() {
		start := off
		off += buffer.ByteOffset(len(tok.Value))
		if start >= limit {
			break
		}
		scope := scopeOf(tok.Type)
		if scope == "" {
			continue
		}
		spans = append(spans, buffer.Span{Start: start, End: min(off, limit), Scope: scope})
	}
	return spans, nil
}

func scopeOf(tt chroma.TokenType) string {
	if tt.InCategory(chroma.Text) || tt == chroma.Other {
		return ""
	}
	return tt.String()
}
