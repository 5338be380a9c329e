package proxy

import (
	"errors"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/engine/rope"
	"github.com/cybernobie/lapce/internal/language"
)

// goLanguage is the tag of Go sources.
const goLanguage language.Tag = "Go"

// diagnosticSource names the producer of Go diagnostics.
const diagnosticSource = "go/parser"

// GoLegend is the semantic token legend for Go documents.
var GoLegend = []string{"keyword", "string", "number", "comment", "function", "variable", "operator"}

const (
	tokKeyword uint32 = iota
	tokString
	tokNumber
	tokComment
	tokFunction
	tokVariable
	tokOperator
)

func isGo(doc Document) bool {
	return doc.Language == goLanguage
}

// goDiagnostics parses the document and reports syntax errors.
func goDiagnostics(doc Document) []protocol.Diagnostic {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, doc.Path, doc.Text(), parser.AllErrors|parser.SkipObjectResolution)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []protocol.Diagnostic{{
			Severity: protocol.DiagnosticSeverityError,
			Source:   diagnosticSource,
			Message:  err.Error(),
		}}
	}

	diags := make([]protocol.Diagnostic, 0, len(list))
	for _, e := range list {
		start := buffer.ByteOffset(e.Pos.Offset)
		end := min(start+1, doc.Rope.Len())
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: doc.OffsetToPosition(start),
				End:   doc.OffsetToPosition(max(start, end)),
			},
			Severity: protocol.DiagnosticSeverityError,
			Source:   diagnosticSource,
			Message:  e.Msg,
		})
	}
	return diags
}

// goFormat returns the edits that gofmt the document. A formatted document
// yields no edits.
func goFormat(doc Document) ([]protocol.TextEdit, error) {
	src := doc.Text()
	out, err := format.Source([]byte(src))
	if err != nil {
		return nil, err
	}
	if string(out) == src {
		return nil, nil
	}
	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{},
			End:   doc.OffsetToPosition(doc.Rope.Len()),
		},
		NewText: string(out),
	}}, nil
}

// goSemanticTokens scans the document and encodes its tokens in the
// relative five-integer form. Tokens spanning lines are split per line.
func goSemanticTokens(doc Document) ([]uint32, error) {
	src := []byte(doc.Text())
	fset := token.NewFileSet()
	file := fset.AddFile(doc.Path, -1, len(src))

	var s scanner.Scanner
	s.Init(file, src, nil, scanner.ScanComments)

	enc := tokenEncoder{rope: doc.Rope}

	// An identifier is classified once the next token shows whether it is
	// called.
	identOff, identLen := -1, 0
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		off := file.Offset(pos)

		if identOff >= 0 {
			typ := tokVariable
			if tok == token.LPAREN {
				typ = tokFunction
			}
			if err := enc.add(identOff, identLen, typ); err != nil {
				return nil, err
			}
			identOff = -1
		}

		var typ uint32
		length := len(lit)
		switch {
		case tok == token.IDENT:
			identOff, identLen = off, len(lit)
			continue
		case tok.IsKeyword():
			typ, length = tokKeyword, len(tok.String())
		case tok == token.STRING || tok == token.CHAR:
			typ = tokString
		case tok == token.INT || tok == token.FLOAT || tok == token.IMAG:
			typ = tokNumber
		case tok == token.COMMENT:
			typ = tokComment
		case tok.IsOperator() && !isDelimiter(tok):
			typ, length = tokOperator, len(tok.String())
		default:
			continue
		}
		if length == 0 || off+length > len(src) {
			continue
		}
		if err := enc.add(off, length, typ); err != nil {
			return nil, err
		}
	}
	if identOff >= 0 {
		if err := enc.add(identOff, identLen, tokVariable); err != nil {
			return nil, err
		}
	}
	return enc.data, nil
}

func isDelimiter(tok token.Token) bool {
	switch tok {
	case token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACK, token.RBRACK,
		token.COMMA, token.PERIOD, token.COLON, token.SEMICOLON:
		return true
	}
	return false
}

// tokenEncoder accumulates relative-encoded semantic tokens.
type tokenEncoder struct {
	rope     rope.Rope
	data     []uint32
	prevLine uint32
	prevChar uint32
}

func (e *tokenEncoder) add(off, length int, typ uint32) error {
	text := e.rope.Slice(buffer.ByteOffset(off), buffer.ByteOffset(off+length))
	for _, part := range strings.Split(text, "\n") {
		if part != "" {
			if err := e.emit(buffer.ByteOffset(off), part, typ); err != nil {
				return err
			}
		}
		off += len(part) + 1
	}
	return nil
}

func (e *tokenEncoder) emit(off buffer.ByteOffset, text string, typ uint32) error {
	pos := buffer.OffsetToPosition(e.rope, off)
	width, err := safecast.Conv[uint32](utf16Width(text))
	if err != nil {
		return err
	}

	deltaLine := pos.Line - e.prevLine
	deltaStart := pos.Character
	if deltaLine == 0 {
		deltaStart = pos.Character - e.prevChar
	}
	e.data = append(e.data, deltaLine, deltaStart, width, typ, 0)
	e.prevLine, e.prevChar = pos.Line, pos.Character
	return nil
}

func utf16Width(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// goCodeActions offers the actions available for the document at pos.
func goCodeActions(doc Document, pos protocol.Position) buffer.CodeActionResponse {
	var actions buffer.CodeActionResponse

	for _, d := range goDiagnostics(doc) {
		if d.Range.Start.Line != pos.Line {
			continue
		}
		actions = append(actions, protocol.CodeAction{
			Title:       "Syntax error: " + d.Message,
			Kind:        protocol.QuickFix,
			Diagnostics: []protocol.Diagnostic{d},
		})
	}

	edits, err := goFormat(doc)
	if err == nil && len(edits) > 0 {
		actions = append(actions, protocol.CodeAction{
			Title: "Format document",
			Kind:  protocol.Source,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentURI][]protocol.TextEdit{
					documentURI(doc.Path): edits,
				},
			},
		})
	}
	return actions
}
