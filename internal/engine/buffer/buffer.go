package buffer

import (
	"errors"
	"maps"
	"slices"

	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/rope"
	"github.com/cybernobie/lapce/internal/language"
	"github.com/cybernobie/lapce/internal/revision"
)

// Errors returned by buffer operations.
var (
	ErrNotLoaded    = errors.New("buffer not loaded")
	ErrRangeInvalid = errors.New("invalid range")
	ErrEditsOverlap = errors.New("edits overlap")
)

// Buffer is a loop-owned text buffer with revision-tagged derived data.
type Buffer struct {
	id   ID
	path string

	rope     rope.Rope
	rev      revision.Revision
	savedRev revision.Revision
	dirty    bool
	loaded   bool
	loadErr  error
	language language.Tag

	diagnostics []Diagnostic
	codeActions map[ByteOffset]codeActionEntry
	styles      Styles
	hasStyles   bool
}

// New returns an unloaded buffer for path.
func New(path string) *Buffer {
	return &Buffer{
		id:          NewID(),
		path:        path,
		codeActions: make(map[ByteOffset]codeActionEntry),
	}
}

// ID returns the buffer ID.
func (b *Buffer) ID() ID { return b.id }

// Path returns the file path the buffer was opened from.
func (b *Buffer) Path() string { return b.path }

// Revision returns the current revision.
func (b *Buffer) Revision() revision.Revision { return b.rev }

// Dirty reports whether the content differs from the last saved content.
func (b *Buffer) Dirty() bool { return b.dirty }

// Loaded reports whether the initial content has arrived.
func (b *Buffer) Loaded() bool { return b.loaded }

// LoadErr returns the content retrieval error, if retrieval failed.
func (b *Buffer) LoadErr() error { return b.loadErr }

// Rope returns the current text store.
func (b *Buffer) Rope() rope.Rope { return b.rope }

// Text returns the full content.
func (b *Buffer) Text() string { return b.rope.String() }

// Len returns the content length in bytes.
func (b *Buffer) Len() ByteOffset { return b.rope.Len() }

// Language returns the language tag, if one is known.
func (b *Buffer) Language() (language.Tag, bool) {
	return b.language, b.language != language.None
}

// SetLanguage sets the language tag.
func (b *Buffer) SetLanguage(tag language.Tag) {
	b.language = tag
}

// LoadContent replaces the content wholesale and marks the buffer loaded.
// The initial load defines the revision baseline; any later load counts as
// a committed mutation and bumps the revision.
func (b *Buffer) LoadContent(text string) {
	if b.loaded {
		b.rev = b.rev.Next()
	}
	b.rope = rope.FromString(text)
	b.loaded = true
	b.loadErr = nil
	b.dirty = false
	b.savedRev = b.rev
	b.resolveDiagnostics()
}

// Reload replaces the content with text read for revision rev. The reload is
// applied only when rev directly follows the current revision and the text
// actually differs; otherwise Reload reports false and nothing changes.
func (b *Buffer) Reload(rev revision.Revision, text string) bool {
	if !b.loaded || !revision.AcceptReload(rev, b.rev) {
		return false
	}
	if b.rope.Len() == ByteOffset(len(text)) && b.rope.String() == text {
		return false
	}
	b.rope = rope.FromString(text)
	b.rev = rev
	b.dirty = false
	b.savedRev = rev
	b.resolveDiagnostics()
	return true
}

// SetLoadError records a failed content retrieval. The buffer stays
// unloaded.
func (b *Buffer) SetLoadError(err error) {
	b.loadErr = err
}

// ApplyEdit applies a single edit, bumps the revision and marks the buffer
// dirty. The edit is validated before anything is mutated.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	if !b.loaded {
		return EditResult{}, ErrNotLoaded
	}
	if !b.validRange(edit.Range) {
		return EditResult{}, ErrRangeInvalid
	}

	oldText := b.rope.Slice(edit.Range.Start, edit.Range.End)
	b.rope = b.rope.Replace(edit.Range.Start, edit.Range.End, edit.NewText)
	b.commit()

	newEnd := edit.Range.Start + ByteOffset(len(edit.NewText))
	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: newEnd},
		OldText:  oldText,
		Delta:    int64(len(edit.NewText)) - int64(edit.Range.Len()),
		Revision: b.rev,
	}, nil
}

// ApplyEdits applies non-overlapping edits, given in any order and expressed
// against the current content, as one mutation with one revision bump.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if !b.loaded {
		return ErrNotLoaded
	}
	if len(edits) == 0 {
		return nil
	}

	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, c Edit) int {
		switch {
		case a.Range.Start > c.Range.Start:
			return -1
		case a.Range.Start < c.Range.Start:
			return 1
		}
		return 0
	})
	for i, e := range sorted {
		if !b.validRange(e.Range) {
			return ErrRangeInvalid
		}
		if i > 0 && e.Range.End > sorted[i-1].Range.Start {
			return ErrEditsOverlap
		}
	}

	r := b.rope
	for _, e := range sorted {
		r = r.Replace(e.Range.Start, e.Range.End, e.NewText)
	}
	b.rope = r
	b.commit()
	return nil
}

func (b *Buffer) commit() {
	b.rev = b.rev.Next()
	b.dirty = true
	b.resolveDiagnostics()
}

func (b *Buffer) validRange(r Range) bool {
	return r.IsValid() && r.End <= b.rope.Len()
}

// MarkSaved acknowledges a save of revision rev. The dirty flag is cleared
// only if no edit happened since the save was requested.
func (b *Buffer) MarkSaved(rev revision.Revision) bool {
	if !revision.Accept(rev, b.rev) {
		return false
	}
	b.dirty = false
	b.savedRev = rev
	return true
}

// SavedRevision returns the revision of the last acknowledged save or load.
func (b *Buffer) SavedRevision() revision.Revision { return b.savedRev }

// UpdateStyles replaces the highlight cache if rev is current. Plain syntax
// spans never replace semantic spans of the same revision.
func (b *Buffer) UpdateStyles(rev revision.Revision, spans []Span, semantic bool) bool {
	if !revision.Accept(rev, b.rev) {
		return false
	}
	if !semantic && b.hasStyles && b.styles.Semantic && b.styles.Revision == rev {
		return false
	}
	b.styles = Styles{Revision: rev, Spans: spans, Semantic: semantic}
	b.hasStyles = true
	return true
}

// Styles returns the highlight cache if it belongs to the current revision.
func (b *Buffer) Styles() (Styles, bool) {
	if !b.hasStyles || b.styles.Revision != b.rev {
		return Styles{}, false
	}
	return b.styles, true
}

// LastStyles returns the most recent highlight cache regardless of its
// revision. It is the base the background worker folds new tokens into and
// must not be rendered.
func (b *Buffer) LastStyles() Styles {
	return b.styles
}

// InsertCodeAction caches resp for offset if rev is current. Entries for
// other offsets are kept; entries from older revisions are evicted.
func (b *Buffer) InsertCodeAction(offset ByteOffset, rev revision.Revision, resp CodeActionResponse) bool {
	if !revision.Accept(rev, b.rev) {
		return false
	}
	maps.DeleteFunc(b.codeActions, func(_ ByteOffset, e codeActionEntry) bool {
		return e.rev != b.rev
	})
	b.codeActions[offset] = codeActionEntry{rev: rev, resp: resp}
	return true
}

// CodeActions returns the cached code actions at offset for the current
// revision.
func (b *Buffer) CodeActions(offset ByteOffset) (CodeActionResponse, bool) {
	e, ok := b.codeActions[offset]
	if !ok || e.rev != b.rev {
		return nil, false
	}
	return e.resp, true
}

// SetDiagnostics replaces the diagnostic set wholesale.
func (b *Buffer) SetDiagnostics(diags []protocol.Diagnostic) {
	b.diagnostics = make([]Diagnostic, len(diags))
	for i, d := range diags {
		b.diagnostics[i] = Diagnostic{Diagnostic: d}
	}
	b.resolveDiagnostics()
}

// Diagnostics returns a copy of the diagnostic set.
func (b *Buffer) Diagnostics() []Diagnostic {
	return slices.Clone(b.diagnostics)
}

// resolveDiagnostics maps diagnostic positions onto the loaded content.
func (b *Buffer) resolveDiagnostics() {
	for i := range b.diagnostics {
		if !b.loaded {
			b.diagnostics[i].Range = nil
			continue
		}
		r := RangeToBytes(b.rope, b.diagnostics[i].Diagnostic.Range)
		b.diagnostics[i].Range = &r
	}
}

// Snapshot returns an immutable view of the current state.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{
		ID:       b.id,
		Path:     b.path,
		Rope:     b.rope,
		Revision: b.rev,
		Language: b.language,
	}
}

// PositionToOffset converts a protocol position against the current content.
func (b *Buffer) PositionToOffset(pos protocol.Position) ByteOffset {
	return PositionToOffset(b.rope, pos)
}

// OffsetToPosition converts an offset in the current content to a protocol
// position.
func (b *Buffer) OffsetToPosition(offset ByteOffset) protocol.Position {
	return OffsetToPosition(b.rope, offset)
}
