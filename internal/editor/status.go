package editor

import (
	"slices"
	"strings"

	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/language"
	"github.com/cybernobie/lapce/internal/revision"
	"github.com/cybernobie/lapce/internal/workspace"
)

// BufferStatus describes one open buffer.
type BufferStatus struct {
	ID          buffer.ID
	Path        string
	Revision    revision.Revision
	Saved       revision.Revision
	Dirty       bool
	Loaded      bool
	Language    language.Tag
	LoadErr     string
	Diagnostics int
}

// Status is an immutable snapshot of editor state. It is safe to read from
// any goroutine.
type Status struct {
	Workspace workspace.Workspace
	Errors    int
	Warnings  int

	// Buffers is sorted by path.
	Buffers []BufferStatus

	Active buffer.ID
	Cursor buffer.ByteOffset

	CodeActionsVisible bool
	Commands           uint64
}

// Buffer returns the status of the buffer at path.
func (s *Status) Buffer(path string) (BufferStatus, bool) {
	i, ok := slices.BinarySearchFunc(s.Buffers, path, func(b BufferStatus, p string) int {
		return strings.Compare(b.Path, p)
	})
	if !ok {
		return BufferStatus{}, false
	}
	return s.Buffers[i], true
}

// Status returns the snapshot published after the last handled command.
func (e *Editor) Status() *Status {
	return e.status.Load()
}

// publish rebuilds and publishes the status snapshot.
func (e *Editor) publish() {
	st := &Status{
		Workspace:          e.workspace,
		Errors:             e.errors,
		Warnings:           e.warnings,
		Buffers:            make([]BufferStatus, 0, len(e.buffers)),
		Active:             e.active,
		Cursor:             e.cursor,
		CodeActionsVisible: e.codeActionsVisible,
		Commands:           e.handled,
	}
	for _, b := range e.buffers {
		bs := BufferStatus{
			ID:          b.ID(),
			Path:        b.Path(),
			Revision:    b.Revision(),
			Saved:       b.SavedRevision(),
			Dirty:       b.Dirty(),
			Loaded:      b.Loaded(),
			Diagnostics: len(b.Diagnostics()),
		}
		bs.Language, _ = b.Language()
		if err := b.LoadErr(); err != nil {
			bs.LoadErr = err.Error()
		}
		st.Buffers = append(st.Buffers, bs)
	}
	slices.SortFunc(st.Buffers, func(a, b BufferStatus) int {
		return strings.Compare(a.Path, b.Path)
	})
	e.status.Store(st)
}
