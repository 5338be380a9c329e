package editor

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
)

// activate makes b the active buffer, restoring its last cursor.
func (e *Editor) activate(b *buffer.Buffer) {
	if e.active == b.ID() {
		return
	}
	e.cancelCodeActions()
	if !e.active.IsZero() {
		e.cursors[e.active] = e.cursor
	}
	e.active = b.ID()
	e.cursor = min(e.cursors[b.ID()], b.Len())
	delete(e.cursors, b.ID())
	e.invalidate(Cursor, b)
}

// setCursor moves the cursor of the active buffer b, clamped to its
// content.
func (e *Editor) setCursor(b *buffer.Buffer, off buffer.ByteOffset) {
	off = max(0, min(off, b.Len()))
	if off == e.cursor {
		return
	}
	e.cursor = off
	e.invalidate(Cursor, b)
}

// goTo opens the file of loc and moves the cursor to its start. For a
// buffer still loading the location is applied once the content arrives.
func (e *Editor) goTo(loc protocol.Location) {
	path, ok := locationPath(loc.URI)
	if !ok {
		e.logger.Debug("location with non-file uri %q ignored", loc.URI)
		return
	}
	b, ok := e.BufferByPath(path)
	switch {
	case ok && b.Loaded():
		e.activate(b)
		e.setCursor(b, b.PositionToOffset(loc.Range.Start))
		e.cancelCodeActions()
	case ok:
		e.activate(b)
		e.pending[path] = loc
	default:
		b = e.newBuffer(path)
		e.proxy.RetrieveFile(b.ID(), path, command.SinkFunc(func(cmd command.Command) error {
			if lb, ok := cmd.Payload.(command.LoadBuffer); ok {
				cmd.Payload = command.LoadBufferAndGoToPosition{
					Path:     lb.Path,
					Content:  lb.Content,
					Location: loc,
				}
			}
			return e.bus.Send(cmd)
		}))
	}
}

// guardedGoTo follows a navigation result only if the cursor has not moved
// since it was requested.
func (e *Editor) guardedGoTo(offset buffer.ByteOffset, loc protocol.Location) {
	if !e.cursorAt(offset) {
		e.logger.Debug("navigation from offset %d dropped; cursor at %d", offset, e.cursor)
		return
	}
	e.jumpToLocation(loc)
}

func (e *Editor) paletteReferences(p command.PaletteReferences) error {
	if !e.cursorAt(p.Offset) {
		e.logger.Debug("references from offset %d dropped; cursor at %d", p.Offset, e.cursor)
		return nil
	}
	switch len(p.Locations) {
	case 0:
		return nil
	case 1:
		e.jumpToLocation(p.Locations[0])
		return nil
	default:
		return e.route(PaletteComponent, command.RunPaletteReferences{Locations: p.Locations})
	}
}

func (e *Editor) cursorAt(offset buffer.ByteOffset) bool {
	_, ok := e.activeBuffer()
	return ok && e.cursor == offset
}

// jumpToLocation records the current location in the jump history and
// goes to loc.
func (e *Editor) jumpToLocation(loc protocol.Location) {
	if b, ok := e.activeBuffer(); ok && b.Loaded() {
		pos := b.OffsetToPosition(e.cursor)
		e.jumps = append(e.jumps, protocol.Location{
			URI:   uri.File(b.Path()),
			Range: protocol.Range{Start: pos, End: pos},
		})
		if n := len(e.jumps) - maxJumps; n > 0 {
			e.jumps = e.jumps[n:]
		}
	}
	e.goTo(loc)
}

func (e *Editor) jumpToPosition(pos protocol.Position) error {
	b, ok := e.activeBuffer()
	if !ok || !b.Loaded() {
		return ErrNoActiveBuffer
	}
	e.moveTo(b, b.PositionToOffset(pos))
	return nil
}

func (e *Editor) jumpToLine(line uint32) error {
	b, ok := e.activeBuffer()
	if !ok || !b.Loaded() {
		return ErrNoActiveBuffer
	}
	e.moveTo(b, b.Rope().LineStart(line))
	return nil
}

func (e *Editor) moveCursor(offset buffer.ByteOffset) error {
	b, ok := e.activeBuffer()
	if !ok || !b.Loaded() {
		return ErrNoActiveBuffer
	}
	e.moveTo(b, offset)
	return nil
}

// moveTo moves the cursor and prefetches code actions for the new
// position.
func (e *Editor) moveTo(b *buffer.Buffer, offset buffer.ByteOffset) {
	prev := e.cursor
	e.setCursor(b, offset)
	if e.cursor == prev {
		return
	}
	e.cancelCodeActions()
	if _, ok := b.CodeActions(e.cursor); !ok {
		e.requestCodeActions(b)
	}
}

func (e *Editor) requestCodeActions(b *buffer.Buffer) {
	e.proxy.RequestCodeActions(b.Snapshot(), e.cursor, b.OffsetToPosition(e.cursor))
}
