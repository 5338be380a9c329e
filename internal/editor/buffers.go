package editor

import (
	"fmt"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/language"
	"github.com/cybernobie/lapce/internal/workspace"
)

// setWorkspace tears down every open buffer and restarts the proxy for ws.
func (e *Editor) setWorkspace(ws workspace.Workspace) error {
	if ws == e.workspace {
		e.logger.Debug("workspace %s already set", ws)
		return nil
	}

	for _, b := range e.buffers {
		e.unwatch(b)
	}
	clear(e.buffers)
	clear(e.byPath)
	clear(e.cursors)
	clear(e.pending)
	clear(e.diagnostics)
	e.jumps = nil
	e.errors, e.warnings = 0, 0
	e.active, e.cursor = buffer.ID{}, 0
	e.codeActionsVisible, e.codeActionsWanted = false, false

	e.logger.Info("switching workspace from %q to %q", e.workspace, ws)
	e.workspace = ws
	e.invalidate(StatusBar, nil)
	e.invalidate(Cursor, nil)

	if err := e.proxy.Start(e.ctx, ws, e.bus); err != nil {
		return fmt.Errorf("starting proxy for %s: %w", ws, err)
	}
	return nil
}

// openFile activates path, opening it first if needed.
func (e *Editor) openFile(path string) *buffer.Buffer {
	path = cleanPath(path)
	if b, ok := e.BufferByPath(path); ok {
		e.activate(b)
		return b
	}
	b := e.newBuffer(path)
	e.proxy.RetrieveFile(b.ID(), path, nil)
	return b
}

// newBuffer registers and activates an unloaded buffer for path.
func (e *Editor) newBuffer(path string) *buffer.Buffer {
	b := buffer.New(path)
	e.buffers[b.ID()] = b
	e.byPath[path] = b.ID()
	e.watch(b)
	e.activate(b)
	e.invalidate(StatusBar, b)
	e.logger.Debug("opened %s as buffer %s", path, b.ID())
	return b
}

func (e *Editor) loadBuffer(path, content string) error {
	b, err := e.lookupPath(path)
	if err != nil {
		return err
	}
	if b.Loaded() {
		// A retrieval started for a buffer that was closed before it
		// answered lands on the reopened buffer of the same path.
		e.logger.Debug("load of %s dropped: already loaded at rev %s", b.Path(), b.Revision())
		return nil
	}

	if tag, ok := language.Detect(b.Path(), []byte(content)); ok {
		b.SetLanguage(tag)
	}
	b.LoadContent(content)
	e.clampCursors(b)
	e.logger.Debug("loaded %s at rev %s (%d bytes)", b.Path(), b.Revision(), b.Len())

	e.invalidate(TextLayout, b)
	e.invalidate(StatusBar, b)
	e.afterMutation(b)

	if loc, ok := e.pending[b.Path()]; ok {
		delete(e.pending, b.Path())
		e.goTo(loc)
	}
	return nil
}

func (e *Editor) loadFailed(path string, cause error) error {
	b, err := e.lookupPath(path)
	if err != nil {
		return err
	}
	delete(e.pending, b.Path())
	b.SetLoadError(cause)
	e.logger.Warn("failed to load %s: %v", b.Path(), cause)
	e.invalidate(LoadError, b)
	e.invalidate(StatusBar, b)
	return nil
}

func (e *Editor) reloadBuffer(p command.ReloadBuffer) error {
	b, err := e.lookup(p.ID)
	if err != nil {
		return err
	}
	// Reload also drops content identical to the buffer text. The watcher
	// reports our own saves, and that echo must not bump the revision or
	// discard the derived caches of the text being shown.
	if !b.Reload(p.Rev, p.Content) {
		e.logger.Debug("reload of %s for rev %s dropped at rev %s", b.Path(), p.Rev, b.Revision())
		return nil
	}
	e.clampCursors(b)
	e.invalidate(TextLayout, b)
	e.invalidate(StatusBar, b)
	e.afterMutation(b)
	return nil
}

func (e *Editor) bufferSave(p command.BufferSave) error {
	b, err := e.lookupPath(p.Path)
	if err != nil {
		return err
	}
	wasDirty := b.Dirty()
	if !b.MarkSaved(p.Rev) {
		e.logger.Debug("save of %s rev %s acknowledged at rev %s; still dirty", b.Path(), p.Rev, b.Revision())
		return nil
	}
	if wasDirty {
		e.invalidate(StatusBar, b)
	}
	return nil
}

func (e *Editor) editBuffer(id buffer.ID, edit buffer.Edit) error {
	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	wasDirty := b.Dirty()
	res, err := b.ApplyEdit(edit)
	if err != nil {
		return fmt.Errorf("edit %s: %w", b.Path(), err)
	}

	if e.active == id {
		e.setCursor(b, shiftOffset(e.cursor, res))
	} else if c, ok := e.cursors[id]; ok {
		e.cursors[id] = shiftOffset(c, res)
	}
	e.cancelCodeActions()

	e.invalidate(TextLayout, b)
	if !wasDirty {
		e.invalidate(StatusBar, b)
	}
	e.afterMutation(b)
	return nil
}

// shiftOffset maps an offset from before an edit to after it. Offsets
// inside the replaced range move to its new end.
func shiftOffset(off buffer.ByteOffset, res buffer.EditResult) buffer.ByteOffset {
	switch {
	case off < res.OldRange.Start:
		return off
	case off >= res.OldRange.End:
		return off + res.Delta
	default:
		return res.NewRange.End
	}
}

func (e *Editor) saveBuffer(id buffer.ID) error {
	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !b.Loaded() {
		return fmt.Errorf("save %s: %w", b.Path(), buffer.ErrNotLoaded)
	}
	e.proxy.FormatAndSave(b.Snapshot())
	return nil
}

// formatAndSave applies formatting edits computed for the current revision
// and then saves. Edits computed for an older revision are dropped along
// with the save.
func (e *Editor) formatAndSave(p command.DocumentFormatAndSave) error {
	b, err := e.lookupPath(p.Path)
	if err != nil {
		return err
	}
	if p.Rev != b.Revision() {
		e.logger.Debug("format of %s for rev %s dropped at rev %s", b.Path(), p.Rev, b.Revision())
		return nil
	}

	switch {
	case p.Err != nil:
		e.logger.Warn("format %s failed, saving unformatted: %v", b.Path(), p.Err)
	case len(p.Edits) > 0:
		edits := make([]buffer.Edit, len(p.Edits))
		for i, te := range p.Edits {
			edits[i] = buffer.Edit{Range: buffer.RangeToBytes(b.Rope(), te.Range), NewText: te.NewText}
		}
		if err := b.ApplyEdits(edits); err != nil {
			e.logger.Warn("format %s: %v; saving unformatted", b.Path(), err)
			break
		}
		e.clampCursors(b)
		e.invalidate(TextLayout, b)
		e.afterMutation(b)
	}

	e.proxy.Save(b.Snapshot())
	return nil
}

func (e *Editor) closeBuffer(id buffer.ID) error {
	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	e.unwatch(b)
	delete(e.buffers, id)
	delete(e.byPath, b.Path())
	delete(e.cursors, id)
	delete(e.pending, b.Path())

	if e.active == id {
		e.active, e.cursor = buffer.ID{}, 0
		e.cancelCodeActions()
		e.invalidate(Cursor, nil)
	}
	e.invalidate(StatusBar, b)
	e.logger.Debug("closed %s", b.Path())
	return nil
}

// fileChanged reloads a clean buffer whose file changed on disk. A dirty
// buffer keeps the user's edits.
func (e *Editor) fileChanged(path string) error {
	b, err := e.lookupPath(path)
	if err != nil {
		return err
	}
	if !b.Loaded() || b.Dirty() {
		e.logger.Debug("ignoring disk change of %s (loaded=%v dirty=%v)", b.Path(), b.Loaded(), b.Dirty())
		return nil
	}
	e.proxy.ReloadFile(b.ID(), b.Path(), b.Revision().Next())
	return nil
}

// afterMutation schedules recomputation of derived data for the new
// revision of b.
func (e *Editor) afterMutation(b *buffer.Buffer) {
	snap := b.Snapshot()
	_, hasLang := b.Language()

	if hasLang && e.worker != nil {
		e.worker.Submit(highlight.UpdateEvent{
			Kind:       highlight.Syntax,
			Snapshot:   snap,
			Highlights: b.LastStyles(),
		})
	}
	e.proxy.RequestDiagnostics(snap)
	if hasLang && e.semantic {
		e.proxy.RequestSemanticTokens(snap)
	}
}

func (e *Editor) watch(b *buffer.Buffer) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Add(b.Path()); err != nil {
		e.logger.Debug("not watching %s: %v", b.Path(), err)
	}
}

func (e *Editor) unwatch(b *buffer.Buffer) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Remove(b.Path()); err != nil {
		e.logger.Debug("unwatch %s: %v", b.Path(), err)
	}
}

// clampCursors keeps every cursor of b inside its content.
func (e *Editor) clampCursors(b *buffer.Buffer) {
	if e.active == b.ID() {
		e.setCursor(b, e.cursor)
	}
	if off, ok := e.cursors[b.ID()]; ok {
		e.cursors[b.ID()] = min(off, b.Len())
	}
}
