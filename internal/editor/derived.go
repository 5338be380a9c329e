package editor

import (
	"slices"

	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/revision"
)

// publishDiagnostics replaces the diagnostic set of one file and recounts
// the workspace totals. A set for an open buffer must carry its current
// revision as Version; older sets describe other text and are dropped.
func (e *Editor) publishDiagnostics(params protocol.PublishDiagnosticsParams) {
	path, ok := locationPath(params.URI)
	if !ok {
		e.logger.Debug("diagnostics for non-file uri %q dropped", params.URI)
		return
	}
	b, open := e.BufferByPath(path)
	if version := revision.Revision(params.Version); open && !revision.Accept(version, b.Revision()) {
		e.logger.Debug("diagnostics of %s for rev %s dropped at rev %s", path, version, b.Revision())
		return
	}
	if len(params.Diagnostics) == 0 {
		delete(e.diagnostics, path)
	} else {
		e.diagnostics[path] = slices.Clone(params.Diagnostics)
	}

	errs, warns := 0, 0
	for _, diags := range e.diagnostics {
		for _, d := range diags {
			switch d.Severity {
			case protocol.DiagnosticSeverityError:
				errs++
			case protocol.DiagnosticSeverityWarning:
				warns++
			}
		}
	}
	changed := errs != e.errors || warns != e.warnings
	e.errors, e.warnings = errs, warns

	if open {
		b.SetDiagnostics(params.Diagnostics)
		e.invalidate(TextLayout, b)
	}
	if changed {
		e.invalidate(StatusBar, nil)
	}
}

// updateSemanticTokens hands fresh semantic tokens to the worker, which
// folds them into the syntax highlights off the loop.
func (e *Editor) updateSemanticTokens(p command.UpdateSemanticTokens) error {
	b, err := e.lookup(p.ID)
	if err != nil {
		return err
	}
	if !revision.Accept(p.Rev, b.Revision()) {
		e.logger.Debug("semantic tokens of %s for rev %s dropped at rev %s", b.Path(), p.Rev, b.Revision())
		return nil
	}
	if _, ok := b.Language(); !ok || e.worker == nil {
		return nil
	}
	e.worker.Submit(highlight.UpdateEvent{
		Kind:       highlight.SemanticTokens,
		Snapshot:   b.Snapshot(),
		Highlights: b.LastStyles(),
		Tokens:     p.Tokens,
		Legend:     p.Legend,
	})
	return nil
}

func (e *Editor) updateStyle(p command.UpdateStyle) error {
	b, err := e.lookup(p.ID)
	if err != nil {
		return err
	}
	prev, hadPrev := b.Styles()
	if !b.UpdateStyles(p.Rev, p.Highlights, p.Semantic) {
		e.logger.Debug("styles of %s for rev %s dropped at rev %s", b.Path(), p.Rev, b.Revision())
		return nil
	}
	if cur, _ := b.Styles(); hadPrev && prev.Equal(cur) {
		return nil
	}
	e.invalidate(TextLayout, b)
	return nil
}

func (e *Editor) updateCodeActions(p command.UpdateCodeActions) error {
	b, err := e.lookupPath(p.Path)
	if err != nil {
		return err
	}
	if !b.InsertCodeAction(p.Offset, p.Rev, p.Response) {
		e.logger.Debug("code actions of %s for rev %s dropped at rev %s", b.Path(), p.Rev, b.Revision())
		return nil
	}
	if e.active != b.ID() || e.cursor != p.Offset {
		return nil
	}
	if e.codeActionsWanted && len(p.Response) > 0 {
		e.codeActionsVisible = true
	}
	e.codeActionsWanted = false
	e.invalidate(CodeActions, b)
	return nil
}

// showCodeActions opens the code action list at the cursor, requesting it
// first when nothing is cached.
func (e *Editor) showCodeActions() error {
	b, ok := e.activeBuffer()
	if !ok || !b.Loaded() {
		return ErrNoActiveBuffer
	}
	if resp, ok := b.CodeActions(e.cursor); ok {
		if len(resp) > 0 {
			e.codeActionsVisible = true
			e.invalidate(CodeActions, b)
		}
		return nil
	}
	e.codeActionsWanted = true
	e.requestCodeActions(b)
	return nil
}

func (e *Editor) cancelCodeActions() {
	e.codeActionsWanted = false
	if !e.codeActionsVisible {
		return
	}
	e.codeActionsVisible = false
	b, _ := e.activeBuffer()
	e.invalidate(CodeActions, b)
}
