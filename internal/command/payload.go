package command

import (
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/revision"
	"github.com/cybernobie/lapce/internal/workspace"
)

// SetWorkspace switches the session to a new workspace.
type SetWorkspace struct {
	Workspace workspace.Workspace
}

// OpenFile opens path, or activates it if already open.
type OpenFile struct {
	Path string
}

// LoadBuffer delivers the content retrieved for an open buffer.
type LoadBuffer struct {
	Path    string
	Content string
}

// LoadFailed reports that content retrieval for path failed.
type LoadFailed struct {
	Path string
	Err  error
}

// LoadBufferAndGoToPosition delivers content and moves the cursor to
// Location once it is loaded.
type LoadBufferAndGoToPosition struct {
	Path     string
	Content  string
	Location protocol.Location
}

// PublishDiagnostics replaces the diagnostics of one document.
type PublishDiagnostics struct {
	Params protocol.PublishDiagnosticsParams
}

// BufferSave acknowledges that revision Rev of Path was written to disk.
type BufferSave struct {
	Path string
	Rev  revision.Revision
}

// ReloadBuffer replaces the content of buffer ID with Content read for
// revision Rev.
type ReloadBuffer struct {
	ID      buffer.ID
	Rev     revision.Revision
	Content string
}

// UpdateSemanticTokens delivers semantic tokens computed for revision Rev.
// Legend maps token type indices to names.
type UpdateSemanticTokens struct {
	ID     buffer.ID
	Rev    revision.Revision
	Tokens protocol.SemanticTokens
	Legend []string
}

// UpdateStyle delivers highlight spans computed for revision Rev.
type UpdateStyle struct {
	ID         buffer.ID
	Path       string
	Rev        revision.Revision
	Highlights []buffer.Span
	Semantic   bool
}

// UpdateCodeActions delivers the code actions available at Offset for
// revision Rev.
type UpdateCodeActions struct {
	Path     string
	Rev      revision.Revision
	Offset   buffer.ByteOffset
	Response buffer.CodeActionResponse
}

// GotoDefinition answers a definition request issued at cursor Offset.
type GotoDefinition struct {
	Offset   buffer.ByteOffset
	Location protocol.Location
}

// GotoReference answers a reference request issued at cursor Offset.
type GotoReference struct {
	Offset   buffer.ByteOffset
	Location protocol.Location
}

// PaletteReferences answers a references request issued at cursor Offset
// with locations to list in the palette.
type PaletteReferences struct {
	Offset    buffer.ByteOffset
	Locations []protocol.Location
}

// RunPaletteReferences asks the palette component to list Locations.
type RunPaletteReferences struct {
	Locations []protocol.Location
}

// DocumentFormatAndSave delivers formatting edits computed for revision Rev.
// Err is set when formatting failed; the document is then saved as is.
type DocumentFormatAndSave struct {
	Path  string
	Rev   revision.Revision
	Edits []protocol.TextEdit
	Err   error
}

// GoToLocation moves the active view to Location.
type GoToLocation struct {
	Location protocol.Location
}

// JumpToPosition moves the cursor of the active buffer to Position.
type JumpToPosition struct {
	Position protocol.Position
}

// JumpToLocation moves to Location, opening it if needed.
type JumpToLocation struct {
	Location protocol.Location
}

// JumpToLine moves the cursor of the active buffer to the start of Line.
type JumpToLine struct {
	Line uint32
}

// ShowCodeActions shows the cached code actions at the cursor.
type ShowCodeActions struct{}

// CancelCodeActions hides the code action list.
type CancelCodeActions struct{}

// EditBuffer applies a user edit to buffer ID.
type EditBuffer struct {
	ID   buffer.ID
	Edit buffer.Edit
}

// MoveCursor moves the cursor of the active buffer.
type MoveCursor struct {
	Offset buffer.ByteOffset
}

// SaveBuffer formats and saves buffer ID.
type SaveBuffer struct {
	ID buffer.ID
}

// CloseBuffer closes buffer ID.
type CloseBuffer struct {
	ID buffer.ID
}

// FileChanged reports that Path changed on disk.
type FileChanged struct {
	Path string
}

func (SetWorkspace) payload()              {}
func (OpenFile) payload()                  {}
func (LoadBuffer) payload()                {}
func (LoadFailed) payload()                {}
func (LoadBufferAndGoToPosition) payload() {}
func (PublishDiagnostics) payload()        {}
func (BufferSave) payload()                {}
func (ReloadBuffer) payload()              {}
func (UpdateSemanticTokens) payload()      {}
func (UpdateStyle) payload()               {}
func (UpdateCodeActions) payload()         {}
func (GotoDefinition) payload()            {}
func (GotoReference) payload()             {}
func (PaletteReferences) payload()         {}
func (RunPaletteReferences) payload()      {}
func (DocumentFormatAndSave) payload()     {}
func (GoToLocation) payload()              {}
func (JumpToPosition) payload()            {}
func (JumpToLocation) payload()            {}
func (JumpToLine) payload()                {}
func (ShowCodeActions) payload()           {}
func (CancelCodeActions) payload()         {}
func (EditBuffer) payload()                {}
func (MoveCursor) payload()                {}
func (SaveBuffer) payload()                {}
func (CloseBuffer) payload()               {}
func (FileChanged) payload()               {}

// All returns a zero value of every variant.
func All() []Payload {
	return []Payload{
		SetWorkspace{}, OpenFile{}, LoadBuffer{}, LoadFailed{},
		LoadBufferAndGoToPosition{}, PublishDiagnostics{}, BufferSave{},
		ReloadBuffer{}, UpdateSemanticTokens{}, UpdateStyle{},
		UpdateCodeActions{}, GotoDefinition{}, GotoReference{},
		PaletteReferences{}, RunPaletteReferences{}, DocumentFormatAndSave{},
		GoToLocation{}, JumpToPosition{}, JumpToLocation{}, JumpToLine{},
		ShowCodeActions{}, CancelCodeActions{}, EditBuffer{}, MoveCursor{},
		SaveBuffer{}, CloseBuffer{}, FileChanged{},
	}
}
