package buffer

import (
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/rope"
	"github.com/cybernobie/lapce/internal/language"
	"github.com/cybernobie/lapce/internal/revision"
)

// Snapshot is an immutable view of a buffer at one revision. It is a value
// and may be sent to and read from any goroutine.
type Snapshot struct {
	ID       ID
	Path     string
	Rope     rope.Rope
	Revision revision.Revision
	Language language.Tag
}

// Text returns the full snapshot content.
func (s Snapshot) Text() string {
	return s.Rope.String()
}

// PositionToOffset converts a protocol position to a byte offset.
func (s Snapshot) PositionToOffset(pos protocol.Position) ByteOffset {
	return PositionToOffset(s.Rope, pos)
}

// OffsetToPosition converts a byte offset to a protocol position.
func (s Snapshot) OffsetToPosition(offset ByteOffset) protocol.Position {
	return OffsetToPosition(s.Rope, offset)
}
