package buffer

import (
	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/engine/rope"
)

// PositionToOffset converts a position with a UTF-16 column into a byte
// offset in r. Out-of-range lines and columns clamp to the nearest valid
// offset.
func PositionToOffset(r rope.Rope, pos protocol.Position) ByteOffset {
	if pos.Line >= r.LineCount() {
		return r.Len()
	}
	start := r.LineStart(pos.Line)
	line := r.Slice(start, r.LineEnd(pos.Line))
	col, err := safecast.Conv[int](pos.Character)
	if err != nil {
		return start + ByteOffset(len(line))
	}
	return start + ByteOffset(byteOffsetFromUTF16Column(line, col))
}

// OffsetToPosition converts a byte offset in r into a position with a UTF-16
// column.
func OffsetToPosition(r rope.Rope, offset ByteOffset) protocol.Position {
	p := r.OffsetToPoint(offset)
	lineStart := r.LineStart(p.Line)
	prefix := r.Slice(lineStart, lineStart+ByteOffset(p.Column))
	col, err := safecast.Conv[uint32](utf16Len(prefix))
	if err != nil {
		col = p.Column
	}
	return protocol.Position{Line: p.Line, Character: col}
}

// RangeToBytes converts a protocol range into a byte range in r.
func RangeToBytes(r rope.Rope, rng protocol.Range) Range {
	start := PositionToOffset(r, rng.Start)
	end := PositionToOffset(r, rng.End)
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// utf16Len counts UTF-16 code units in s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2 // surrogate pair
		} else {
			n++
		}
	}
	return n
}

// byteOffsetFromUTF16Column converts a UTF-16 column into a byte offset
// within line.
func byteOffsetFromUTF16Column(line string, utf16Col int) int {
	col := 0
	for i, r := range line {
		if col >= utf16Col {
			return i
		}
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return len(line)
}
