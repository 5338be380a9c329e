package rope

import (
	"io"
	"strings"
)

// ByteOffset is a byte position in a rope.
type ByteOffset = int64

// Point is a zero-based line and byte column.
type Point struct {
	Line   uint32
	Column uint32
}

// Rope is an immutable text sequence. The zero value is an empty rope.
type Rope struct {
	root *node
}

// New returns an empty rope.
func New() Rope {
	return Rope{}
}

// FromString builds a balanced rope holding s.
func FromString(s string) Rope {
	if s == "" {
		return Rope{}
	}
	return Rope{root: buildBalanced(splitIntoLeaves(s))}
}

// FromReader builds a rope from everything readable from r.
func FromReader(r io.Reader) (Rope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Rope{}, err
	}
	return FromString(string(data)), nil
}

// Len returns the length in bytes.
func (r Rope) Len() ByteOffset {
	if r.root == nil {
		return 0
	}
	return r.root.length
}

// IsEmpty reports whether the rope holds no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() uint32 {
	if r.root == nil {
		return 1
	}
	return r.root.newlines + 1
}

// Height returns the tree height; an empty rope has height 0.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height) + 1
}

// String returns the full text. Prefer Slice or Chunks for large ropes.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(r.root.length))
	r.root.appendRange(&sb, 0, r.root.length)
	return sb.String()
}

// Slice returns the text in [start, end), clamped to the rope.
func (r Rope) Slice(start, end ByteOffset) string {
	start, end = r.clamp(start), r.clamp(end)
	if r.root == nil || start >= end {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(end - start))
	r.root.appendRange(&sb, start, end)
	return sb.String()
}

// ByteAt returns the byte at offset, or false when out of range.
func (r Rope) ByteAt(offset ByteOffset) (byte, bool) {
	if offset < 0 || offset >= r.Len() {
		return 0, false
	}
	n := r.root
	for !n.isLeaf() {
		if offset < n.left.length {
			n = n.left
		} else {
			offset -= n.left.length
			n = n.right
		}
	}
	return n.text[offset], true
}

// Insert returns a rope with text inserted at offset.
func (r Rope) Insert(offset ByteOffset, text string) Rope {
	if text == "" {
		return r
	}
	offset = r.clamp(offset)
	left, right := split(r.root, offset)
	return Rope{root: concat(concat(left, FromString(text).root), right)}
}

// Delete returns a rope with [start, end) removed.
func (r Rope) Delete(start, end ByteOffset) Rope {
	start, end = r.clamp(start), r.clamp(end)
	if start >= end {
		return r
	}
	left, rest := split(r.root, start)
	_, right := split(rest, end-start)
	return Rope{root: concat(left, right)}
}

// Replace returns a rope with [start, end) replaced by text.
func (r Rope) Replace(start, end ByteOffset, text string) Rope {
	return r.Delete(start, end).Insert(start, text)
}

// Split returns [0, offset) and [offset, len).
func (r Rope) Split(offset ByteOffset) (Rope, Rope) {
	left, right := split(r.root, r.clamp(offset))
	return Rope{root: left}, Rope{root: right}
}

// Concat returns r followed by other.
func (r Rope) Concat(other Rope) Rope {
	return Rope{root: concat(r.root, other.root)}
}

// LineStart returns the offset of the first byte of line.
// Lines past the end map to Len.
func (r Rope) LineStart(line uint32) ByteOffset {
	if line == 0 || r.root == nil {
		return 0
	}
	if line > r.root.newlines {
		return r.Len()
	}
	return r.root.nthNewline(line) + 1
}

// LineEnd returns the offset of the end of line, excluding its newline.
func (r Rope) LineEnd(line uint32) ByteOffset {
	if r.root == nil || line >= r.root.newlines {
		return r.Len()
	}
	return r.root.nthNewline(line + 1)
}

// LineText returns line without its trailing newline.
func (r Rope) LineText(line uint32) string {
	return r.Slice(r.LineStart(line), r.LineEnd(line))
}

// OffsetToPoint converts a byte offset to a line/column pair.
func (r Rope) OffsetToPoint(offset ByteOffset) Point {
	offset = r.clamp(offset)
	if r.root == nil {
		return Point{}
	}
	line := r.root.newlinesBefore(offset)
	return Point{Line: line, Column: uint32(offset - r.LineStart(line))}
}

// PointToOffset converts a line/column pair to a byte offset. Columns past
// the end of the line clamp to the line end; lines past the end clamp to Len.
func (r Rope) PointToOffset(p Point) ByteOffset {
	if r.root == nil {
		return 0
	}
	if p.Line > r.root.newlines {
		return r.Len()
	}
	start, end := r.LineStart(p.Line), r.LineEnd(p.Line)
	if ByteOffset(p.Column) >= end-start {
		return end
	}
	return start + ByteOffset(p.Column)
}

// Equals reports whether both ropes hold the same text.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r.root == other.root {
		return true
	}
	a, b := r.Chunks(), other.Chunks()
	var sa, sb string
	for {
		if sa == "" {
			if !a.Next() {
				return sb == "" && !b.Next()
			}
			sa = a.Chunk()
		}
		if sb == "" {
			if !b.Next() {
				return false
			}
			sb = b.Chunk()
		}
		n := min(len(sa), len(sb))
		if sa[:n] != sb[:n] {
			return false
		}
		sa, sb = sa[n:], sb[n:]
	}
}

func (r Rope) clamp(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if l := r.Len(); offset > l {
		return l
	}
	return offset
}
