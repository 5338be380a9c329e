package buffer

import (
	"fmt"

	"github.com/cybernobie/lapce/internal/engine/rope"
)

// ByteOffset is a position in buffer text, counted in bytes.
type ByteOffset = rope.ByteOffset

// Point is a 0-based line and byte column.
type Point = rope.Point

// Range is the half-open byte interval [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// NewRange returns [start, end).
func NewRange(start, end ByteOffset) Range { return Range{Start: start, End: end} }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Len is End - Start.
func (r Range) Len() ByteOffset { return r.End - r.Start }

// IsEmpty reports a zero-length range.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// IsValid reports 0 <= Start <= End.
func (r Range) IsValid() bool { return 0 <= r.Start && r.Start <= r.End }

// Contains reports whether off lies in [Start, End).
func (r Range) Contains(off ByteOffset) bool { return r.Start <= off && off < r.End }
