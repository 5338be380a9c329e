package buffer

import "github.com/cybernobie/lapce/internal/revision"

// Edit replaces the text in Range with NewText.
type Edit struct {
	Range   Range
	NewText string
}

// Insert returns an edit inserting text at offset.
func Insert(offset ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: offset, End: offset}, NewText: text}
}

// Delete returns an edit removing [start, end).
func Delete(start, end ByteOffset) Edit {
	return Edit{Range: Range{Start: start, End: end}}
}

// EditResult describes an applied edit.
type EditResult struct {
	OldRange Range
	NewRange Range
	OldText  string
	Delta    int64

	// Revision is the buffer revision after the edit.
	Revision revision.Revision
}
