// Package revision defines the per-buffer revision counter and the guard
// applied wherever asynchronously computed data is written back to a buffer.
//
// A result computed against revision r describes byte offsets that are only
// meaningful for the text at r. Once the buffer has moved on, the result is
// dropped instead of reconciled.
package revision

import "strconv"

// Revision counts committed text mutations of one buffer. It only grows.
type Revision uint64

// String returns the decimal form of the revision.
func (r Revision) String() string {
	return strconv.FormatUint(uint64(r), 10)
}

// Next returns the revision following r.
func (r Revision) Next() Revision {
	return r + 1
}

// Accept reports whether a result tagged with result may be applied to a
// buffer currently at current.
func Accept(result, current Revision) bool {
	return result == current
}

// AcceptReload reports whether a reload tagged with result directly follows
// current. Any gap means the reload answers a superseded request.
func AcceptReload(result, current Revision) bool {
	return current.Next() == result
}
