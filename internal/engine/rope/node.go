package rope

import (
	"strings"
	"unicode/utf8"
)

// MaxLeaf is the largest leaf, in bytes, produced by FromString or by
// merging adjacent leaves during concatenation.
const MaxLeaf = 512

// node is a rope tree node. Leaves carry text; internal nodes carry exactly
// two children. Nodes are never mutated after construction.
type node struct {
	left, right *node
	text        string

	length   ByteOffset
	newlines uint32
	height   uint8
}

func newLeaf(s string) *node {
	return &node{
		text:     s,
		length:   ByteOffset(len(s)),
		newlines: uint32(strings.Count(s, "\n")),
	}
}

func newInternal(left, right *node) *node {
	h := left.height
	if right.height > h {
		h = right.height
	}
	return &node{
		left:     left,
		right:    right,
		length:   left.length + right.length,
		newlines: left.newlines + right.newlines,
		height:   h + 1,
	}
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// concat joins two trees keeping the AVL height invariant.
func concat(l, r *node) *node {
	if l == nil || l.length == 0 {
		return r
	}
	if r == nil || r.length == 0 {
		return l
	}
	if l.isLeaf() && r.isLeaf() && len(l.text)+len(r.text) <= MaxLeaf {
		return newLeaf(l.text + r.text)
	}
	switch {
	case int(l.height) > int(r.height)+1:
		return balance(newInternal(l.left, concat(l.right, r)))
	case int(r.height) > int(l.height)+1:
		return balance(newInternal(concat(l, r.left), r.right))
	}
	return newInternal(l, r)
}

func balance(n *node) *node {
	if n.isLeaf() {
		return n
	}
	lh, rh := int(n.left.height), int(n.right.height)
	switch {
	case lh > rh+1:
		l := n.left
		if int(l.right.height) > int(l.left.height) {
			l = rotateLeft(l)
		}
		return rotateRight(newInternal(l, n.right))
	case rh > lh+1:
		r := n.right
		if int(r.left.height) > int(r.right.height) {
			r = rotateRight(r)
		}
		return rotateLeft(newInternal(n.left, r))
	}
	return n
}

func rotateRight(n *node) *node {
	l := n.left
	if l.isLeaf() {
		return n
	}
	return newInternal(l.left, newInternal(l.right, n.right))
}

func rotateLeft(n *node) *node {
	r := n.right
	if r.isLeaf() {
		return n
	}
	return newInternal(newInternal(n.left, r.left), r.right)
}

// split returns the trees holding [0, offset) and [offset, len).
func split(n *node, offset ByteOffset) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if offset <= 0 {
		return nil, n
	}
	if offset >= n.length {
		return n, nil
	}
	if n.isLeaf() {
		return newLeaf(n.text[:offset]), newLeaf(n.text[offset:])
	}
	ll := n.left.length
	switch {
	case offset == ll:
		return n.left, n.right
	case offset < ll:
		a, b := split(n.left, offset)
		return a, concat(b, n.right)
	default:
		a, b := split(n.right, offset-ll)
		return concat(n.left, a), b
	}
}

func (n *node) appendRange(sb *strings.Builder, start, end ByteOffset) {
	if n == nil || start >= end {
		return
	}
	if n.isLeaf() {
		sb.WriteString(n.text[start:end])
		return
	}
	ll := n.left.length
	if start < ll {
		n.left.appendRange(sb, start, min(end, ll))
	}
	if end > ll {
		n.right.appendRange(sb, max(start-ll, 0), end-ll)
	}
}

// newlinesBefore counts '\n' bytes in [0, offset).
func (n *node) newlinesBefore(offset ByteOffset) uint32 {
	var count uint32
	for n != nil && offset > 0 {
		if offset >= n.length {
			return count + n.newlines
		}
		if n.isLeaf() {
			return count + uint32(strings.Count(n.text[:offset], "\n"))
		}
		if offset <= n.left.length {
			n = n.left
			continue
		}
		count += n.left.newlines
		offset -= n.left.length
		n = n.right
	}
	return count
}

// nthNewline returns the offset of the k-th newline (1-based).
func (n *node) nthNewline(k uint32) ByteOffset {
	var base ByteOffset
	for !n.isLeaf() {
		if k <= n.left.newlines {
			n = n.left
			continue
		}
		k -= n.left.newlines
		base += n.left.length
		n = n.right
	}
	idx := -1
	for ; k > 0; k-- {
		next := strings.IndexByte(n.text[idx+1:], '\n')
		idx += next + 1
	}
	return base + ByteOffset(idx)
}

// splitIntoLeaves cuts s into leaves of at most MaxLeaf bytes without
// breaking a UTF-8 sequence.
func splitIntoLeaves(s string) []*node {
	leaves := make([]*node, 0, len(s)/MaxLeaf+1)
	for len(s) > MaxLeaf {
		cut := MaxLeaf
		for cut > MaxLeaf-utf8.UTFMax && !utf8.RuneStart(s[cut]) {
			cut--
		}
		leaves = append(leaves, newLeaf(s[:cut]))
		s = s[cut:]
	}
	if len(s) > 0 {
		leaves = append(leaves, newLeaf(s))
	}
	return leaves
}

// buildBalanced pairs nodes level by level.
func buildBalanced(nodes []*node) *node {
	if len(nodes) == 0 {
		return nil
	}
	for len(nodes) > 1 {
		parents := make([]*node, 0, (len(nodes)+1)/2)
		for i := 0; i+1 < len(nodes); i += 2 {
			parents = append(parents, newInternal(nodes[i], nodes[i+1]))
		}
		if len(nodes)%2 == 1 {
			last := nodes[len(nodes)-1]
			if len(parents) > 0 {
				parents[len(parents)-1] = concat(parents[len(parents)-1], last)
			} else {
				parents = append(parents, last)
			}
		}
		nodes = parents
	}
	return nodes[0]
}
