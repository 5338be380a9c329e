package rope

// ChunkIterator walks the leaves of a rope in order.
type ChunkIterator struct {
	stack []*node
	chunk string
}

// Chunks returns an iterator over the rope's leaf strings.
func (r Rope) Chunks() *ChunkIterator {
	it := &ChunkIterator{stack: make([]*node, 0, 16)}
	if r.root != nil && r.root.length > 0 {
		it.stack = append(it.stack, r.root)
	}
	return it
}

// Next advances to the next non-empty chunk.
func (it *ChunkIterator) Next() bool {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if n.isLeaf() {
			if n.text == "" {
				continue
			}
			it.chunk = n.text
			return true
		}
		it.stack = append(it.stack, n.right, n.left)
	}
	it.chunk = ""
	return false
}

// Chunk returns the current chunk.
func (it *ChunkIterator) Chunk() string {
	return it.chunk
}
