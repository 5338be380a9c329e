// Package rope provides an immutable rope used as the text store of a buffer.
//
// A rope is a height-balanced binary tree whose leaves hold short strings and
// whose internal nodes cache the byte length and newline count of their
// subtree. Every edit returns a new Rope that shares unchanged subtrees with
// the original, so taking a snapshot is a plain value copy and a snapshot can
// be read from any goroutine while the owner keeps editing.
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	r = r.Insert(5, ",")  // "hello, world"
//	r = r.Delete(0, 7)    // "world"
//	text := r.String()    // "world"
package rope
