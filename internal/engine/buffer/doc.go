// Package buffer provides the buffer entity owned by the editor loop: a rope
// plus identity, revision counter, dirty and loaded flags, language tag and
// the caches of derived data (highlight spans, code actions, diagnostics).
//
// A Buffer is not safe for concurrent use. Exactly one goroutine, the editor
// loop, owns every Buffer. Other goroutines work on a Snapshot, which is an
// immutable value, and send their results back as commands.
//
// Every derived-data write is tagged with the revision the data was computed
// for and is applied only if that revision is still current (see package
// revision). Reads return only entries tagged with the current revision, so
// a stale entry that has not been evicted yet is never observed.
//
// Position Types:
//
//   - ByteOffset: raw byte position in the text
//   - Point: line and byte column (0-indexed)
//   - protocol.Position: line and UTF-16 column, as exchanged with the proxy
package buffer
