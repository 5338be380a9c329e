// Package editor implements the command-consuming loop that owns every open
// buffer.
//
// The loop is the only goroutine that touches buffer state. Everything else
// (file retrieval, language analysis, background highlighting, file
// watching) runs elsewhere and reports back by sending commands on the bus.
// Each result carries the revision it was computed for and is checked
// against the live buffer before it is written, so a late result for text
// that has since changed is dropped instead of applied.
//
// Visible changes are reported to a Presenter as invalidations. Other
// goroutines read editor state only through Status, an immutable snapshot
// republished after every command.
package editor
