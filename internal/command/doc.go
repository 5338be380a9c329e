// Package command defines the typed messages delivered to the editor loop and
// the multi-producer, single-consumer bus that carries them.
//
// Producers (proxy callbacks, the background highlighter, the file watcher,
// timers) hold a Sink and send Command values. Exactly one consumer, the
// editor loop, receives them. Commands are immutable once constructed and
// are consumed exactly once.
//
// Ordering is FIFO per producer only. Nothing orders commands sent by
// different producers, so handlers validate every result against current
// state (revision, cursor offset) instead of relying on arrival order.
package command
