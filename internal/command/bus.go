package command

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned when sending on a closed bus.
var ErrBusClosed = errors.New("command bus closed")

// DefaultCapacity is the bus buffer size used when none is given.
const DefaultCapacity = 1024

// Sink accepts commands from producers. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(cmd Command) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(cmd Command) error

// Send calls f(cmd).
func (f SinkFunc) Send(cmd Command) error {
	return f(cmd)
}

// Submit sends p to the global target of s.
func Submit(s Sink, p Payload) error {
	return s.Send(New(p))
}

// Bus is a multi-producer, single-consumer command channel.
type Bus struct {
	ch        chan Command
	done      chan struct{}
	closeOnce sync.Once

	sent     atomic.Uint64
	rejected atomic.Uint64
}

// Stats holds bus counters.
type Stats struct {
	Sent     uint64
	Rejected uint64
	Pending  int
}

// NewBus returns a bus buffering up to capacity commands.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		ch:   make(chan Command, capacity),
		done: make(chan struct{}),
	}
}

// Send enqueues cmd. It blocks only while the buffer is full and fails with
// ErrBusClosed once the bus is closed.
func (b *Bus) Send(cmd Command) error {
	select {
	case <-b.done:
		b.rejected.Add(1)
		return ErrBusClosed
	default:
	}

	select {
	case b.ch <- cmd:
		b.sent.Add(1)
		return nil
	case <-b.done:
		b.rejected.Add(1)
		return ErrBusClosed
	}
}

// Submit sends a global command carrying p.
func (b *Bus) Submit(p Payload) error {
	return b.Send(New(p))
}

// Receive returns the channel the consumer reads from. The channel is never
// closed; consumers also select on Done.
func (b *Bus) Receive() <-chan Command {
	return b.ch
}

// Done is closed when the bus is closed.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Close stops accepting commands. Commands already buffered stay readable.
// Close is idempotent.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Sent:     b.sent.Load(),
		Rejected: b.rejected.Load(),
		Pending:  len(b.ch),
	}
}
