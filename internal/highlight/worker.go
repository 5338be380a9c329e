package highlight

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/logging"
)

// State is the per-buffer state of the worker.
type State uint8

const (
	// Idle means no computation is running for the buffer.
	Idle State = iota
	// Computing means a computation is running for the buffer.
	Computing
)

// String returns the state name.
func (s State) String() string {
	if s == Computing {
		return "computing"
	}
	return "idle"
}

// Stats reports worker counters.
type Stats struct {
	Submitted uint64
	Completed uint64
	Emitted   uint64
	Unchanged uint64
	Failed    uint64
	Pending   int
}

// Worker recomputes highlights off the editor loop. Events are queued
// without bound so Submit never blocks the caller; results are sent to the
// sink as UpdateStyle commands. Events for one buffer run one at a time in
// submission order, so its results arrive in that order too.
type Worker struct {
	sink    command.Sink
	logger  *logging.Logger
	workers int

	mu      sync.Mutex
	queue   []UpdateEvent
	running map[buffer.ID]struct{}
	notify  chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	emitted   atomic.Uint64
	unchanged atomic.Uint64
	failed    atomic.Uint64
}

// Option configures a Worker.
type Option func(*Worker)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Worker) {
		w.logger = logging.OrNop(l)
	}
}

// NewWorker creates a worker that sends results to sink.
func NewWorker(sink command.Sink, opts ...Option) *Worker {
	w := &Worker{
		sink:    sink,
		logger:  logging.Nop(),
		workers: max(1, runtime.NumCPU()/2),
		running: make(map[buffer.ID]struct{}),
		notify:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit queues ev. It never blocks and may be called before Run.
func (w *Worker) Submit(ev UpdateEvent) {
	w.mu.Lock()
	w.queue = append(w.queue, ev)
	w.mu.Unlock()
	w.submitted.Add(1)
	w.signal()
}

func (w *Worker) signal() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is done or the sink is closed. Queued
// events are abandoned on return.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, cancel)
		}()
	}
	wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context, stop context.CancelFunc) {
	for {
		ev, ok := w.next(ctx)
		if !ok {
			return
		}
		if err := w.process(ev); err != nil {
			if errors.Is(err, command.ErrBusClosed) {
				stop()
				return
			}
		}
	}
}

// next pops the oldest event whose buffer is idle, waiting while there is
// none.
func (w *Worker) next(ctx context.Context) (UpdateEvent, bool) {
	for {
		w.mu.Lock()
		i := slices.IndexFunc(w.queue, func(ev UpdateEvent) bool {
			_, busy := w.running[ev.Snapshot.ID]
			return !busy
		})
		if i >= 0 {
			ev := w.queue[i]
			w.queue = slices.Delete(w.queue, i, i+1)
			w.running[ev.Snapshot.ID] = struct{}{}
			more := len(w.queue) > 0
			w.mu.Unlock()
			if more {
				w.signal()
			}
			return ev, true
		}
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return UpdateEvent{}, false
		case <-w.notify:
		}
	}
}

func (w *Worker) finish(id buffer.ID) {
	w.mu.Lock()
	delete(w.running, id)
	more := len(w.queue) > 0
	w.mu.Unlock()
	w.completed.Add(1)
	if more {
		w.signal()
	}
}

func (w *Worker) process(ev UpdateEvent) (err error) {
	snap := ev.Snapshot
	defer w.finish(snap.ID)
	defer func() {
		if r := recover(); r != nil {
			w.failed.Add(1)
			w.logger.Error("highlight panic for %s rev %s: %v\n%s", snap.Path, snap.Revision, r, debug.Stack())
			err = nil
		}
	}()

	styles, err := Compute(ev)
	if err != nil {
		w.failed.Add(1)
		w.logger.Warn("highlight %s for %s rev %s failed: %v", ev.Kind, snap.Path, snap.Revision, err)
		return err
	}

	if ev.Highlights.Revision == snap.Revision && ev.Highlights.Equal(styles) {
		w.unchanged.Add(1)
		return nil
	}

	err = w.sink.Send(command.New(command.UpdateStyle{
		ID:         snap.ID,
		Path:       snap.Path,
		Rev:        snap.Revision,
		Highlights: styles.Spans,
		Semantic:   styles.Semantic,
	}))
	if err != nil {
		return err
	}
	w.emitted.Add(1)
	w.logger.Debug("highlight %s for %s rev %s: %d spans", ev.Kind, snap.Path, snap.Revision, len(styles.Spans))
	return nil
}

// Compute runs the recomputation ev asks for and returns the resulting
// styles. It does not touch any buffer.
func Compute(ev UpdateEvent) (buffer.Styles, error) {
	snap := ev.Snapshot
	switch ev.Kind {
	case SemanticTokens:
		base := ev.Highlights.Spans
		if ev.Highlights.Revision != snap.Revision || ev.Highlights.Semantic {
			var err error
			if base, err = Tokenize(snap); err != nil {
				return buffer.Styles{}, err
			}
		}
		sem := DecodeSemanticTokens(snap.Rope, ev.Tokens.Data, ev.Legend)
		return buffer.Styles{Revision: snap.Revision, Spans: Overlay(base, sem), Semantic: true}, nil
	default:
		spans, err := Tokenize(snap)
		if err != nil {
			return buffer.Styles{}, err
		}
		return buffer.Styles{Revision: snap.Revision, Spans: spans}, nil
	}
}

// State reports whether a computation for id is running.
func (w *Worker) State(id buffer.ID) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.running[id]; ok {
		return Computing
	}
	return Idle
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	pending := len(w.queue)
	w.mu.Unlock()
	return Stats{
		Submitted: w.submitted.Load(),
		Completed: w.completed.Load(),
		Emitted:   w.emitted.Load(),
		Unchanged: w.unchanged.Load(),
		Failed:    w.failed.Load(),
		Pending:   pending,
	}
}
