package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cybernobie/lapce/internal/app"
	"github.com/cybernobie/lapce/internal/editor"
)

// tally counts invalidations by kind. It stands in for a renderer.
type tally struct {
	counts [editor.LoadError + 1]atomic.Uint64
}

func newTally() *tally {
	return &tally{}
}

func (t *tally) Invalidate(inv editor.Invalidation) {
	if int(inv.Kind) < len(t.counts) {
		t.counts[inv.Kind].Add(1)
	}
}

func (t *tally) count(kind editor.InvalidationKind) uint64 {
	return t.counts[kind].Load()
}

// report writes a session summary.
func (t *tally) report(w io.Writer, st *editor.Status, m app.MetricsSnapshot) {
	fmt.Fprintf(w, "workspace %s: %d buffers, %d errors, %d warnings\n",
		st.Workspace, len(st.Buffers), st.Errors, st.Warnings)
	for _, b := range st.Buffers {
		state := "clean"
		switch {
		case b.LoadErr != "":
			state = "failed: " + b.LoadErr
		case !b.Loaded:
			state = "loading"
		case b.Dirty:
			state = "dirty"
		}
		fmt.Fprintf(w, "  %s [%s] rev %s, %d diagnostics, %s\n",
			b.Path, b.Language, b.Revision, b.Diagnostics, state)
	}
	fmt.Fprintf(w, "%d commands in %s; %d highlight passes; invalidations:",
		m.Commands, m.Uptime.Round(time.Millisecond), m.Highlight.Completed)
	for k := editor.TextLayout; k <= editor.LoadError; k++ {
		fmt.Fprintf(w, " %s=%d", k, t.count(k))
	}
	fmt.Fprintln(w)
}
