package app

import (
	"time"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/watcher"
)

// MetricsSnapshot is a point-in-time view of the component counters.
type MetricsSnapshot struct {
	Uptime    time.Duration
	Commands  uint64
	Bus       command.Stats
	Highlight highlight.Stats

	// Watcher is zero when watching is disabled.
	Watcher watcher.Stats
}

// Metrics collects the counters of every component.
func (app *Application) Metrics() MetricsSnapshot {
	m := MetricsSnapshot{
		Commands:  app.editor.Status().Commands,
		Bus:       app.bus.Stats(),
		Highlight: app.worker.Stats(),
	}
	app.mu.Lock()
	if !app.started.IsZero() {
		m.Uptime = time.Since(app.started)
	}
	app.mu.Unlock()
	if app.watcher != nil {
		m.Watcher = app.watcher.Stats()
	}
	return m
}
