// Package app wires the editor core together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/config"
	"github.com/cybernobie/lapce/internal/editor"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/logging"
	"github.com/cybernobie/lapce/internal/proxy"
	"github.com/cybernobie/lapce/internal/vfs"
	"github.com/cybernobie/lapce/internal/watcher"
	"github.com/cybernobie/lapce/internal/workspace"
)

// shutdownTimeout bounds how long Shutdown waits for the loops to stop.
const shutdownTimeout = 5 * time.Second

// Application owns every long-lived component of a session.
type Application struct {
	opts Options

	config  *config.Config
	logger  *logging.Logger
	logFile io.Closer
	bus     *command.Bus
	worker  *highlight.Worker
	proxy   *proxy.Local
	watcher *watcher.Watcher
	editor  *editor.Editor

	running atomic.Bool
	done    chan struct{}

	mu           sync.Mutex
	started      time.Time
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	shutdownErr  error
}

// Options configures the application.
type Options struct {
	// ConfigPath is a TOML or YAML file. A missing file means defaults.
	ConfigPath string

	// WorkspacePath overrides the configured workspace folder.
	WorkspacePath string

	// Files are opened once the workspace is set.
	Files []string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogOutput overrides the configured log destination.
	LogOutput io.Writer

	// Presenter receives invalidations from the editor loop.
	Presenter editor.Presenter

	// FS is the file system the proxy reads and writes; nil means the OS.
	FS vfs.FS
}

// New creates an application. Nothing runs until Run.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run sets the workspace, opens the initial files and runs the editor loop,
// the recomputation worker and the watcher until ctx is done or Shutdown is
// called.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(app.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.started = time.Now()
	app.mu.Unlock()

	app.logger.Info("starting in %s", app.workspace())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.guard("editor", func() error {
		defer cancel()
		return app.editor.Run(gctx)
	}))
	g.Go(app.guard("highlight", func() error {
		return app.worker.Run(gctx)
	}))
	if app.watcher != nil {
		g.Go(app.guard("watcher", func() error {
			return app.watcher.Run(gctx)
		}))
	}
	g.Go(app.guard("startup", func() error {
		return app.submitStartup()
	}))

	err := g.Wait()
	app.proxy.Wait()
	app.logger.Info("stopped")
	return err
}

// submitStartup queues the initial workspace and files.
func (app *Application) submitStartup() error {
	if err := app.bus.Submit(command.SetWorkspace{Workspace: app.workspace()}); err != nil {
		return ignoreClosed(err)
	}
	for _, f := range app.opts.Files {
		if err := app.bus.Submit(command.OpenFile{Path: f}); err != nil {
			return ignoreClosed(err)
		}
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, command.ErrBusClosed) {
		return nil
	}
	return err
}

// guard turns a panic in fn into a RecoveredPanicError.
func (app *Application) guard(component string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &RecoveredPanicError{Component: component, Value: r, Stack: string(debug.Stack())}
				app.logger.Error("%v", err)
			}
		}()
		return fn()
	}
}

func (app *Application) workspace() workspace.Workspace {
	path := app.opts.WorkspacePath
	if path == "" {
		path = app.config.Workspace.Path
	}
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = wd
		}
	}
	return workspace.NewLocal(path)
}

// Shutdown stops the loops and releases resources. It waits for a running
// Run to return. It is idempotent and returns the same result every time.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		var errs ErrorList

		app.mu.Lock()
		cancel := app.cancel
		app.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		app.bus.Close()

		if app.running.Load() {
			select {
			case <-app.done:
			case <-time.After(shutdownTimeout):
				errs.Add(ErrShutdownTimeout)
			}
		}
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				errs.Add(NewComponentError("watcher", "close", err))
			}
		}
		if app.logFile != nil {
			if err := app.logFile.Close(); err != nil {
				errs.Add(NewComponentError("logger", "close", err))
			}
		}
		app.shutdownErr = errs.AsError()
	})
	return app.shutdownErr
}

// IsRunning reports whether Run has been called.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Submit sends a global command to the editor loop.
func (app *Application) Submit(p command.Payload) error {
	if err := app.bus.Submit(p); err != nil {
		return fmt.Errorf("submit %s: %w", command.KindOf(p), err)
	}
	return nil
}

// Status returns the latest editor status.
func (app *Application) Status() *editor.Status {
	return app.editor.Status()
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the root logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Editor returns the editor. Its buffers must only be touched from the
// editor loop; register components before Run.
func (app *Application) Editor() *editor.Editor {
	return app.editor
}
