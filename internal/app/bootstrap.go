package app

import (
	"io"
	"os"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/config"
	"github.com/cybernobie/lapce/internal/editor"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/logging"
	"github.com/cybernobie/lapce/internal/proxy"
	"github.com/cybernobie/lapce/internal/vfs"
	"github.com/cybernobie/lapce/internal/watcher"
)

// bootstrapper initializes components in dependency order and releases
// the initialized ones if a later step fails.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 7),
	}
}

func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		init func() error
	}{
		{"config", b.initConfig},
		{"logger", b.initLogger},
		{"bus", b.initBus},
		{"highlight", b.initWorker},
		{"proxy", b.initProxy},
		{"watcher", b.initWatcher},
		{"editor", b.initEditor},
	}
	for _, s := range steps {
		if err := s.init(); err != nil {
			b.cleanup()
			return err
		}
		b.initOrder = append(b.initOrder, s.name)
	}
	b.app.logger.Debug("initialized %v", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.opts.ConfigPath)
	if err != nil {
		return NewComponentError("config", "load", err)
	}
	if b.opts.LogLevel != "" {
		cfg.Log.Level = b.opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return NewComponentError("config", "validate", err)
		}
	}
	b.app.config = cfg
	return nil
}

func (b *bootstrapper) initLogger() error {
	cfg := b.app.config
	var out io.Writer = os.Stderr
	switch {
	case b.opts.LogOutput != nil:
		out = b.opts.LogOutput
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return NewComponentError("logger", "open", err)
		}
		b.app.logFile = f
		out = f
	}
	b.app.logger = logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: out,
		Prefix: cfg.Log.Prefix,
	})
	return nil
}

func (b *bootstrapper) initBus() error {
	b.app.bus = command.NewBus(b.app.config.Bus.Capacity)
	return nil
}

func (b *bootstrapper) initWorker() error {
	b.app.worker = highlight.NewWorker(b.app.bus,
		highlight.WithWorkers(b.app.config.Highlight.Workers),
		highlight.WithLogger(b.app.logger.WithComponent("highlight")),
	)
	return nil
}

func (b *bootstrapper) initProxy() error {
	fsys := b.opts.FS
	if fsys == nil {
		fsys = vfs.NewOSFS()
	}
	b.app.proxy = proxy.NewLocal(
		proxy.WithFS(fsys),
		proxy.WithLogger(b.app.logger.WithComponent("proxy")),
	)
	return nil
}

func (b *bootstrapper) initWatcher() error {
	if !b.app.config.Watch.Enabled {
		return nil
	}
	w, err := watcher.New(b.app.bus,
		watcher.WithDelay(b.app.config.DebounceDelay()),
		watcher.WithLogger(b.app.logger.WithComponent("watcher")),
	)
	if err != nil {
		return NewComponentError("watcher", "create", err)
	}
	b.app.watcher = w
	return nil
}

func (b *bootstrapper) initEditor() error {
	opts := []editor.Option{
		editor.WithLogger(b.app.logger.WithComponent("editor")),
		editor.WithPresenter(b.opts.Presenter),
		editor.WithSemanticTokens(b.app.config.Highlight.Semantic),
	}
	if b.app.watcher != nil {
		opts = append(opts, editor.WithWatcher(b.app.watcher))
	}
	b.app.editor = editor.New(b.app.bus, b.app.proxy, b.app.worker, opts...)
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "watcher":
			if b.app.watcher != nil {
				_ = b.app.watcher.Close()
			}
		case "bus":
			b.app.bus.Close()
		case "logger":
			if b.app.logFile != nil {
				_ = b.app.logFile.Close()
			}
		}
	}
}

