package editor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/logging"
	"github.com/cybernobie/lapce/internal/proxy"
	"github.com/cybernobie/lapce/internal/workspace"
)

// Errors returned by Handle. None of them is fatal; the command that caused
// it is dropped.
var (
	// ErrUnknownBuffer means a command names a buffer that is not open.
	ErrUnknownBuffer = errors.New("unknown buffer")

	// ErrUnknownTarget means a command is addressed to an unregistered
	// component.
	ErrUnknownTarget = errors.New("unknown command target")

	// ErrUnknownCommand means a payload type has no handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoActiveBuffer means a cursor command arrived with no loaded
	// buffer active.
	ErrNoActiveBuffer = errors.New("no active buffer")
)

// PaletteComponent is the component name reference lists are routed to.
const PaletteComponent = "palette"

// maxJumps bounds the jump history.
const maxJumps = 100

// Recomputer accepts background highlight work. Submit must not block.
type Recomputer interface {
	Submit(ev highlight.UpdateEvent)
}

// Registrar tracks files for on-disk changes.
type Registrar interface {
	Add(path string) error
	Remove(path string) error
}

// Component handles commands addressed to it by name. It runs on the editor
// loop.
type Component interface {
	Handle(p command.Payload) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(command.Payload) error

// Handle calls f.
func (f ComponentFunc) Handle(p command.Payload) error {
	return f(p)
}

// Editor owns the open buffers and consumes the command bus.
type Editor struct {
	bus        *command.Bus
	proxy      proxy.Proxy
	worker     Recomputer
	watcher    Registrar
	presenter  Presenter
	logger     *logging.Logger
	semantic   bool
	components map[string]Component

	ctx       context.Context
	workspace workspace.Workspace

	buffers map[buffer.ID]*buffer.Buffer
	byPath  map[string]buffer.ID

	// active is the zero ID when no buffer is active. cursors keeps the
	// cursor of inactive buffers.
	active  buffer.ID
	cursor  buffer.ByteOffset
	cursors map[buffer.ID]buffer.ByteOffset

	// pending holds locations to apply once a buffer finishes loading.
	pending map[string]protocol.Location
	jumps   []protocol.Location

	// diagnostics is keyed by path and includes files that are not open.
	diagnostics map[string][]protocol.Diagnostic
	errors      int
	warnings    int

	codeActionsVisible bool
	codeActionsWanted  bool

	handled uint64
	status  atomic.Pointer[Status]
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		e.logger = logging.OrNop(l)
	}
}

// WithPresenter sets the invalidation receiver.
func WithPresenter(p Presenter) Option {
	return func(e *Editor) {
		if p != nil {
			e.presenter = p
		}
	}
}

// WithWatcher sets the registrar open files are tracked with.
func WithWatcher(r Registrar) Option {
	return func(e *Editor) {
		e.watcher = r
	}
}

// WithSemanticTokens enables or disables semantic token requests.
func WithSemanticTokens(enabled bool) Option {
	return func(e *Editor) {
		e.semantic = enabled
	}
}

// New creates an editor consuming bus. Proxy results are sent back on bus.
func New(bus *command.Bus, p proxy.Proxy, worker Recomputer, opts ...Option) *Editor {
	e := &Editor{
		bus:         bus,
		proxy:       p,
		worker:      worker,
		presenter:   nopPresenter{},
		logger:      logging.Nop(),
		semantic:    true,
		components:  make(map[string]Component),
		ctx:         context.Background(),
		buffers:     make(map[buffer.ID]*buffer.Buffer),
		byPath:      make(map[string]buffer.ID),
		cursors:     make(map[buffer.ID]buffer.ByteOffset),
		pending:     make(map[string]protocol.Location),
		diagnostics: make(map[string][]protocol.Diagnostic),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.publish()
	return e
}

// Register routes commands addressed to name to c. It must be called
// before Run.
func (e *Editor) Register(name string, c Component) {
	e.components[name] = c
}

// Run consumes the bus until ctx is done or the bus is closed.
func (e *Editor) Run(ctx context.Context) error {
	e.ctx = ctx
	e.logger.Info("editor loop started")
	defer e.logger.Info("editor loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.bus.Done():
			return nil
		case cmd := <-e.bus.Receive():
			e.dispatch(cmd)
		}
	}
}

// dispatch handles cmd, logging instead of returning failures. A panic in
// a handler drops the command.
func (e *Editor) dispatch(cmd command.Command) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command %s panicked: %v\n%s", cmd.Kind(), r, debug.Stack())
		}
	}()

	err := e.Handle(cmd)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownBuffer), errors.Is(err, ErrUnknownTarget), errors.Is(err, ErrNoActiveBuffer):
		e.logger.Debug("command %s dropped: %v", cmd.Kind(), err)
	default:
		e.logger.Warn("command %s failed: %v", cmd.Kind(), err)
	}
}

// Handle applies one command. Stale results are dropped without error.
func (e *Editor) Handle(cmd command.Command) error {
	defer e.publish()
	e.handled++

	if !cmd.Target.IsGlobal() {
		return e.route(cmd.Target.Name(), cmd.Payload)
	}

	switch p := cmd.Payload.(type) {
	case command.SetWorkspace:
		return e.setWorkspace(p.Workspace)
	case command.OpenFile:
		e.openFile(p.Path)
		return nil
	case command.LoadBuffer:
		return e.loadBuffer(p.Path, p.Content)
	case command.LoadFailed:
		return e.loadFailed(p.Path, p.Err)
	case command.LoadBufferAndGoToPosition:
		if err := e.loadBuffer(p.Path, p.Content); err != nil {
			return err
		}
		e.goTo(p.Location)
		return nil
	case command.PublishDiagnostics:
		e.publishDiagnostics(p.Params)
		return nil
	case command.BufferSave:
		return e.bufferSave(p)
	case command.ReloadBuffer:
		return e.reloadBuffer(p)
	case command.UpdateSemanticTokens:
		return e.updateSemanticTokens(p)
	case command.UpdateStyle:
		return e.updateStyle(p)
	case command.UpdateCodeActions:
		return e.updateCodeActions(p)
	case command.GotoDefinition:
		e.guardedGoTo(p.Offset, p.Location)
		return nil
	case command.GotoReference:
		e.guardedGoTo(p.Offset, p.Location)
		return nil
	case command.PaletteReferences:
		return e.paletteReferences(p)
	case command.RunPaletteReferences:
		return e.route(PaletteComponent, p)
	case command.DocumentFormatAndSave:
		return e.formatAndSave(p)
	case command.GoToLocation:
		e.goTo(p.Location)
		return nil
	case command.JumpToPosition:
		return e.jumpToPosition(p.Position)
	case command.JumpToLocation:
		e.jumpToLocation(p.Location)
		return nil
	case command.JumpToLine:
		return e.jumpToLine(p.Line)
	case command.ShowCodeActions:
		return e.showCodeActions()
	case command.CancelCodeActions:
		e.cancelCodeActions()
		return nil
	case command.EditBuffer:
		return e.editBuffer(p.ID, p.Edit)
	case command.MoveCursor:
		return e.moveCursor(p.Offset)
	case command.SaveBuffer:
		return e.saveBuffer(p.ID)
	case command.CloseBuffer:
		return e.closeBuffer(p.ID)
	case command.FileChanged:
		return e.fileChanged(p.Path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command.KindOf(p))
	}
}

// route hands p to the named component.
func (e *Editor) route(name string, p command.Payload) error {
	c, ok := e.components[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return c.Handle(p)
}

func (e *Editor) invalidate(kind InvalidationKind, b *buffer.Buffer) {
	inv := Invalidation{Kind: kind}
	if b != nil {
		inv.Path, inv.Buffer = b.Path(), b.ID()
	}
	e.presenter.Invalidate(inv)
}

// Buffer returns the open buffer with id. The buffer is owned by the loop
// and must only be used from it.
func (e *Editor) Buffer(id buffer.ID) (*buffer.Buffer, bool) {
	b, ok := e.buffers[id]
	return b, ok
}

// BufferByPath returns the open buffer for path.
func (e *Editor) BufferByPath(path string) (*buffer.Buffer, bool) {
	id, ok := e.byPath[cleanPath(path)]
	if !ok {
		return nil, false
	}
	return e.buffers[id], true
}

func (e *Editor) lookup(id buffer.ID) (*buffer.Buffer, error) {
	b, ok := e.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
	}
	return b, nil
}

func (e *Editor) lookupPath(path string) (*buffer.Buffer, error) {
	b, ok := e.BufferByPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuffer, path)
	}
	return b, nil
}

func (e *Editor) activeBuffer() (*buffer.Buffer, bool) {
	if e.active.IsZero() {
		return nil, false
	}
	b, ok := e.buffers[e.active]
	return b, ok
}

// Jumps returns the jump history, oldest first.
func (e *Editor) Jumps() []protocol.Location {
	return append([]protocol.Location(nil), e.jumps...)
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// locationPath returns the file path of a file URI. Other schemes are
// rejected.
func locationPath(u protocol.DocumentURI) (string, bool) {
	parsed, err := url.ParseRequestURI(string(u))
	if err != nil || parsed.Scheme != uri.FileScheme {
		return "", false
	}
	return cleanPath(filepath.FromSlash(parsed.Path)), true
}
