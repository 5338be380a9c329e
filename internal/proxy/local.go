package proxy

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime/debug"
	"sync"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/logging"
	"github.com/cybernobie/lapce/internal/revision"
	"github.com/cybernobie/lapce/internal/vfs"
	"github.com/cybernobie/lapce/internal/workspace"
)

// Local serves a local workspace in process. File requests go through a
// vfs.FS; Go documents get parser diagnostics, gofmt formatting, scanner
// based semantic tokens and code actions. Other languages get empty
// results.
//
// Every request runs on its own goroutine.
type Local struct {
	fs     vfs.FS
	logger *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	sink    command.Sink
	ws      workspace.Workspace
	started bool
	formats map[string]vfs.Format

	wg sync.WaitGroup
}

// Ensure Local implements Proxy.
var _ Proxy = (*Local)(nil)

// LocalOption configures a Local proxy.
type LocalOption func(*Local)

// WithFS sets the file system.
func WithFS(fsys vfs.FS) LocalOption {
	return func(l *Local) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) LocalOption {
	return func(l *Local) {
		l.logger = logging.OrNop(logger)
	}
}

// NewLocal creates a local proxy. It serves nothing until Start.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		fs:      vfs.NewOSFS(),
		logger:  logging.Nop(),
		formats: make(map[string]vfs.Format),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start binds the proxy to ws. Starting again rebinds it to the new
// workspace; requests already running still answer on the old sink.
// Requests made after ctx is done are ignored.
func (l *Local) Start(ctx context.Context, ws workspace.Workspace, sink command.Sink) error {
	if ws.Kind == workspace.Remote {
		return ErrRemoteUnsupported
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		l.logger.Info("proxy leaving %s", l.ws)
		clear(l.formats)
	}
	l.ctx, l.sink, l.ws, l.started = ctx, sink, ws, true
	l.logger.Info("proxy started for %s", ws)
	return nil
}

// Workspace returns the workspace passed to Start.
func (l *Local) Workspace() workspace.Workspace {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ws
}

// Wait blocks until every request issued so far has answered.
func (l *Local) Wait() {
	l.wg.Wait()
}

// spawn runs fn on a goroutine with the started sink. It reports whether fn
// was scheduled.
func (l *Local) spawn(op string, fn func(sink command.Sink)) bool {
	l.mu.Lock()
	ctx, sink, started := l.ctx, l.sink, l.started
	l.mu.Unlock()

	if !started {
		l.logger.Warn("%s: %v", op, ErrNotStarted)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("%s panic: %v\n%s", op, r, debug.Stack())
			}
		}()
		fn(sink)
	}()
	return true
}

func (l *Local) send(sink command.Sink, op string, p command.Payload) {
	if err := command.Submit(sink, p); err != nil {
		l.logger.Debug("%s: result dropped: %v", op, err)
	}
}

// read loads path and remembers its on-disk format for the next save.
func (l *Local) read(path string) (string, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, format, err := vfs.Decode(data)
	if err != nil {
		return "", &fs.PathError{Op: "decode", Path: path, Err: err}
	}
	l.mu.Lock()
	l.formats[path] = format
	l.mu.Unlock()
	return text, nil
}

// RetrieveFile loads path for buffer id.
func (l *Local) RetrieveFile(id buffer.ID, path string, sink command.Sink) {
	l.spawn("retrieve file", func(started command.Sink) {
		if sink == nil {
			sink = started
		}
		text, err := l.read(path)
		if err != nil {
			l.logger.Warn("retrieve %s: %v", path, err)
			l.send(sink, "retrieve file", command.LoadFailed{Path: path, Err: err})
			return
		}
		l.logger.Debug("retrieved %s for buffer %s: %d bytes", path, id, len(text))
		l.send(sink, "retrieve file", command.LoadBuffer{Path: path, Content: text})
	})
}

// ReloadFile reads path again for buffer id and tags the result rev.
func (l *Local) ReloadFile(id buffer.ID, path string, rev revision.Revision) {
	l.spawn("reload file", func(sink command.Sink) {
		text, err := l.read(path)
		if err != nil {
			l.logger.Warn("reload %s: %v", path, err)
			return
		}
		l.send(sink, "reload file", command.ReloadBuffer{ID: id, Rev: rev, Content: text})
	})
}

// RequestDiagnostics publishes the diagnostics of doc.
func (l *Local) RequestDiagnostics(doc Document) {
	l.spawn("diagnostics", func(sink command.Sink) {
		diags := []protocol.Diagnostic{}
		if isGo(doc) {
			diags = goDiagnostics(doc)
		}
		version, err := safecast.Conv[uint32](uint64(doc.Revision))
		if err != nil {
			l.logger.Warn("diagnostics %s: %v", doc.Path, err)
			return
		}
		l.send(sink, "diagnostics", command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
			URI:         documentURI(doc.Path),
			Version:     version,
			Diagnostics: diags,
		}})
	})
}

// RequestSemanticTokens computes semantic tokens for doc.
func (l *Local) RequestSemanticTokens(doc Document) {
	if !isGo(doc) {
		return
	}
	l.spawn("semantic tokens", func(sink command.Sink) {
		data, err := goSemanticTokens(doc)
		if err != nil {
			l.logger.Warn("semantic tokens %s: %v", doc.Path, err)
			return
		}
		l.send(sink, "semantic tokens", command.UpdateSemanticTokens{
			ID:     doc.ID,
			Rev:    doc.Revision,
			Tokens: protocol.SemanticTokens{Data: data},
			Legend: GoLegend,
		})
	})
}

// RequestCodeActions computes the code actions at offset.
func (l *Local) RequestCodeActions(doc Document, offset buffer.ByteOffset, pos protocol.Position) {
	l.spawn("code actions", func(sink command.Sink) {
		var resp buffer.CodeActionResponse
		if isGo(doc) {
			resp = goCodeActions(doc, pos)
		}
		l.send(sink, "code actions", command.UpdateCodeActions{
			Path:     doc.Path,
			Rev:      doc.Revision,
			Offset:   offset,
			Response: resp,
		})
	})
}

// FormatAndSave computes formatting edits for doc. A formatting failure is
// reported in the result so the document is still saved.
func (l *Local) FormatAndSave(doc Document) {
	l.spawn("format", func(sink command.Sink) {
		var edits []protocol.TextEdit
		var err error
		if isGo(doc) {
			edits, err = goFormat(doc)
		}
		l.send(sink, "format", command.DocumentFormatAndSave{
			Path:  doc.Path,
			Rev:   doc.Revision,
			Edits: edits,
			Err:   err,
		})
	})
}

// Save writes doc in the format the file was read with.
func (l *Local) Save(doc Document) {
	l.spawn("save", func(sink command.Sink) {
		if err := l.write(doc); err != nil {
			l.logger.Error("save %s rev %s: %v", doc.Path, doc.Revision, err)
			return
		}
		l.logger.Info("saved %s rev %s", doc.Path, doc.Revision)
		l.send(sink, "save", command.BufferSave{Path: doc.Path, Rev: doc.Revision})
	})
}

func (l *Local) write(doc Document) error {
	l.mu.Lock()
	format, ok := l.formats[doc.Path]
	l.mu.Unlock()
	if !ok {
		format = vfs.DefaultFormat
	}

	perm, err := l.fs.Mode(doc.Path)
	if errors.Is(err, fs.ErrNotExist) {
		perm = vfs.DefaultPerm
	} else if err != nil {
		return err
	}
	data, err := vfs.Encode(doc.Text(), format)
	if err != nil {
		return &fs.PathError{Op: "encode", Path: doc.Path, Err: err}
	}
	return l.fs.WriteFile(doc.Path, data, perm)
}

func documentURI(path string) protocol.DocumentURI {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uri.File(path)
}
