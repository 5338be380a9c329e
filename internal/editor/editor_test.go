package editor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/highlight"
	"github.com/cybernobie/lapce/internal/revision"
	"github.com/cybernobie/lapce/internal/workspace"
)

type retrieveCall struct {
	id   buffer.ID
	path string
	sink command.Sink
}

type reloadCall struct {
	id   buffer.ID
	path string
	rev  revision.Revision
}

// fakeProxy records requests without answering them.
type fakeProxy struct {
	mu        sync.Mutex
	startErr  error
	started   []workspace.Workspace
	retrieved []retrieveCall
	reloads   []reloadCall
	diagnosed []buffer.Snapshot
	semantic  []buffer.Snapshot
	actions   []buffer.ByteOffset
	formatted []buffer.Snapshot
	saved     []buffer.Snapshot
}

func (p *fakeProxy) Start(_ context.Context, ws workspace.Workspace, _ command.Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, ws)
	return p.startErr
}

func (p *fakeProxy) RetrieveFile(id buffer.ID, path string, sink command.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retrieved = append(p.retrieved, retrieveCall{id, path, sink})
}

func (p *fakeProxy) ReloadFile(id buffer.ID, path string, rev revision.Revision) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads = append(p.reloads, reloadCall{id, path, rev})
}

func (p *fakeProxy) RequestDiagnostics(doc buffer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.diagnosed = append(p.diagnosed, doc)
}

func (p *fakeProxy) RequestSemanticTokens(doc buffer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.semantic = append(p.semantic, doc)
}

func (p *fakeProxy) RequestCodeActions(_ buffer.Snapshot, offset buffer.ByteOffset, _ protocol.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, offset)
}

func (p *fakeProxy) FormatAndSave(doc buffer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formatted = append(p.formatted, doc)
}

func (p *fakeProxy) Save(doc buffer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, doc)
}

type recomputer struct {
	mu     sync.Mutex
	events []highlight.UpdateEvent
}

func (r *recomputer) Submit(ev highlight.UpdateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recomputer) last() highlight.UpdateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recomputer) count(kind highlight.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type invalidations struct {
	mu   sync.Mutex
	list []Invalidation
}

func (i *invalidations) Invalidate(inv Invalidation) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.list = append(i.list, inv)
}

func (i *invalidations) count(kind InvalidationKind) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, inv := range i.list {
		if inv.Kind == kind {
			n++
		}
	}
	return n
}

func (i *invalidations) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.list = nil
}

type fixture struct {
	e      *Editor
	bus    *command.Bus
	proxy  *fakeProxy
	worker *recomputer
	inv    *invalidations
	dir    string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		bus:    command.NewBus(16),
		proxy:  &fakeProxy{},
		worker: &recomputer{},
		inv:    &invalidations{},
		dir:    t.TempDir(),
	}
	opts = append([]Option{WithPresenter(f.inv)}, opts...)
	f.e = New(f.bus, f.proxy, f.worker, opts...)
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *fixture) handle(t *testing.T, p command.Payload) {
	t.Helper()
	if err := f.e.Handle(command.New(p)); err != nil {
		t.Fatalf("%s: %v", command.KindOf(p), err)
	}
}

// open opens and loads name as if the proxy had answered.
func (f *fixture) open(t *testing.T, name, content string) *buffer.Buffer {
	t.Helper()
	path := f.path(name)
	f.handle(t, command.OpenFile{Path: path})
	f.handle(t, command.LoadBuffer{Path: path, Content: content})
	b, ok := f.e.BufferByPath(path)
	if !ok || !b.Loaded() {
		t.Fatalf("buffer %s not loaded", path)
	}
	return b
}

func location(path string, line, char uint32) protocol.Location {
	pos := protocol.Position{Line: line, Character: char}
	return protocol.Location{URI: uri.File(path), Range: protocol.Range{Start: pos, End: pos}}
}

const goSource = "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

func TestHandleEveryVariant(t *testing.T) {
	f := newFixture(t)
	for _, p := range command.All() {
		t.Run(command.KindOf(p), func(t *testing.T) {
			err := f.e.Handle(command.New(p))
			if errors.Is(err, ErrUnknownCommand) {
				t.Fatalf("no handler: %v", err)
			}
		})
	}
	if got := f.e.Status().Commands; got != uint64(len(command.All())) {
		t.Errorf("Commands = %d, want %d", got, len(command.All()))
	}
}

func TestOpenFile(t *testing.T) {
	f := newFixture(t)
	path := f.path("main.go")
	f.handle(t, command.OpenFile{Path: path})

	if len(f.proxy.retrieved) != 1 || f.proxy.retrieved[0].path != path || f.proxy.retrieved[0].sink != nil {
		t.Fatalf("retrieved = %+v", f.proxy.retrieved)
	}
	st, ok := f.e.Status().Buffer(path)
	if !ok || st.Loaded {
		t.Fatalf("status = %+v, %v; want unloaded buffer", st, ok)
	}

	f.handle(t, command.OpenFile{Path: path})
	if len(f.proxy.retrieved) != 1 {
		t.Errorf("reopening retrieved again")
	}

	f.handle(t, command.LoadBuffer{Path: path, Content: goSource})
	b, _ := f.e.BufferByPath(path)
	if tag, ok := b.Language(); !ok || tag != "Go" {
		t.Errorf("language = %q, %v", tag, ok)
	}
	if f.worker.count(highlight.Syntax) != 1 {
		t.Errorf("syntax events = %d, want 1", f.worker.count(highlight.Syntax))
	}
	if len(f.proxy.diagnosed) != 1 || len(f.proxy.semantic) != 1 {
		t.Errorf("diagnosed = %d, semantic = %d", len(f.proxy.diagnosed), len(f.proxy.semantic))
	}
	if f.e.Status().Active != b.ID() {
		t.Error("opened buffer not active")
	}
}

func TestLoadAfterReopenKeepsEdits(t *testing.T) {
	f := newFixture(t)
	path := f.path("main.go")
	f.handle(t, command.OpenFile{Path: path})
	first, _ := f.e.BufferByPath(path)
	f.handle(t, command.CloseBuffer{ID: first.ID()})

	f.handle(t, command.OpenFile{Path: path})
	f.handle(t, command.LoadBuffer{Path: path, Content: "disk\n"})
	b, _ := f.e.BufferByPath(path)
	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "user ")})
	rev := b.Revision()

	f.handle(t, command.LoadBuffer{Path: path, Content: "disk\n"})
	if b.Text() != "user disk\n" || !b.Dirty() || b.Revision() != rev {
		t.Errorf("text = %q, dirty = %v, rev = %s; want edit kept at rev %s", b.Text(), b.Dirty(), b.Revision(), rev)
	}
}

func TestSemanticTokensDisabled(t *testing.T) {
	f := newFixture(t, WithSemanticTokens(false))
	f.open(t, "main.go", goSource)
	if len(f.proxy.semantic) != 0 {
		t.Errorf("semantic requests = %d, want 0", len(f.proxy.semantic))
	}
}

func TestLoadFailed(t *testing.T) {
	f := newFixture(t)
	path := f.path("missing.go")
	f.handle(t, command.OpenFile{Path: path})
	f.handle(t, command.LoadFailed{Path: path, Err: errors.New("no such file")})

	st, _ := f.e.Status().Buffer(path)
	if st.Loaded || st.LoadErr != "no such file" {
		t.Errorf("status = %+v", st)
	}
	if f.inv.count(LoadError) != 1 {
		t.Errorf("load error invalidations = %d", f.inv.count(LoadError))
	}
}

func TestStaleStylesDropped(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(b.Len(), "// end\n")})
	f.inv.reset()

	spans := []buffer.Span{{Start: 0, End: 7, Scope: "Keyword"}}
	f.handle(t, command.UpdateStyle{ID: b.ID(), Path: b.Path(), Rev: 0, Highlights: spans})
	if _, ok := b.Styles(); ok {
		t.Fatal("styles for rev 0 applied at rev 1")
	}
	if n := f.inv.count(TextLayout); n != 0 {
		t.Errorf("stale styles invalidated %d times", n)
	}

	f.handle(t, command.UpdateStyle{ID: b.ID(), Path: b.Path(), Rev: 1, Highlights: spans})
	if st, ok := b.Styles(); !ok || len(st.Spans) != 1 {
		t.Fatalf("styles = %+v, %v", st, ok)
	}
	f.handle(t, command.UpdateStyle{ID: b.ID(), Path: b.Path(), Rev: 1, Highlights: spans})
	if n := f.inv.count(TextLayout); n != 1 {
		t.Errorf("text layout invalidations = %d, want 1", n)
	}
}

func TestReloadBuffer(t *testing.T) {
	tests := []struct {
		name    string
		rev     revision.Revision
		content string
		want    string
		wantRev revision.Revision
	}{
		{"next revision", 1, "new\n", "new\n", 1},
		{"gap", 2, "new\n", "old\n", 0},
		{"same revision", 0, "new\n", "old\n", 0},
		{"identical content", 1, "old\n", "old\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.open(t, "notes.txt", "old\n")
			f.handle(t, command.ReloadBuffer{ID: b.ID(), Rev: tt.rev, Content: tt.content})
			if b.Text() != tt.want || b.Revision() != tt.wantRev {
				t.Errorf("text = %q rev %s, want %q rev %s", b.Text(), b.Revision(), tt.want, tt.wantRev)
			}
		})
	}
}

func TestSaveDirtyTracking(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "// x\n")})
	if !b.Dirty() {
		t.Fatal("edit did not mark dirty")
	}

	f.handle(t, command.SaveBuffer{ID: b.ID()})
	if len(f.proxy.formatted) != 1 || f.proxy.formatted[0].Revision != 1 {
		t.Fatalf("formatted = %+v", f.proxy.formatted)
	}

	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "// y\n")})
	f.handle(t, command.BufferSave{Path: b.Path(), Rev: 1})
	if !b.Dirty() {
		t.Error("stale save acknowledgement cleared dirty")
	}
	if st, _ := f.e.Status().Buffer(b.Path()); st.Saved != 0 {
		t.Errorf("saved revision = %s after a stale acknowledgement, want 0", st.Saved)
	}
	f.handle(t, command.BufferSave{Path: b.Path(), Rev: 2})
	if b.Dirty() {
		t.Error("current save acknowledgement left dirty")
	}
	if st, _ := f.e.Status().Buffer(b.Path()); st.Dirty || st.Saved != 2 {
		t.Errorf("status = %+v, want clean and saved at rev 2", st)
	}
}

func TestSaveUnloaded(t *testing.T) {
	f := newFixture(t)
	path := f.path("main.go")
	f.handle(t, command.OpenFile{Path: path})
	b, _ := f.e.BufferByPath(path)
	err := f.e.Handle(command.New(command.SaveBuffer{ID: b.ID()}))
	if !errors.Is(err, buffer.ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
}

func TestFormatAndSave(t *testing.T) {
	header := protocol.TextEdit{
		Range:   protocol.Range{},
		NewText: "// header\n",
	}
	tests := []struct {
		name      string
		rev       revision.Revision
		edits     []protocol.TextEdit
		err       error
		wantSaves int
		wantText  string
	}{
		{"applies edits", 0, []protocol.TextEdit{header}, nil, 1, "// header\n" + goSource},
		{"no edits", 0, nil, nil, 1, goSource},
		{"format error saves unformatted", 0, []protocol.TextEdit{header}, errors.New("syntax"), 1, goSource},
		{"stale", 3, []protocol.TextEdit{header}, nil, 0, goSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.open(t, "main.go", goSource)
			f.handle(t, command.DocumentFormatAndSave{Path: b.Path(), Rev: tt.rev, Edits: tt.edits, Err: tt.err})
			if len(f.proxy.saved) != tt.wantSaves {
				t.Fatalf("saves = %d, want %d", len(f.proxy.saved), tt.wantSaves)
			}
			if b.Text() != tt.wantText {
				t.Errorf("text = %q, want %q", b.Text(), tt.wantText)
			}
			if tt.wantSaves > 0 && f.proxy.saved[0].Text() != tt.wantText {
				t.Errorf("saved %q, want %q", f.proxy.saved[0].Text(), tt.wantText)
			}
		})
	}
}

func TestDiagnosticAggregation(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "a.go", goSource)
	other := f.path("b.go")

	diag := func(sev protocol.DiagnosticSeverity) protocol.Diagnostic {
		return protocol.Diagnostic{Severity: sev, Message: sev.String()}
	}
	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
		URI: uri.File(b.Path()),
		Diagnostics: []protocol.Diagnostic{
			diag(protocol.DiagnosticSeverityError),
			diag(protocol.DiagnosticSeverityError),
			diag(protocol.DiagnosticSeverityWarning),
		},
	}})
	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
		URI:         uri.File(other),
		Diagnostics: []protocol.Diagnostic{diag(protocol.DiagnosticSeverityError)},
	}})

	st := f.e.Status()
	if st.Errors != 3 || st.Warnings != 1 {
		t.Fatalf("errors/warnings = %d/%d, want 3/1", st.Errors, st.Warnings)
	}
	if len(b.Diagnostics()) != 3 {
		t.Errorf("buffer diagnostics = %d, want 3", len(b.Diagnostics()))
	}

	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{URI: uri.File(b.Path())}})
	st = f.e.Status()
	if st.Errors != 1 || st.Warnings != 0 {
		t.Errorf("errors/warnings = %d/%d, want 1/0", st.Errors, st.Warnings)
	}
	if len(b.Diagnostics()) != 0 {
		t.Errorf("buffer diagnostics = %d, want 0", len(b.Diagnostics()))
	}
}

func TestStaleDiagnosticsDropped(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "a.go", goSource)
	errs := []protocol.Diagnostic{{Severity: protocol.DiagnosticSeverityError, Message: "undefined: x"}}
	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "// x\n")})

	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
		URI:         uri.File(b.Path()),
		Version:     0,
		Diagnostics: errs,
	}})
	if len(b.Diagnostics()) != 0 || f.e.Status().Errors != 0 {
		t.Fatalf("diagnostics for rev 0 applied at rev %s", b.Revision())
	}

	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
		URI:         uri.File(b.Path()),
		Version:     1,
		Diagnostics: errs,
	}})
	if len(b.Diagnostics()) != 1 || f.e.Status().Errors != 1 {
		t.Errorf("diagnostics = %d, errors = %d; want 1/1", len(b.Diagnostics()), f.e.Status().Errors)
	}
}

func TestDiagnosticsNonFileURI(t *testing.T) {
	f := newFixture(t)
	f.handle(t, command.PublishDiagnostics{Params: protocol.PublishDiagnosticsParams{
		URI:         "https://example.com/x.go",
		Diagnostics: []protocol.Diagnostic{{Severity: protocol.DiagnosticSeverityError}},
	}})
	if f.e.Status().Errors != 0 {
		t.Error("non-file diagnostics counted")
	}
}

func TestGotoDefinitionCursorGuard(t *testing.T) {
	f := newFixture(t)
	f.open(t, "main.go", "package main\n\n"+strings.Repeat("// filler\n", 10))
	f.handle(t, command.MoveCursor{Offset: 42})
	target := location(f.path("other.go"), 3, 0)
	retrieved := len(f.proxy.retrieved)

	f.handle(t, command.GotoDefinition{Offset: 43, Location: target})
	if len(f.proxy.retrieved) != retrieved || len(f.e.Jumps()) != 0 {
		t.Fatal("navigation followed after the cursor moved")
	}

	f.handle(t, command.GotoDefinition{Offset: 42, Location: target})
	if len(f.proxy.retrieved) != retrieved+1 {
		t.Fatal("navigation not followed")
	}
	jumps := f.e.Jumps()
	if len(jumps) != 1 || jumps[0].Range.Start != (protocol.Position{Line: 4, Character: 8}) {
		t.Errorf("jumps = %+v", jumps)
	}
}

func TestGoToUnopenedFile(t *testing.T) {
	f := newFixture(t)
	path := f.path("lib.go")
	f.handle(t, command.GoToLocation{Location: location(path, 1, 2)})

	if len(f.proxy.retrieved) != 1 || f.proxy.retrieved[0].sink == nil {
		t.Fatalf("retrieved = %+v", f.proxy.retrieved)
	}
	call := f.proxy.retrieved[0]
	if err := call.sink.Send(command.New(command.LoadBuffer{Path: path, Content: "a\nbcd\n"})); err != nil {
		t.Fatalf("sink: %v", err)
	}

	cmd := <-f.bus.Receive()
	if _, ok := cmd.Payload.(command.LoadBufferAndGoToPosition); !ok {
		t.Fatalf("payload = %s, want LoadBufferAndGoToPosition", cmd.Kind())
	}
	if err := f.e.Handle(cmd); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	st := f.e.Status()
	if st.Active != call.id || st.Cursor != 4 {
		t.Errorf("active %s cursor %d, want %s cursor 4", st.Active, st.Cursor, call.id)
	}
}

func TestGoToLoadingBuffer(t *testing.T) {
	f := newFixture(t)
	path := f.path("lib.go")
	f.handle(t, command.OpenFile{Path: path})
	f.handle(t, command.GoToLocation{Location: location(path, 1, 1)})
	f.handle(t, command.LoadBuffer{Path: path, Content: "a\nbcd\n"})
	if got := f.e.Status().Cursor; got != 3 {
		t.Errorf("cursor = %d, want 3", got)
	}
}

func TestEndToEndSemanticTokens(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(b.Len(), "// end\n")})
	if b.Revision() != 1 {
		t.Fatalf("rev = %s, want 1", b.Revision())
	}
	f.inv.reset()

	legend := []string{"keyword", "string", "number", "comment", "function"}
	tokens := protocol.SemanticTokens{Data: []uint32{0, 8, 4, 4, 0}}
	f.handle(t, command.UpdateSemanticTokens{ID: b.ID(), Rev: 0, Tokens: tokens, Legend: legend})
	if n := f.worker.count(highlight.SemanticTokens); n != 0 {
		t.Fatalf("stale tokens submitted %d events", n)
	}

	f.handle(t, command.UpdateSemanticTokens{ID: b.ID(), Rev: 1, Tokens: tokens, Legend: legend})
	if n := f.worker.count(highlight.SemanticTokens); n != 1 {
		t.Fatalf("semantic events = %d, want 1", n)
	}
	ev := f.worker.last()
	styles, err := highlight.Compute(ev)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	f.handle(t, command.UpdateStyle{
		ID:         b.ID(),
		Path:       b.Path(),
		Rev:        styles.Revision,
		Highlights: styles.Spans,
		Semantic:   styles.Semantic,
	})

	if n := f.inv.count(TextLayout); n != 1 {
		t.Errorf("text layout invalidations = %d, want 1", n)
	}
	got, ok := b.Styles()
	if !ok || !got.Semantic {
		t.Fatalf("styles = %+v, %v", got, ok)
	}
	want := buffer.Span{Start: 8, End: 12, Scope: highlight.SemanticScopePrefix + "function"}
	found := false
	for _, s := range got.Spans {
		if s == want {
			found = true
		}
	}
	if !found {
		t.Errorf("spans %+v missing %+v", got.Spans, want)
	}
}

func TestFileChanged(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)

	f.handle(t, command.FileChanged{Path: b.Path()})
	if len(f.proxy.reloads) != 1 || f.proxy.reloads[0].rev != 1 {
		t.Fatalf("reloads = %+v", f.proxy.reloads)
	}

	f.handle(t, command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "x")})
	f.handle(t, command.FileChanged{Path: b.Path()})
	if len(f.proxy.reloads) != 1 {
		t.Error("dirty buffer reloaded")
	}
}

func TestEditShiftsCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor buffer.ByteOffset
		edit   buffer.Edit
		want   buffer.ByteOffset
	}{
		{"insert before", 10, buffer.Insert(0, "abc"), 13},
		{"insert after", 10, buffer.Insert(20, "abc"), 10},
		{"delete containing", 10, buffer.Delete(5, 15), 5},
		{"replace containing", 10, buffer.Edit{Range: buffer.NewRange(8, 12), NewText: "xy"}, 10},
		{"delete before", 10, buffer.Delete(0, 4), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.open(t, "main.go", goSource)
			f.handle(t, command.MoveCursor{Offset: tt.cursor})
			f.handle(t, command.EditBuffer{ID: b.ID(), Edit: tt.edit})
			if got := f.e.Status().Cursor; got != tt.want {
				t.Errorf("cursor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeActions(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.MoveCursor{Offset: 5})
	if len(f.proxy.actions) != 1 || f.proxy.actions[0] != 5 {
		t.Fatalf("actions requested = %v", f.proxy.actions)
	}

	f.handle(t, command.ShowCodeActions{})
	if f.e.Status().CodeActionsVisible {
		t.Fatal("visible before response")
	}
	resp := buffer.CodeActionResponse{{Title: "fix"}}
	f.handle(t, command.UpdateCodeActions{Path: b.Path(), Rev: 0, Offset: 5, Response: resp})
	if !f.e.Status().CodeActionsVisible {
		t.Fatal("response did not open code actions")
	}

	f.handle(t, command.CancelCodeActions{})
	if f.e.Status().CodeActionsVisible {
		t.Fatal("cancel left code actions visible")
	}

	requests := len(f.proxy.actions)
	f.handle(t, command.ShowCodeActions{})
	if !f.e.Status().CodeActionsVisible || len(f.proxy.actions) != requests {
		t.Error("cached code actions not shown directly")
	}

	f.handle(t, command.UpdateCodeActions{Path: b.Path(), Rev: 7, Offset: 9, Response: resp})
	if _, ok := b.CodeActions(9); ok {
		t.Error("stale code actions cached")
	}
}

func TestPaletteReferences(t *testing.T) {
	f := newFixture(t)
	var got []command.Payload
	f.e.Register(PaletteComponent, ComponentFunc(func(p command.Payload) error {
		got = append(got, p)
		return nil
	}))
	f.open(t, "main.go", goSource)

	locs := []protocol.Location{location(f.path("a.go"), 0, 0), location(f.path("b.go"), 0, 0)}
	f.handle(t, command.PaletteReferences{Offset: 0, Locations: locs})
	if len(got) != 1 {
		t.Fatalf("palette got %d commands, want 1", len(got))
	}
	if run, ok := got[0].(command.RunPaletteReferences); !ok || len(run.Locations) != 2 {
		t.Errorf("palette got %#v", got[0])
	}

	f.handle(t, command.PaletteReferences{Offset: 0, Locations: locs[:1]})
	if len(got) != 1 || len(f.e.Jumps()) != 1 {
		t.Errorf("single reference not jumped to: palette %d, jumps %d", len(got), len(f.e.Jumps()))
	}
}

func TestComponentRouting(t *testing.T) {
	f := newFixture(t)
	var got command.Payload
	f.e.Register("search", ComponentFunc(func(p command.Payload) error {
		got = p
		return nil
	}))

	if err := f.e.Handle(command.To("search", command.JumpToLine{Line: 3})); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if jl, ok := got.(command.JumpToLine); !ok || jl.Line != 3 {
		t.Errorf("component got %#v", got)
	}
	if err := f.e.Handle(command.To("missing", command.ShowCodeActions{})); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("err = %v, want ErrUnknownTarget", err)
	}
}

func TestJumpToLine(t *testing.T) {
	f := newFixture(t)
	f.open(t, "main.go", goSource)
	f.handle(t, command.JumpToLine{Line: 2})
	if got := f.e.Status().Cursor; got != 14 {
		t.Errorf("cursor = %d, want 14", got)
	}
	f.handle(t, command.JumpToPosition{Position: protocol.Position{Line: 3, Character: 1}})
	if got := f.e.Status().Cursor; got != 29 {
		t.Errorf("cursor = %d, want 29", got)
	}
}

func TestCursorCommandsWithoutBuffer(t *testing.T) {
	f := newFixture(t)
	for _, p := range []command.Payload{
		command.MoveCursor{Offset: 1},
		command.JumpToLine{Line: 1},
		command.JumpToPosition{},
		command.ShowCodeActions{},
	} {
		if err := f.e.Handle(command.New(p)); !errors.Is(err, ErrNoActiveBuffer) {
			t.Errorf("%s: err = %v, want ErrNoActiveBuffer", command.KindOf(p), err)
		}
	}
}

func TestActivateRestoresCursor(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "a.go", goSource)
	f.handle(t, command.MoveCursor{Offset: 7})
	f.open(t, "b.go", goSource)
	if f.e.Status().Cursor != 0 {
		t.Fatalf("cursor = %d in new buffer", f.e.Status().Cursor)
	}
	f.handle(t, command.OpenFile{Path: a.Path()})
	st := f.e.Status()
	if st.Active != a.ID() || st.Cursor != 7 {
		t.Errorf("active %s cursor %d, want %s cursor 7", st.Active, st.Cursor, a.ID())
	}
}

func TestCloseBuffer(t *testing.T) {
	f := newFixture(t)
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.CloseBuffer{ID: b.ID()})
	if _, ok := f.e.Buffer(b.ID()); ok {
		t.Fatal("buffer still open")
	}
	if st := f.e.Status(); !st.Active.IsZero() || len(st.Buffers) != 0 {
		t.Errorf("status = %+v", st)
	}
	err := f.e.Handle(command.New(command.EditBuffer{ID: b.ID(), Edit: buffer.Insert(0, "x")}))
	if !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("err = %v, want ErrUnknownBuffer", err)
	}
}

func TestSetWorkspace(t *testing.T) {
	f := newFixture(t)
	ws := workspace.NewLocal(f.dir)
	f.handle(t, command.SetWorkspace{Workspace: ws})
	f.open(t, "main.go", goSource)

	f.handle(t, command.SetWorkspace{Workspace: ws})
	if len(f.proxy.started) != 1 || len(f.e.Status().Buffers) != 1 {
		t.Fatalf("same workspace restarted: started %d", len(f.proxy.started))
	}

	other := workspace.NewLocal(t.TempDir())
	f.handle(t, command.SetWorkspace{Workspace: other})
	st := f.e.Status()
	if len(f.proxy.started) != 2 || st.Workspace != other || len(st.Buffers) != 0 {
		t.Errorf("started %d, status %+v", len(f.proxy.started), st)
	}

	f.proxy.startErr = errors.New("boom")
	if err := f.e.Handle(command.New(command.SetWorkspace{Workspace: ws})); err == nil {
		t.Error("start failure not reported")
	}
}

func TestWatcherRegistration(t *testing.T) {
	reg := &registrar{}
	f := newFixture(t, WithWatcher(reg))
	b := f.open(t, "main.go", goSource)
	f.handle(t, command.CloseBuffer{ID: b.ID()})
	if len(reg.added) != 1 || len(reg.removed) != 1 || reg.added[0] != b.Path() {
		t.Errorf("added %v removed %v", reg.added, reg.removed)
	}
}

type registrar struct {
	added   []string
	removed []string
}

func (r *registrar) Add(path string) error {
	r.added = append(r.added, path)
	return nil
}

func (r *registrar) Remove(path string) error {
	r.removed = append(r.removed, path)
	return nil
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.e.Run(ctx) }()

	path := f.path("main.go")
	if err := f.bus.Submit(command.OpenFile{Path: path}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.bus.Submit(command.LoadBuffer{Path: path, Content: goSource}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if st, ok := f.e.Status().Buffer(path); ok && st.Loaded {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("buffer never loaded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunStopsOnClosedBus(t *testing.T) {
	f := newFixture(t)
	f.bus.Close()
	if err := f.e.Run(context.Background()); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.e.Register("bad", ComponentFunc(func(command.Payload) error {
		panic("boom")
	}))
	f.e.dispatch(command.To("bad", command.ShowCodeActions{}))
	if f.e.Status() == nil {
		t.Error("status missing after panic")
	}
}
