package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cybernobie/lapce/internal/app"
	"github.com/cybernobie/lapce/internal/editor"
	"github.com/cybernobie/lapce/internal/workspace"
)

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lapce.toml")
	if err := os.WriteFile(path, []byte("[highlight]\nworkers = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--config", path, "--log-level", "debug"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"workers = 4", "level = 'debug'"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigCommandInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lapce.toml")
	if err := os.WriteFile(path, []byte("[nope]\nx = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "-c", path})
	if err := cmd.Execute(); err == nil {
		t.Error("unknown section accepted")
	}
}

func TestTallyReport(t *testing.T) {
	tl := newTally()
	tl.Invalidate(editor.Invalidation{Kind: editor.TextLayout})
	tl.Invalidate(editor.Invalidation{Kind: editor.TextLayout})
	tl.Invalidate(editor.Invalidation{Kind: editor.Cursor})

	st := &editor.Status{
		Workspace: workspace.NewLocal("/tmp/ws"),
		Errors:    1,
		Buffers: []editor.BufferStatus{
			{Path: "/tmp/ws/main.go", Language: "Go", Loaded: true, Dirty: true, Diagnostics: 1},
		},
	}
	var out bytes.Buffer
	tl.report(&out, st, app.MetricsSnapshot{Commands: 3, Uptime: time.Second})

	got := out.String()
	for _, want := range []string{
		"workspace /tmp/ws: 1 buffers, 1 errors, 0 warnings",
		"/tmp/ws/main.go [Go] rev 0, 1 diagnostics, dirty",
		"text-layout=2",
		"cursor=1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}
