// Package proxy is the client facade for the process that owns file I/O and
// language intelligence. Every request returns immediately; results come
// back later as commands on a sink, tagged with the revision they were
// computed for.
package proxy

import (
	"context"
	"errors"

	"go.lsp.dev/protocol"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/engine/buffer"
	"github.com/cybernobie/lapce/internal/revision"
	"github.com/cybernobie/lapce/internal/workspace"
)

var (
	// ErrNotStarted is returned when a request arrives before Start.
	ErrNotStarted = errors.New("proxy not started")

	// ErrRemoteUnsupported is returned when a proxy cannot serve a remote
	// workspace.
	ErrRemoteUnsupported = errors.New("remote workspaces are not supported")
)

// Document is the by-value view of a buffer a request is computed against.
type Document = buffer.Snapshot

// Proxy is the request surface the editor loop uses.
type Proxy interface {
	// Start binds the proxy to a workspace, replacing any previous one.
	// Results of later requests are sent to sink.
	Start(ctx context.Context, ws workspace.Workspace, sink command.Sink) error

	// RetrieveFile loads path and answers with LoadBuffer or LoadFailed on
	// the given sink, or on the started sink when it is nil.
	RetrieveFile(id buffer.ID, path string, sink command.Sink)

	// ReloadFile reads path again and answers with ReloadBuffer tagged rev.
	ReloadFile(id buffer.ID, path string, rev revision.Revision)

	// RequestDiagnostics answers with PublishDiagnostics.
	RequestDiagnostics(doc Document)

	// RequestSemanticTokens answers with UpdateSemanticTokens.
	RequestSemanticTokens(doc Document)

	// RequestCodeActions answers with UpdateCodeActions for offset.
	RequestCodeActions(doc Document, offset buffer.ByteOffset, pos protocol.Position)

	// FormatAndSave answers with DocumentFormatAndSave.
	FormatAndSave(doc Document)

	// Save writes the document and answers with BufferSave.
	Save(doc Document)
}
