// Package workspace describes the folder an editor session works in.
package workspace

import (
	"fmt"
	"path/filepath"
)

// Kind distinguishes where a workspace lives.
type Kind uint8

const (
	// Local is a folder on this machine.
	Local Kind = iota
	// Remote is a folder reached through a remote proxy.
	Remote
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Workspace is a comparable value; two workspaces are the same iff they are
// equal.
type Workspace struct {
	Kind Kind
	Path string

	// Host is set for remote workspaces.
	Host string
}

// NewLocal returns a local workspace rooted at path.
func NewLocal(path string) Workspace {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Workspace{Kind: Local, Path: filepath.Clean(path)}
}

// IsZero reports whether no workspace is set.
func (w Workspace) IsZero() bool {
	return w == Workspace{}
}

// String returns a printable description.
func (w Workspace) String() string {
	if w.Kind == Remote {
		return fmt.Sprintf("%s:%s", w.Host, w.Path)
	}
	return w.Path
}
