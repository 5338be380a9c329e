// Package vfs provides the file system abstraction used to load and save
// buffers.
//
// The FS interface allows swapping the underlying implementation, so the
// proxy can run against an in-memory file system in tests.
package vfs

import (
	"io/fs"
)

// FS is the set of file operations buffers need.
type FS interface {
	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file content, creating it if necessary.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Mode returns the permission bits of an existing file.
	Mode(path string) (fs.FileMode, error)
}

// DefaultPerm is used when saving a file that does not exist yet.
const DefaultPerm fs.FileMode = 0o644
