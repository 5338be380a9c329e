package vfs

import (
	"io/fs"
	"path"
	"sort"
	"sync"
)

// MemFS implements FS in memory. It is used by tests.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu     sync.RWMutex
	files  map[string]*memFile
	writes int
}

type memFile struct {
	content []byte
	mode    fs.FileMode
}

// NewMemFS creates a new in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile)}
}

// Ensure MemFS implements FS.
var _ FS = (*MemFS)(nil)

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(filePath string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[path.Clean(filePath)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: filePath, Err: fs.ErrNotExist}
	}

	// Return a copy to prevent modification
	content := make([]byte, len(f.content))
	copy(content, f.content)
	return content, nil
}

// WriteFile writes data to a file, creating it if necessary.
func (m *MemFS) WriteFile(filePath string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := make([]byte, len(data))
	copy(content, data)
	m.files[path.Clean(filePath)] = &memFile{content: content, mode: perm}
	m.writes++
	return nil
}

// Mode returns the permission bits of path.
func (m *MemFS) Mode(filePath string) (fs.FileMode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[path.Clean(filePath)]
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: filePath, Err: fs.ErrNotExist}
	}
	return f.mode, nil
}

// AddFile is a convenience method for adding files during setup. It does
// not count as a write.
func (m *MemFS) AddFile(filePath string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(filePath)] = &memFile{content: []byte(content), mode: DefaultPerm}
}

// Writes returns how many times WriteFile was called.
func (m *MemFS) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Files returns all file paths in the file system.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]string, 0, len(m.files))
	for f := range m.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
