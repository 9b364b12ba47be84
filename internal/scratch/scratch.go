// Package scratch manages request-scoped temporary files. Every request
// gets uniquely named input and audio paths under the scratch directory;
// release is best-effort and idempotent so cleanup can run on every exit
// path without caring which files were actually created.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// prefix namespaces scratch files so stray ones are identifiable.
const prefix = "chapters-"

// Paths holds the scratch files for one request.
type Paths struct {
	// Input receives the uploaded media bytes.
	Input string

	// Audio receives the extracted mono MP3.
	Audio string
}

// Manager allocates and releases scratch paths.
type Manager struct {
	dir string
}

// NewManager creates a Manager rooted at dir. Empty dir means the
// platform temp directory.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{dir: dir}
}

// Dir returns the scratch directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Allocate returns a unique pair of scratch paths for one request.
// Only the names are reserved; no files are created. Two concurrent
// requests never share a path: the token is a random UUID.
func (m *Manager) Allocate() Paths {
	token := uuid.NewString()
	return Paths{
		Input: filepath.Join(m.dir, fmt.Sprintf("%s%s-input", prefix, token)),
		Audio: filepath.Join(m.dir, fmt.Sprintf("%s%s-audio.mp3", prefix, token)),
	}
}

// Release deletes the request's scratch files. Deletion is best-effort:
// absent files are not an error, and Release may be called again safely.
func (m *Manager) Release(p Paths) {
	for _, path := range []string{p.Input, p.Audio} {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}
