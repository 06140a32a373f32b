// Package store manages the working directory for uploaded files and the
// intermediate artifacts (page images, converted PDFs) a processing instance
// creates. Every artifact is tracked in a per-instance manifest so cleanup
// deletes exactly what the instance created and nothing else.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns a working directory shared by all processing instances.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory %s: %v", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the working directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Instance is the artifact set of one processing request. Artifact names are
// namespaced by the instance id, which combines a millisecond timestamp with
// a random suffix so two concurrent requests can never collide.
type Instance struct {
	id    string
	store *Store

	mu    sync.Mutex
	paths []string
}

// NewInstance allocates a fresh instance id and an empty manifest.
func (s *Store) NewInstance() *Instance {
	id := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
	return &Instance{id: id, store: s}
}

// ID returns the instance identifier shared by all of its artifacts.
func (inst *Instance) ID() string {
	return inst.id
}

// Persist writes the uploaded payload under the instance's name with the
// given extension and records it in the manifest.
func (inst *Instance) Persist(data []byte, ext string) (string, error) {
	path := filepath.Join(inst.store.dir, fmt.Sprintf("temp_%s.%s", inst.id, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %v", err)
	}
	inst.Track(path)
	return path, nil
}

// PageBase returns the base path rasterized page images are written under.
// Page files get a zero-padded "-NNN.png" suffix appended by the rasterizer.
func (inst *Instance) PageBase() string {
	return filepath.Join(inst.store.dir, fmt.Sprintf("temp_%s", inst.id))
}

// ConvertedPath returns the path the converted PDF of a DOC/DOCX input is
// written to.
func (inst *Instance) ConvertedPath() string {
	return filepath.Join(inst.store.dir, fmt.Sprintf("temp_%s_converted.pdf", inst.id))
}

// Track adds a path to the instance manifest so Reclaim will delete it.
func (inst *Instance) Track(path string) {
	inst.mu.Lock()
	inst.paths = append(inst.paths, path)
	inst.mu.Unlock()
}

// Reclaim deletes every tracked artifact. Each deletion is attempted
// independently: a missing file or a failed removal never blocks cleanup of
// the remaining artifacts. Reclaim is idempotent.
func (inst *Instance) Reclaim() {
	inst.mu.Lock()
	paths := inst.paths
	inst.paths = nil
	inst.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Error cleaning artifact %s: %v", path, err)
		}
	}
}
