// Package legacy implements filesystem-convention routing: modules and
// controllers are discovered from directory layout instead of explicit
// registration, and raw URL segments are resolved through an ordered
// chain of candidate resolvers.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kodhe/router/internal/artifact"
	"github.com/kodhe/router/internal/observability/logging"
)

const (
	indexEnvelopeHeader = "----- MODULE INDEX v1 -----"
	indexEnvelopeFooter = "----- END MODULE INDEX -----"
)

// ModuleIndex maps module names to their filesystem root paths. A module
// exists when at least one root path contains a controllers directory.
type ModuleIndex struct {
	mu      sync.RWMutex
	modules map[string][]string
	roots   []string
	logger  *logging.Logger
}

// NewModuleIndex creates an empty index over the given module roots.
func NewModuleIndex(roots []string, logger *logging.Logger) *ModuleIndex {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ModuleIndex{
		modules: make(map[string][]string),
		roots:   roots,
		logger:  logger,
	}
}

// Scan rebuilds the index from the filesystem. Each first-level
// directory under a module root that contains a controllers subdirectory
// registers as a module; a module appearing under several roots keeps
// every path.
func (ix *ModuleIndex) Scan() error {
	modules := make(map[string][]string)

	for _, root := range ix.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to scan module root %s: %w", root, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			modulePath := filepath.Join(root, entry.Name())
			info, err := os.Stat(filepath.Join(modulePath, "controllers"))
			if err != nil || !info.IsDir() {
				continue
			}
			modules[entry.Name()] = append(modules[entry.Name()], modulePath)
		}
	}

	ix.mu.Lock()
	ix.modules = modules
	ix.mu.Unlock()

	ix.logger.Debug("module index rebuilt", logging.Int("modules", len(modules)))
	return nil
}

// Has reports whether a module is known.
func (ix *ModuleIndex) Has(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.modules[name]) > 0
}

// Paths returns the root paths registered for a module.
func (ix *ModuleIndex) Paths(name string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	paths := make([]string, len(ix.modules[name]))
	copy(paths, ix.modules[name])
	return paths
}

// Names returns the known module names, sorted.
func (ix *ModuleIndex) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.modules))
	for name := range ix.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invalidate clears the index so the next Load or Scan rebuilds it.
func (ix *ModuleIndex) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.modules = make(map[string][]string)
}

// indexFile is the cache artifact payload.
type indexFile struct {
	Modules   map[string][]string `json:"modules"`
	Total     int                 `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
}

// Save writes the index to its cache artifact atomically.
func (ix *ModuleIndex) Save(path string) error {
	ix.mu.RLock()
	snapshot := indexFile{
		Modules:   ix.modules,
		Total:     len(ix.modules),
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	ix.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to serialize module index: %w", err)
	}
	return artifact.Write(path, indexEnvelopeHeader, indexEnvelopeFooter, payload)
}

// Load restores the index from its cache artifact. A missing or corrupt
// artifact is a cache miss that triggers a fresh Scan.
func (ix *ModuleIndex) Load(path string) error {
	payload, ok, err := artifact.Read(path, indexEnvelopeHeader, indexEnvelopeFooter)
	if err != nil {
		return err
	}
	if ok {
		var snapshot indexFile
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			ix.mu.Lock()
			ix.modules = snapshot.Modules
			if ix.modules == nil {
				ix.modules = make(map[string][]string)
			}
			ix.mu.Unlock()
			return nil
		}
		ix.logger.Warn("module index cache is corrupt; rebuilding", logging.Path(path))
		_ = os.Remove(path)
	}

	return ix.Scan()
}
