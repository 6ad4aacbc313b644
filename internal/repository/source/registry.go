package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/sitesearch/internal/domain"
	domsrc "github.com/kailas-cloud/sitesearch/internal/domain/source"
)

// Manifest describes the record classes of one external package.
type Manifest struct {
	Classes map[string]ClassEntry `yaml:"classes"`
}

// ClassEntry maps a class to its table.
type ClassEntry struct {
	Table string `yaml:"table"`
}

// Registry is the typed set of known external sources. Unknown classes are
// looked up in "<package path>/<package>.yaml" until that manifest loads
// successfully.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]domsrc.Source
	loaded  map[string]bool
	paths   domsrc.Paths
	logger  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(paths domsrc.Paths, logger *zap.Logger) *Registry {
	return &Registry{
		sources: make(map[string]domsrc.Source),
		loaded:  make(map[string]bool),
		paths:   paths,
		logger:  logger,
	}
}

// Register adds or replaces a source.
func (r *Registry) Register(s domsrc.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Class()] = s
}

// Lookup returns a registered source by class.
func (r *Registry) Lookup(class string) (domsrc.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[class]
	return s, ok
}

// Resolve returns the source a descriptor refers to, loading the package
// manifest when the class is not registered yet.
func (r *Registry) Resolve(d domsrc.Descriptor) (domsrc.Source, error) {
	if s, ok := r.Lookup(d.Class()); ok {
		return s, nil
	}
	if d.Package() == "" || d.Path() == "" {
		return domsrc.Source{}, fmt.Errorf("%w: %s", domain.ErrUnknownSource, d.Class())
	}

	file := filepath.Join(domsrc.ResolvePath(d.Path(), r.paths), d.Package()+".yaml")

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[d.Class()]; ok {
		return s, nil
	}
	if !r.loaded[file] {
		if err := r.loadLocked(file, d.Package()); err != nil {
			return domsrc.Source{}, err
		}
		r.loaded[file] = true
	}
	s, ok := r.sources[d.Class()]
	if !ok {
		return domsrc.Source{}, fmt.Errorf("%w: %s not in package %s", domain.ErrUnknownSource, d.Class(), d.Package())
	}
	return s, nil
}

func (r *Registry) loadLocked(file, pkg string) error {
	m, err := LoadManifest(file)
	if err != nil {
		return err
	}
	for class, entry := range m.Classes {
		s, err := domsrc.New(class, entry.Table, pkg)
		if err != nil {
			r.logger.Warn("Skipping invalid source class",
				zap.String("package", pkg), zap.String("class", class), zap.Error(err))
			continue
		}
		r.sources[class] = s
	}
	r.logger.Debug("Loaded source package", zap.String("package", pkg), zap.Int("classes", len(m.Classes)))
	return nil
}

// LoadManifest reads a package manifest.
func LoadManifest(file string) (Manifest, error) {
	data, err := os.ReadFile(file) //nolint:gosec // manifest path comes from trusted configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: manifest %s not found", domain.ErrUnknownSource, file)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", file, err)
	}
	return m, nil
}
