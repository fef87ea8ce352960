// Package repo resolves resources across the RPKG archives of a game
// runtime directory.
//
// Archives are layered in load order: each chunk or dlc base archive is
// followed by its patches, ascending. A later archive overrides resources of
// earlier ones and its deletion list retires ids they provided.
package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
)

// ErrNotFound is returned for ids no loaded archive provides.
var ErrNotFound = errors.New("resource not found")

// Graph handles resource lookup across RPKG archives.
type Graph struct {
	archives []*rpkg.Reader
	owner    map[rid.ID]int // id -> index of the archive providing it
	cache    *Cache
	log      *zap.Logger
	mu       sync.RWMutex
}

// New creates an empty graph.
func New(log *zap.Logger) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{
		owner: make(map[rid.ID]int),
		cache: NewCache(),
		log:   log,
	}
}

// Open loads every chunk, dlc and patch archive in dir in load order.
func Open(dir string, log *zap.Logger) (*Graph, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+rpkg.Extension))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	g := New(log)
	ordered, skipped := SortArchives(paths)
	for _, p := range skipped {
		g.log.Warn("skipping archive with unrecognised name", zap.String("path", p))
	}
	for _, p := range ordered {
		if err := g.AddArchive(p); err != nil {
			g.Close()
			return nil, err
		}
	}
	g.log.Info("resource graph loaded",
		zap.String("dir", dir),
		zap.Int("archives", len(ordered)),
		zap.Int("resources", g.Len()))
	return g, nil
}

// AddArchive layers an archive on top of those already loaded.
// Its deletion list is applied before its own resources.
func (g *Graph) AddArchive(path string) error {
	archive, err := rpkg.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx := len(g.archives)
	g.archives = append(g.archives, archive)

	for _, id := range archive.Deletions() {
		delete(g.owner, id)
		g.cache.Delete(id)
	}
	for _, id := range archive.List() {
		g.owner[id] = idx
		g.cache.Delete(id)
	}

	g.log.Debug("archive added",
		zap.String("name", archive.Name()),
		zap.Int("resources", len(archive.List())),
		zap.Int("deletions", len(archive.Deletions())))
	return nil
}

// Close closes all archives.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, archive := range g.archives {
		archive.Close()
	}
	g.archives = nil
	g.owner = make(map[rid.ID]int)
	g.cache.Clear()
}

// Len returns the number of live resources.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.owner)
}

// Archives returns the loaded archive names in load order.
func (g *Graph) Archives() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, len(g.archives))
	for i, a := range g.archives {
		names[i] = a.Name()
	}
	return names
}

// CacheStats returns resource cache hits and misses.
func (g *Graph) CacheStats() (hits, misses int) {
	return g.cache.Stats()
}

func (g *Graph) lookup(id rid.ID) (*rpkg.Reader, *rpkg.Entry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.owner[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	archive := g.archives[idx]
	entry, _ := archive.Entry(id)
	return archive, entry, nil
}

// Contains reports whether id resolves to a live resource.
func (g *Graph) Contains(id rid.ID) bool {
	_, _, err := g.lookup(id)
	return err == nil
}

// ResourceType returns the four character type tag of id.
func (g *Graph) ResourceType(id rid.ID) (string, error) {
	_, entry, err := g.lookup(id)
	if err != nil {
		return "", err
	}
	return entry.Type, nil
}

// Resource returns the decompressed bytes of id.
func (g *Graph) Resource(id rid.ID) ([]byte, error) {
	if data, ok := g.cache.Get(id); ok {
		return data, nil
	}

	archive, _, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	data, err := archive.Read(id)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", id, archive.Name(), err)
	}
	g.cache.Set(id, data)
	return data, nil
}

// References returns the outgoing references of id, restricted to the
// given types when any are passed. Order is preserved.
func (g *Graph) References(id rid.ID, types ...string) ([]rpkg.Reference, error) {
	_, entry, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return append([]rpkg.Reference(nil), entry.References...), nil
	}

	var refs []rpkg.Reference
	for _, ref := range entry.References {
		for _, t := range types {
			if ref.Type == t {
				refs = append(refs, ref)
				break
			}
		}
	}
	return refs, nil
}

// IDsByType returns the sorted ids of every live resource of type typ.
func (g *Graph) IDsByType(typ string) []rid.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []rid.ID
	for id, idx := range g.owner {
		if entry, ok := g.archives[idx].Entry(id); ok && entry.Type == typ {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SourceStreamName returns the name of the archive providing id.
func (g *Graph) SourceStreamName(id rid.ID) (string, error) {
	archive, _, err := g.lookup(id)
	if err != nil {
		return "", err
	}
	return archive.Name(), nil
}
