package schema

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store is the process-wide (db, table) → *Tree registry (spec.md's
// "schema-tree map"). Entries are created on first access and owned by
// the Store until Destroy. Concurrent GetDefinedTree calls for the
// same (db, table) are collapsed onto a single disk load by the
// embedded singleflight.Group, so a stampede of readers hitting a
// cold table only pays one os.ReadFile + Decode.
type Store struct {
	mu    sync.RWMutex
	trees map[string]*Tree
	group singleflight.Group
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{trees: map[string]*Tree{}}
}

func storeKey(db, table string) string { return db + "\x00" + table }

// GetDefinedTree returns the cached tree for (db, table). If none is
// cached, it loads the on-disk image at imagePath. A missing image is
// not an error: it reports "not defined" as (nil, nil), matching
// spec.md's three-way get_defined_tree contract.
func (s *Store) GetDefinedTree(db, table, imagePath string) (*Tree, error) {
	k := storeKey(db, table)

	s.mu.RLock()
	if t, ok := s.trees[k]; ok {
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(k, func() (interface{}, error) {
		s.mu.RLock()
		if t, ok := s.trees[k]; ok {
			s.mu.RUnlock()
			return t, nil
		}
		s.mu.RUnlock()

		data, err := os.ReadFile(imagePath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("schema: load %s: %w", imagePath, err)
		}
		tree, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("schema: decode %s: %w", imagePath, err)
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	tree := v.(*Tree)

	s.mu.Lock()
	s.trees[k] = tree
	s.mu.Unlock()
	return tree, nil
}

// Put installs t as the cached tree for (db, table), e.g. right after
// it was created on first write.
func (s *Store) Put(db, table string, t *Tree) {
	s.mu.Lock()
	s.trees[storeKey(db, table)] = t
	s.mu.Unlock()
}

// Evict drops a single (db, table) entry, e.g. on drop table.
func (s *Store) Evict(db, table string) {
	s.mu.Lock()
	delete(s.trees, storeKey(db, table))
	s.mu.Unlock()
}

// Destroy frees every cached tree. Safe to call at shutdown.
func (s *Store) Destroy() {
	s.mu.Lock()
	s.trees = map[string]*Tree{}
	s.mu.Unlock()
}
