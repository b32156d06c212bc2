// Package memdrive is an in-memory drive.Store. Nothing survives the process.
package memdrive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicolagi/tgdrive/internal/drive"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]drive.Item
	now   func() time.Time
}

func New() *Store {
	return &Store{
		items: make(map[string]drive.Item),
		now:   time.Now,
	}
}

// Put stores it as is, replacing any item with the same id.
func (s *Store) Put(it drive.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
}

func (s *Store) Search(_ context.Context, query string) (map[string]drive.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]drive.Item)
	for id, it := range s.items {
		if drive.Matches(it, query) {
			found[id] = it
		}
	}
	return found, nil
}

func (s *Store) NewFile(_ context.Context, folderPath, name string, messageID, size int64) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	folderPath = drive.NormalizePath(folderPath)
	if !s.folderExists(folderPath) {
		return drive.Item{}, fmt.Errorf("folder %s: %w", folderPath, drive.ErrNotFound)
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFile,
		Name:       name,
		Path:       folderPath,
		Size:       size,
		MessageID:  messageID,
		UploadedAt: s.now(),
	}
	s.items[it.ID] = it
	return it, nil
}

func (s *Store) NewFolder(_ context.Context, parentPath, name string) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parentPath = drive.NormalizePath(parentPath)
	if !s.folderExists(parentPath) {
		return drive.Item{}, fmt.Errorf("folder %s: %w", parentPath, drive.ErrNotFound)
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFolder,
		Name:       name,
		Path:       parentPath,
		UploadedAt: s.now(),
	}
	s.items[it.ID] = it
	return it, nil
}

func (s *Store) List(context.Context) ([]drive.Item, error) {
	s.mu.RLock()
	items := make([]drive.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	s.mu.RUnlock()
	drive.SortTree(items)
	return items, nil
}

func (s *Store) Close() error {
	return nil
}

// folderExists must be called with s.mu held.
func (s *Store) folderExists(path string) bool {
	if path == drive.Root {
		return true
	}
	parent, id := drive.Split(path)
	it, ok := s.items[id]
	return ok && it.Kind == drive.KindFolder && drive.NormalizePath(it.Path) == parent
}
