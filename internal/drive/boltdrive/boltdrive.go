// Package boltdrive keeps the drive index in a Bolt database file.
//
// All items live in a single bucket keyed by id. Values are msgpack-encoded
// records. Searches scan the bucket, which is fine for the few thousand items
// a personal drive holds.
package boltdrive

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nicolagi/tgdrive/internal/drive"
)

var itemsBucket = []byte("items")

// record is the on-disk form of a drive.Item.
type record struct {
	ID         string    `msgpack:"id"`
	Kind       string    `msgpack:"kind"`
	Name       string    `msgpack:"name"`
	Path       string    `msgpack:"path"`
	Size       int64     `msgpack:"size,omitempty"`
	MessageID  int64     `msgpack:"message_id,omitempty"`
	UploadedAt time.Time `msgpack:"uploaded_at"`
}

type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path and makes sure the
// bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(itemsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Search(_ context.Context, query string) (map[string]drive.Item, error) {
	found := make(map[string]drive.Item)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).ForEach(func(k, v []byte) error {
			it, err := decode(v)
			if err != nil {
				return fmt.Errorf("item %s: %w", k, err)
			}
			if drive.Matches(it, query) {
				found[it.ID] = it
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Store) NewFile(_ context.Context, folderPath, name string, messageID, size int64) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFile,
		Name:       name,
		Path:       drive.NormalizePath(folderPath),
		Size:       size,
		MessageID:  messageID,
		UploadedAt: time.Now().UTC(),
	}
	return it, s.insert(it)
}

func (s *Store) NewFolder(_ context.Context, parentPath, name string) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFolder,
		Name:       name,
		Path:       drive.NormalizePath(parentPath),
		UploadedAt: time.Now().UTC(),
	}
	return it, s.insert(it)
}

func (s *Store) List(context.Context) ([]drive.Item, error) {
	var items []drive.Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).ForEach(func(k, v []byte) error {
			it, err := decode(v)
			if err != nil {
				return fmt.Errorf("item %s: %w", k, err)
			}
			items = append(items, it)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	drive.SortTree(items)
	return items, nil
}

// insert checks the parent folder and stores it in the same transaction.
func (s *Store) insert(it drive.Item) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		if !folderExists(b, it.Path) {
			return fmt.Errorf("folder %s: %w", it.Path, drive.ErrNotFound)
		}
		v, err := encode(it)
		if err != nil {
			return err
		}
		return b.Put([]byte(it.ID), v)
	})
}

func folderExists(b *bolt.Bucket, path string) bool {
	if path == drive.Root {
		return true
	}
	parent, id := drive.Split(path)
	v := b.Get([]byte(id))
	if v == nil {
		return false
	}
	it, err := decode(v)
	return err == nil && it.Kind == drive.KindFolder && drive.NormalizePath(it.Path) == parent
}

func encode(it drive.Item) ([]byte, error) {
	return msgpack.Marshal(&record{
		ID:         it.ID,
		Kind:       string(it.Kind),
		Name:       it.Name,
		Path:       it.Path,
		Size:       it.Size,
		MessageID:  it.MessageID,
		UploadedAt: it.UploadedAt,
	})
}

func decode(v []byte) (drive.Item, error) {
	var r record
	if err := msgpack.Unmarshal(v, &r); err != nil {
		return drive.Item{}, err
	}
	return drive.Item{
		ID:         r.ID,
		Kind:       drive.Kind(r.Kind),
		Name:       r.Name,
		Path:       r.Path,
		Size:       r.Size,
		MessageID:  r.MessageID,
		UploadedAt: r.UploadedAt,
	}, nil
}
