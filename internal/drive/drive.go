// Package drive defines the hierarchical file and folder index the bot files
// uploads into, together with the path conventions shared by every backend.
//
// Folders and files live in a tree whose paths are chains of folder ids, not
// names: a file filed under folder F2, itself inside folder A1, has the path
// "/A1/F2". Names are display strings and may collide freely.
package drive

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tells folders from files.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Root is the path of the top-level folder. It always exists.
const Root = "/"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid name")
)

// Item is a folder or a file in the index.
type Item struct {
	ID   string
	Kind Kind
	Name string
	// Path is the chain of ancestor folder ids, "/" for top-level items.
	Path string
	// Size and MessageID are only meaningful for files. MessageID refers to
	// the copy held in the storage channel.
	Size       int64
	MessageID  int64
	UploadedAt time.Time
}

// FolderPath is the path that items filed inside this folder carry.
func (it Item) FolderPath() string {
	return ResolvePath(it.Path, it.ID)
}

// Candidate is a folder offered to a user for selection.
type Candidate struct {
	ID   string
	Name string
	Path string
}

// Store is the index. Implementations must be safe for concurrent use.
type Store interface {
	// Search returns the items whose name or path contains query, case
	// insensitively, keyed by id.
	Search(ctx context.Context, query string) (map[string]Item, error)
	// NewFile records a file under the folder at folderPath. The folder must
	// exist.
	NewFile(ctx context.Context, folderPath, name string, messageID, size int64) (Item, error)
	// NewFolder creates a folder under parentPath. The parent must exist.
	NewFolder(ctx context.Context, parentPath, name string) (Item, error)
	// List returns every item, parents before children.
	List(ctx context.Context) ([]Item, error)
	Close() error
}

// NewID returns a fresh item id. Ids never contain an underscore, which the
// bot uses as a field separator in button payloads.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidID reports whether id can be embedded in a path and a button payload.
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "_/")
}

// ResolvePath appends id to path, normalizing slashes: ("/docs/", "F2")
// yields "/docs/F2" and ("/", "F2") yields "/F2".
func ResolvePath(path, id string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "/" + id
	}
	return "/" + path + "/" + id
}

// NormalizePath cleans a folder path to the "/a/b" form, "/" for the root.
func NormalizePath(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return Root
	}
	return "/" + path
}

// Split returns the parent path and the id of the folder at path. The root
// has no id.
func Split(path string) (parent, id string) {
	path = NormalizePath(path)
	if path == Root {
		return "", ""
	}
	i := strings.LastIndexByte(path, '/')
	return NormalizePath(path[:i]), path[i+1:]
}

// Depth is the number of ids in path.
func Depth(path string) int {
	path = NormalizePath(path)
	if path == Root {
		return 0
	}
	return strings.Count(path, "/")
}

// Matches is the search predicate every backend applies.
func Matches(it Item, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Path), q)
}

// ValidateName rejects names the index cannot store.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

// Folders narrows search results to folders and turns them into candidates,
// ordered by name then id.
func Folders(items map[string]Item) []Candidate {
	var out []Candidate
	for _, it := range items {
		if it.Kind != KindFolder {
			continue
		}
		out = append(out, Candidate{ID: it.ID, Name: it.Name, Path: it.Path})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortTree orders items parents first, then by name.
func SortTree(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := Depth(items[i].Path), Depth(items[j].Path)
		if di != dj {
			return di < dj
		}
		return items[i].Name < items[j].Name
	})
}
