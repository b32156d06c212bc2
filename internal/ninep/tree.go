// Package ninep exports the drive index as a read-only 9P file system.
//
// Folders are directories named "<name>@<id>", since folder names may
// collide. Files are plain files holding a description of the indexed
// upload: size, storage message id and upload time.
package ninep

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/lionkov/go9p/p"
	"github.com/lionkov/go9p/p/srv"
	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/logging"
)

// Tree mirrors the index in 9P nodes.
type Tree struct {
	user  p.User
	group p.Group
	log   *zap.Logger

	mu   sync.Mutex
	root *srv.File
	// dirs maps folder paths to directory nodes, "/" to the root.
	dirs map[string]*srv.File
}

// NewTree builds a tree holding items. The user and group owning every node
// are the ones running the process.
func NewTree(items []drive.Item, logger *zap.Logger) (*Tree, error) {
	t := &Tree{
		user:  p.OsUsers.Uid2User(os.Getuid()),
		group: p.OsUsers.Gid2Group(os.Getgid()),
		log:   logging.OrNop(logger),
		root:  new(srv.File),
		dirs:  make(map[string]*srv.File),
	}
	if err := t.root.Add(nil, "/", t.user, t.group, p.DMDIR|0500, nil); err != nil {
		return nil, fmt.Errorf("ninep: root: %w", err)
	}
	t.dirs[drive.Root] = t.root

	sorted := append([]drive.Item(nil), items...)
	drive.SortTree(sorted)
	for _, it := range sorted {
		if err := t.Add(it); err != nil {
			t.log.Warn("item left out of the 9P tree", zap.String("id", it.ID), zap.Error(err))
		}
	}
	return t, nil
}

// Add inserts a node for it under its parent folder, which must already be
// in the tree.
func (t *Tree) Add(it drive.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	parentPath := drive.NormalizePath(it.Path)
	parent, ok := t.dirs[parentPath]
	if !ok {
		return fmt.Errorf("parent %s: %w", parentPath, drive.ErrNotFound)
	}
	f := new(srv.File)
	switch it.Kind {
	case drive.KindFolder:
		if err := f.Add(parent, nodeName(it.Name)+"@"+it.ID, t.user, t.group, p.DMDIR|0500, nil); err != nil {
			return err
		}
		t.dirs[it.FolderPath()] = f
	case drive.KindFile:
		name := nodeName(it.Name)
		if parent.Find(name) != nil {
			name += "@" + it.ID
		}
		if err := f.Add(parent, name, t.user, t.group, 0400, newContent(describe(it))); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown kind %q", it.Kind)
	}
	// Set after Add, which overwrites them.
	if !it.UploadedAt.IsZero() {
		f.Mtime = uint32(it.UploadedAt.Unix())
		f.Atime = f.Mtime
	}
	return nil
}

// Lookup walks a slash-separated node path from the root.
func (t *Tree) Lookup(path string) *srv.File {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.root
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if name == "" {
			continue
		}
		if f = f.Find(name); f == nil {
			return nil
		}
	}
	return f
}

// Serve exports the tree on addr until ctx is done.
func (t *Tree) Serve(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ninep: %w", err)
	}
	fsrv := srv.NewFileSrv(t.root)
	fsrv.Dotu = false
	fsrv.Start(fsrv)
	fsrv.Id = "tgdrive"
	t.log.Info("serving 9P", zap.String("addr", l.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	err = fsrv.StartListener(l)
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func describe(it drive.Item) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "id %s\n", it.ID)
	fmt.Fprintf(&b, "name %s\n", it.Name)
	fmt.Fprintf(&b, "folder %s\n", drive.NormalizePath(it.Path))
	fmt.Fprintf(&b, "size %d\n", it.Size)
	fmt.Fprintf(&b, "message %d\n", it.MessageID)
	if !it.UploadedAt.IsZero() {
		fmt.Fprintf(&b, "uploaded %s\n", it.UploadedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return []byte(b.String())
}

// nodeName makes a display name usable as a 9P file name.
func nodeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", "-")
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
