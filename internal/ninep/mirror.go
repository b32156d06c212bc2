package ninep

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicolagi/tgdrive/internal/drive"
)

// Mirror is a drive.Store that keeps a Tree in step with the writes it
// forwards to the underlying store.
type Mirror struct {
	drive.Store
	tree *Tree
}

func NewMirror(store drive.Store, tree *Tree) *Mirror {
	return &Mirror{Store: store, tree: tree}
}

func (m *Mirror) NewFile(ctx context.Context, folderPath, name string, messageID, size int64) (drive.Item, error) {
	it, err := m.Store.NewFile(ctx, folderPath, name, messageID, size)
	if err == nil {
		m.add(it)
	}
	return it, err
}

func (m *Mirror) NewFolder(ctx context.Context, parentPath, name string) (drive.Item, error) {
	it, err := m.Store.NewFolder(ctx, parentPath, name)
	if err == nil {
		m.add(it)
	}
	return it, err
}

// add logs tree failures instead of failing the write.
func (m *Mirror) add(it drive.Item) {
	if err := m.tree.Add(it); err != nil {
		m.tree.log.Warn("item left out of the 9P tree", zap.String("id", it.ID), zap.Error(err))
	}
}
