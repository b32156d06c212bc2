package ninep

import (
	"io"

	"github.com/lionkov/go9p/p/srv"
)

// content is a read-only in-memory file node, implementing io.ReaderAt,
// srv.FReadOp and srv.FStatOp.
type content struct {
	buffer []byte
}

// newContent does not retain b.
func newContent(b []byte) *content {
	c := &content{buffer: make([]byte, len(b))}
	copy(c.buffer, b)
	return c
}

func (c *content) Size() int64 {
	return int64(len(c.buffer))
}

// ReadAt implements io.ReaderAt.
func (c *content) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= c.Size() {
		return 0, io.EOF
	}
	n = copy(p, c.buffer[off:])
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Read implements srv.FReadOp.
func (c *content) Read(_ *srv.FFid, buf []byte, offset uint64) (int, error) {
	n, err := c.ReadAt(buf, int64(offset))
	// No Rerror at end of file.
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// Stat implements srv.FStatOp.
func (c *content) Stat(fid *srv.FFid) error {
	fid.F.Length = uint64(c.Size())
	return nil
}
