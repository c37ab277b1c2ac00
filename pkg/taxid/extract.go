package taxid

import (
	"fmt"
	"io"

	"streamfile/pkg/filex"
	"streamfile/pkg/lines"
)

// Extract copies the record a "file:offset;length" target points at to w.
// A target without offset and length copies the whole file.
func Extract(c *filex.Cache, target string, w io.Writer) (int64, error) {
	path, offset, length := lines.SplitTarget(target)

	h, err := c.Open(path, "r")
	if err != nil {
		return 0, err
	}
	defer c.Release(h)

	if _, err := h.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("extract %s: %w", target, err)
	}

	buf := make([]byte, 32*1024)
	var copied int64
	for length <= 0 || copied < length {
		want := len(buf)
		if length > 0 && length-copied < int64(want) {
			want = int(length - copied)
		}
		n, rerr := filex.ReadItems(h, buf[:want], 1)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return copied, err
			}
			copied += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return copied, fmt.Errorf("extract %s: %w", target, rerr)
		}
	}
	if length > 0 && copied < length {
		return copied, fmt.Errorf("extract %s: %w", target, io.ErrUnexpectedEOF)
	}
	return copied, nil
}
