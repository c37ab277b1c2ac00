package filex

import (
	"fmt"
	"io"
)

// ReadItems fills p with whole items of size bytes and returns how many
// were read. A short count comes with io.EOF; bytes of a trailing partial
// item are consumed but not counted.
func ReadItems(r io.Reader, p []byte, size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("read items: invalid item size %d", size)
	}
	want := len(p) / size * size
	if want == 0 {
		return 0, nil
	}
	n, err := io.ReadFull(r, p[:want])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n / size, err
}
