package archive

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
)

// part is one volume of a split archive.
type part struct {
	r    io.ReaderAt
	size int64
}

// volumeReaderAt presents the volumes of a split archive as one byte range.
type volumeReaderAt struct {
	parts []part
	total int64
}

func newVolumeReaderAt(parts []part) *volumeReaderAt {
	var total int64
	for _, p := range parts {
		total += p.size
	}
	return &volumeReaderAt{parts: parts, total: total}
}

func (v *volumeReaderAt) Size() int64 { return v.total }

func (v *volumeReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= v.total {
		return 0, io.EOF
	}

	idx := 0
	for idx < len(v.parts) && off >= v.parts[idx].size {
		off -= v.parts[idx].size
		idx++
	}

	read := 0
	for idx < len(v.parts) && read < len(p) {
		pt := v.parts[idx]
		want := int64(len(p) - read)
		if avail := pt.size - off; want > avail {
			want = avail
		}
		n, err := pt.r.ReadAt(p[read:read+int(want)], off)
		read += n
		if err != nil && err != io.EOF {
			return read, err
		}
		if int64(n) < want {
			break
		}
		idx++
		off = 0
	}

	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

// openVolumes opens path, or the numbered volumes path.001, path.002, ...
// when path itself does not exist.
func openVolumes(fs afero.Fs, path string) ([]afero.File, *volumeReaderAt, error) {
	names := []string{path}
	if ok, _ := afero.Exists(fs, path); !ok {
		names = names[:0]
		for i := 1; ; i++ {
			vol := fmt.Sprintf("%s.%03d", path, i)
			if ok, _ := afero.Exists(fs, vol); !ok {
				break
			}
			names = append(names, vol)
		}
		if len(names) == 0 {
			return nil, nil, fmt.Errorf("%w: %s", fserr.ErrNotFound, path)
		}
	}

	var (
		files []afero.File
		parts []part
	)
	for _, name := range names {
		f, err := fs.Open(name)
		if err != nil {
			closeAll(files)
			return nil, nil, fmt.Errorf("%w: %w", fserr.ErrNotFound, err)
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			closeAll(files)
			return nil, nil, fmt.Errorf("%w: %w", fserr.ErrNotFound, err)
		}
		files = append(files, f)
		parts = append(parts, part{r: f, size: fi.Size()})
	}
	return files, newVolumeReaderAt(parts), nil
}

func closeAll(files []afero.File) {
	for _, f := range files {
		f.Close()
	}
}

// readAhead serves small reads from a window filled with one larger read.
type readAhead struct {
	r      io.ReaderAt
	size   int64
	buf    []byte
	bufOff int64
	bufLen int
}

func newReadAhead(r io.ReaderAt, size int64, window int) *readAhead {
	return &readAhead{r: r, size: size, buf: make([]byte, window), bufOff: -1}
}

func (ra *readAhead) ReadAt(p []byte, off int64) (int, error) {
	if len(p) >= len(ra.buf) {
		return ra.r.ReadAt(p, off)
	}
	if ra.bufOff < 0 || off < ra.bufOff || off+int64(len(p)) > ra.bufOff+int64(ra.bufLen) {
		if off >= ra.size {
			return 0, io.EOF
		}
		n, err := ra.r.ReadAt(ra.buf, off)
		if err != nil && err != io.EOF {
			ra.bufOff = -1
			return 0, err
		}
		ra.bufOff, ra.bufLen = off, n
	}
	n := copy(p, ra.buf[off-ra.bufOff:ra.bufLen])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
