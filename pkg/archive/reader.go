package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
	"streamfile/pkg/lines"
	"streamfile/pkg/logger"
)

// Reader reads one archive entry. Only the current block is held in memory.
type Reader struct {
	name   string
	index  *Index
	entry  int
	cursor BlockCursor

	block   []byte // view of the current block
	base    int64  // entry offset of block[0]
	off     int    // read position inside block
	started bool
	done    bool
}

// Open opens entry inside the 7z archive at archivePath.
func Open(fs afero.Fs, archivePath, entry, mode string, opts Options) (*Reader, error) {
	if err := fserr.CheckMode(mode); err != nil {
		return nil, err
	}
	ix, i, err := Locate(fs, archivePath, entry, opts)
	if err != nil {
		return nil, err
	}
	return NewReader(archivePath+EntrySeparator+entry, ix, i), nil
}

// OpenAddress opens an entry given as "archive!/entry".
func OpenAddress(fs afero.Fs, addr, mode string, opts Options) (*Reader, error) {
	archivePath, entry, err := SplitEntryAddress(addr)
	if err != nil {
		return nil, err
	}
	return Open(fs, archivePath, entry, mode, opts)
}

// NewReader reads entry i of ix. The reader takes ownership of ix.
func NewReader(name string, ix *Index, i int) *Reader {
	return &Reader{name: name, index: ix, entry: i, cursor: BlockCursor{Entry: i}}
}

// Name returns the entry address.
func (r *Reader) Name() string { return r.name }

// Position returns the offset of the next byte to be read.
func (r *Reader) Position() int64 {
	return r.base + int64(r.off)
}

func (r *Reader) nextBlock() error {
	if r.index == nil {
		return os.ErrClosed
	}
	if r.started {
		r.base += int64(len(r.block))
	}
	b, err := r.index.engine.Extract(r.entry, &r.cursor)
	if err != nil {
		return err
	}
	r.started = true
	r.block = b.Bytes()
	r.off = 0
	if len(r.block) == 0 {
		r.done = true
	}
	return nil
}

// restart rewinds extraction to the first byte of the entry.
func (r *Reader) restart() {
	r.index.engine.FreeCursor(&r.cursor)
	r.block = nil
	r.base = 0
	r.off = 0
	r.started = false
	r.done = false
}

// Read copies from the current block. When the block is used up the next
// one is extracted; a read never spans two blocks.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for r.off >= len(r.block) {
		if r.done {
			return 0, io.EOF
		}
		if err := r.nextBlock(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.block[r.off:])
	r.off += n
	return n, nil
}

// Seek supports io.SeekStart only. Targets before the current block
// restart extraction; targets after it extract forward until reached.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.index == nil {
		return 0, os.ErrClosed
	}
	if whence != io.SeekStart {
		return r.Position(), fmt.Errorf("seek %s: whence %d: %w", r.name, whence, fserr.ErrSeekUnsupported)
	}
	if offset < 0 {
		return r.Position(), fmt.Errorf("seek %s to %d: %w", r.name, offset, fserr.ErrSeekRange)
	}

	if r.started && offset < r.base {
		logger.Debug("Seek before current block, restarting extraction", "name", r.name, "target", offset, "block", r.base)
		r.restart()
	}
	if !r.started {
		if err := r.nextBlock(); err != nil {
			return r.Position(), err
		}
	}
	for offset > r.base+int64(len(r.block)) {
		if r.done {
			r.off = len(r.block)
			return r.Position(), fmt.Errorf("seek %s to %d: %w", r.name, offset, fserr.ErrSeekRange)
		}
		if err := r.nextBlock(); err != nil {
			return r.Position(), err
		}
	}
	r.off = int(offset - r.base)
	return offset, nil
}

// ReadLine returns the next line without its terminator, accumulating
// across blocks. "\n", "\r" and "\r\n" all end a line.
func (r *Reader) ReadLine() (string, error) {
	var line []byte
	for {
		if r.off >= len(r.block) {
			if r.done {
				break
			}
			if err := r.nextBlock(); err != nil {
				return "", err
			}
			continue
		}

		rest := r.block[r.off:]
		i, w := lines.IndexEOL(rest)
		if i < 0 {
			line = append(line, rest...)
			r.off = len(r.block)
			continue
		}
		line = append(line, rest[:i]...)
		r.off += i + w
		if lines.TrailingCR(rest, i) {
			if err := r.skipLF(); err != nil {
				return "", err
			}
		}
		return string(line), nil
	}

	if len(line) == 0 {
		return "", io.EOF
	}
	return string(line), nil
}

// skipLF consumes a '\n' that starts the next block.
func (r *Reader) skipLF() error {
	if r.off >= len(r.block) && !r.done {
		if err := r.nextBlock(); err != nil {
			return err
		}
	}
	if r.off < len(r.block) && r.block[r.off] == '\n' {
		r.off++
	}
	return nil
}

// Close releases the extraction state and closes the archive.
func (r *Reader) Close() error {
	if r.index == nil {
		return nil
	}
	r.index.engine.FreeCursor(&r.cursor)
	err := r.index.Close()
	r.index = nil
	r.block = nil
	r.done = false
	return err
}
