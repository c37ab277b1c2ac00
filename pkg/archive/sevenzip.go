package archive

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/javi11/sevenzip"
	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
	"streamfile/pkg/logger"
)

// sevenZipEngine extracts entries of a 7z archive, possibly split into
// numbered volumes.
type sevenZipEngine struct {
	path      string
	files     []afero.File
	r         *sevenzip.Reader
	blockSize int
}

func openSevenZip(fs afero.Fs, path string, opts Options) (*sevenZipEngine, error) {
	files, vol, err := openVolumes(fs, path)
	if err != nil {
		return nil, err
	}

	r, err := sevenzip.NewReader(newReadAhead(vol, vol.Size(), opts.Lookahead), vol.Size())
	if err != nil {
		closeAll(files)
		return nil, fmt.Errorf("open archive %s: %w", path, classifyOpenError(err))
	}

	logger.Debug("Opened 7z archive", "path", path, "volumes", len(files), "entries", len(r.File))
	return &sevenZipEngine{
		path:      path,
		files:     files,
		r:         r,
		blockSize: opts.BlockSize,
	}, nil
}

// The sevenzip package does not export its sentinel errors.
func classifyOpenError(err error) error {
	if strings.Contains(err.Error(), "checksum") {
		return fmt.Errorf("%w: %w", fserr.ErrChecksum, err)
	}
	return fmt.Errorf("%w: %w", fserr.ErrUnsupportedFormat, err)
}

func classifyReadError(err error) error {
	var re *sevenzip.ReadError
	if errors.As(err, &re) && re.Encrypted {
		return fmt.Errorf("%w: encrypted entry: %w", fserr.ErrUnsupportedFormat, err)
	}
	if strings.Contains(err.Error(), "checksum") {
		return fmt.Errorf("%w: %w", fserr.ErrChecksum, err)
	}
	return fmt.Errorf("%w: %w", fserr.ErrDecode, err)
}

func (e *sevenZipEngine) NumEntries() int { return len(e.r.File) }

func (e *sevenZipEngine) EntryName(i int) string {
	return strings.TrimSuffix(e.r.File[i].Name, "/")
}

func (e *sevenZipEngine) IsDir(i int) bool {
	return e.r.File[i].FileInfo().IsDir()
}

func (e *sevenZipEngine) Extract(i int, c *BlockCursor) (Block, error) {
	f := e.r.File[i]
	if c.stream == nil {
		rc, err := f.Open()
		if err != nil {
			return Block{}, fmt.Errorf("extract %s: %w", f.Name, classifyReadError(err))
		}
		c.Entry = i
		c.stream = rc
		c.sum = crc32.NewIEEE()
		c.read = 0
	}
	if len(c.Buf) != e.blockSize {
		c.Buf = make([]byte, e.blockSize)
	}

	n, err := io.ReadFull(c.stream, c.Buf)
	c.sum.Write(c.Buf[:n])
	c.read += int64(n)

	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		if f.CRC32 != 0 && c.sum.Sum32() != f.CRC32 {
			return Block{}, fmt.Errorf("extract %s: %w", f.Name, fserr.ErrChecksum)
		}
	case err != nil:
		return Block{}, fmt.Errorf("extract %s: %w", f.Name, classifyReadError(err))
	}

	logger.Debug("Extracted block", "archive", e.path, "entry", f.Name, "size", n, "total", c.read)
	return Block{Buf: c.Buf, Offset: 0, Size: n}, nil
}

func (e *sevenZipEngine) FreeCursor(c *BlockCursor) {
	if c.stream != nil {
		c.stream.Close()
	}
	c.stream = nil
	c.sum = nil
	c.read = 0
}

func (e *sevenZipEngine) Close() error {
	var errs []error
	for _, f := range e.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.files = nil
	return errors.Join(errs...)
}
