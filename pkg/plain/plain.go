// Package plain reads uncompressed files with buffered line access.
package plain

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
	"streamfile/pkg/lines"
	"streamfile/pkg/logger"
)

const defaultBufferSize = 16384

// File is an uncompressed file opened for reading.
type File struct {
	name string
	f    afero.File
	br   *bufio.Reader
}

// Open opens name on fs. bufSize <= 0 selects the default buffer size.
func Open(fs afero.Fs, name, mode string, bufSize int) (*File, error) {
	if err := fserr.CheckMode(mode); err != nil {
		return nil, err
	}
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fserr.ErrNotFound, err)
	}
	logger.Debug("Opened plain file", "name", name)
	return NewFile(name, f, bufSize), nil
}

// NewFile wraps an already open file such as os.Stdin. Seeking works only
// when f does.
func NewFile(name string, f afero.File, bufSize int) *File {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &File{name: name, f: f, br: bufio.NewReaderSize(f, bufSize)}
}

// Name returns the path the file was opened with.
func (p *File) Name() string { return p.name }

func (p *File) Read(b []byte) (int, error) {
	return p.br.Read(b)
}

// Seek accepts every whence. Buffered bytes are dropped.
func (p *File) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset -= int64(p.br.Buffered())
	}
	pos, err := p.f.Seek(offset, whence)
	if err != nil {
		return pos, fmt.Errorf("seek %s: %w: %w", p.name, fserr.ErrSeekRange, err)
	}
	p.br.Reset(p.f)
	return pos, nil
}

// Position returns the offset of the next byte to be read.
func (p *File) Position() int64 {
	pos, err := p.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	return pos - int64(p.br.Buffered())
}

// ReadLine returns the next line without its terminator. "\n", "\r" and
// "\r\n" all end a line.
func (p *File) ReadLine() (string, error) {
	var line []byte
	for {
		if p.br.Buffered() == 0 {
			if _, err := p.br.Peek(1); err != nil {
				if err != io.EOF {
					return "", err
				}
				if len(line) == 0 {
					return "", io.EOF
				}
				return string(line), nil
			}
		}

		buf, _ := p.br.Peek(p.br.Buffered())
		i, w := lines.IndexEOL(buf)
		if i < 0 {
			line = append(line, buf...)
			p.br.Discard(len(buf))
			continue
		}
		line = append(line, buf[:i]...)
		trailingCR := lines.TrailingCR(buf, i)
		p.br.Discard(i + w)
		if trailingCR {
			if next, err := p.br.Peek(1); err == nil && next[0] == '\n' {
				p.br.Discard(1)
			}
		}
		return string(line), nil
	}
}

func (p *File) Close() error {
	return p.f.Close()
}
