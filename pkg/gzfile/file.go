// Package gzfile reads compressed streams as if they were seekable files.
//
// Backward seeks are served from a window of recently decoded bytes. Seeks
// before the window restart decoding from the beginning of the source, and
// forward seeks decode and discard.
package gzfile

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
	"streamfile/pkg/lines"
	"streamfile/pkg/logger"
	"streamfile/pkg/ring"
)

const (
	DefaultRingSize  = 32768
	DefaultInputSize = 16384
	DefaultLineChunk = 1024
)

// Options tunes buffer sizes. Zero values select the defaults.
type Options struct {
	Codec     Codec
	RingSize  int
	InputSize int
	LineChunk int
}

func (o Options) withDefaults() Options {
	if o.Codec.newEngine == nil {
		o.Codec = Gzip
	}
	if o.RingSize <= 0 {
		o.RingSize = DefaultRingSize
	}
	if o.InputSize <= 0 {
		o.InputSize = DefaultInputSize
	}
	if o.LineChunk <= 0 {
		o.LineChunk = DefaultLineChunk
	}
	// ReadLine seeks back over at most one chunk.
	if o.RingSize < o.LineChunk {
		o.RingSize = o.LineChunk
	}
	return o
}

// File is a read-only view of the decompressed content of a stream.
type File struct {
	name   string
	codec  Codec
	dec    *decoder
	ring   *ring.Buffer
	rewind int // bytes between the logical position and the newest decoded byte

	chunk []byte
	peek  [1]byte
}

// Open opens name on fs for reading its decompressed content.
func Open(fs afero.Fs, name, mode string, opts Options) (*File, error) {
	if err := fserr.CheckMode(mode); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	src, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fserr.ErrNotFound, err)
	}
	dec, err := newDecoder(src, opts.Codec, opts.InputSize)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	logger.Debug("Opened compressed stream", "name", name, "codec", opts.Codec.Name, "window", opts.RingSize)
	return &File{
		name:  name,
		codec: opts.Codec,
		dec:   dec,
		ring:  ring.New(opts.RingSize),
		chunk: make([]byte, opts.LineChunk),
	}, nil
}

// Name returns the path the file was opened with.
func (f *File) Name() string { return f.name }

// Codec returns the codec decoding the stream.
func (f *File) Codec() Codec { return f.codec }

// Position returns the logical offset in the decompressed stream.
func (f *File) Position() int64 {
	if f.dec == nil {
		return 0
	}
	return f.dec.position() - int64(f.rewind)
}

// Read serves pending bytes from the window first, then decodes the rest.
// A read may come back short at a member boundary.
func (f *File) Read(p []byte) (int, error) {
	if f.dec == nil {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	if f.rewind > 0 {
		n = f.ring.ReadAt(p, f.ring.Len()-f.rewind)
		f.rewind -= n
		if n == len(p) {
			return n, nil
		}
	}

	m, err := f.dec.uncompress(p[n:])
	if m > 0 {
		f.ring.Append(p[n : n+m])
	}
	n += m
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek supports io.SeekStart and io.SeekCurrent. io.SeekEnd would need the
// whole stream decoded and fails with fserr.ErrSeekUnsupported.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.dec == nil {
		return 0, os.ErrClosed
	}
	switch whence {
	case io.SeekStart:
		return f.seekStart(offset)
	case io.SeekCurrent:
		return f.seekCurrent(offset)
	default:
		return f.Position(), fmt.Errorf("seek %s: whence %d: %w", f.name, whence, fserr.ErrSeekUnsupported)
	}
}

func (f *File) seekStart(off int64) (int64, error) {
	back := f.dec.position() - off
	if back >= 0 && back <= int64(f.ring.Len()) {
		f.rewind = int(back)
		return off, nil
	}
	return f.seekCurrent(off - f.Position())
}

func (f *File) seekCurrent(delta int64) (int64, error) {
	target := f.Position() + delta
	if target < 0 {
		return f.Position(), fmt.Errorf("seek %s to %d: %w", f.name, target, fserr.ErrSeekRange)
	}

	net := delta - int64(f.rewind)
	if net <= 0 {
		if -net <= int64(f.ring.Len()) {
			f.rewind = int(-net)
			return target, nil
		}
		logger.Warn("Seek target before buffered window, restarting decoder",
			"name", f.name, "target", target, "window", f.ring.Len())
		if err := f.reset(); err != nil {
			return f.Position(), err
		}
		return f.seekCurrent(target)
	}

	f.rewind = 0
	_, err := io.CopyN(io.Discard, f, net)
	if err == io.EOF {
		return f.Position(), fmt.Errorf("seek %s to %d: %w: %w", f.name, target, fserr.ErrSeekRange, io.ErrUnexpectedEOF)
	}
	if err != nil {
		return f.Position(), err
	}
	return target, nil
}

// reset restarts decoding from the first byte, keeping the window storage.
func (f *File) reset() error {
	if err := f.dec.rewind(); err != nil {
		return err
	}
	f.ring.Reset()
	f.rewind = 0
	return nil
}

// ReadLine returns the next line without its terminator. "\n", "\r" and
// "\r\n" all end a line. The last line need not be terminated. io.EOF is
// returned once nothing is left.
func (f *File) ReadLine() (string, error) {
	var line []byte
	for {
		n, err := f.Read(f.chunk)
		if n > 0 {
			buf := f.chunk[:n]
			i, w := lines.IndexEOL(buf)
			if i >= 0 {
				line = append(line, buf[:i]...)
				if back := n - i - w; back > 0 {
					if _, serr := f.seekCurrent(-int64(back)); serr != nil {
						return "", serr
					}
				}
				if lines.TrailingCR(buf, i) {
					if perr := f.skipLF(); perr != nil {
						return "", perr
					}
				}
				return string(line), nil
			}
			line = append(line, buf...)
		}
		if err == io.EOF {
			if len(line) == 0 {
				return "", io.EOF
			}
			return string(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// skipLF consumes the next byte when it is '\n'.
func (f *File) skipLF() error {
	n, err := f.Read(f.peek[:])
	if n == 1 && f.peek[0] != '\n' {
		_, err = f.seekCurrent(-1)
		return err
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// Close releases the decoder and the source file.
func (f *File) Close() error {
	if f.dec == nil {
		return nil
	}
	logger.Debug("Closing compressed stream", "name", f.name, "position", f.Position())
	err := f.dec.close()
	f.dec = nil
	return err
}
