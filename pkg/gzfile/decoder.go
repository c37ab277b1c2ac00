package gzfile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// decoder turns the compressed source into a forward-only stream of
// uncompressed bytes, crossing member boundaries on its own.
type decoder struct {
	src  afero.File
	in   *bufio.Reader
	eng  engine
	pos  int64 // uncompressed bytes produced since the last rewind
	done bool
}

func newDecoder(src afero.File, codec Codec, inputSize int) (*decoder, error) {
	d := &decoder{
		src: src,
		in:  bufio.NewReaderSize(src, inputSize),
		eng: codec.newEngine(),
	}
	if err := d.start(); err != nil {
		d.eng.Close()
		return nil, err
	}
	return d, nil
}

func (d *decoder) start() error {
	err := d.eng.reset(d.in)
	switch {
	case err == io.EOF:
		d.done = true
		return nil
	case err != nil:
		return decodeError(err)
	}
	d.done = false
	return nil
}

// uncompress fills p with decoded bytes. It stops early, with a short
// count, at the end of a member; the engine is then already positioned on
// the next one. It returns io.EOF only when nothing was produced and the
// source holds no further stream.
func (d *decoder) uncompress(p []byte) (int, error) {
	n := 0
	for n < len(p) && !d.done {
		m, err := d.eng.Read(p[n:])
		n += m
		d.pos += int64(m)

		if err == io.EOF {
			if nerr := d.eng.next(d.in); nerr == io.EOF {
				d.done = true
			} else if nerr != nil {
				return n, decodeError(nerr)
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			return n, decodeError(err)
		}
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (d *decoder) position() int64 {
	return d.pos
}

// rewind moves back to the first byte of the source and restarts the engine.
func (d *decoder) rewind() error {
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", d.src.Name(), err)
	}
	d.in.Reset(d.src)
	d.pos = 0
	return d.start()
}

func (d *decoder) close() error {
	d.eng.Close()
	return d.src.Close()
}
