package gzfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"streamfile/pkg/fserr"
)

// engine is a streaming decompressor over the compressed input buffer.
//
// reset starts decoding the stream at the current input position and
// returns io.EOF when the input holds no data at all. Read returns io.EOF
// at the end of the current member. next moves on to the member that
// follows it and returns io.EOF when there is none.
type engine interface {
	reset(r *bufio.Reader) error
	Read(p []byte) (int, error)
	next(r *bufio.Reader) error
	Close() error
}

// Codec describes one supported compressed stream format.
type Codec struct {
	Name   string
	Scheme string // address prefix forcing the codec, e.g. "gz:"
	Suffix string // file name suffix selecting the codec, e.g. ".gz"

	newEngine func() engine
}

var codecs = []Codec{
	{Name: "gzip", Scheme: "gz:", Suffix: ".gz", newEngine: func() engine { return &gzipEngine{} }},
	{Name: "xz", Scheme: "xz:", Suffix: ".xz", newEngine: func() engine { return &xzEngine{} }},
	{Name: "zstd", Scheme: "zst:", Suffix: ".zst", newEngine: func() engine { return &zstdEngine{} }},
	{Name: "lz4", Scheme: "lz4:", Suffix: ".lz4", newEngine: func() engine { return &lz4Engine{} }},
	{Name: "brotli", Scheme: "br:", Suffix: ".br", newEngine: func() engine { return &brotliEngine{} }},
}

// Gzip is the default codec.
var Gzip = codecs[0]

// Codecs returns every supported codec, gzip first.
func Codecs() []Codec {
	return append([]Codec(nil), codecs...)
}

// Lookup returns the codec with the given name.
func Lookup(name string) (Codec, bool) {
	for _, c := range codecs {
		if c.Name == name {
			return c, true
		}
	}
	return Codec{}, false
}

// ByScheme returns the codec whose scheme prefixes address, and the address
// with the scheme stripped.
func ByScheme(address string) (Codec, string, bool) {
	for _, c := range codecs {
		if rest, ok := strings.CutPrefix(address, c.Scheme); ok {
			return c, rest, true
		}
	}
	return Codec{}, address, false
}

// BySuffix returns the codec whose suffix ends name. Matching is case-sensitive.
func BySuffix(name string) (Codec, bool) {
	for _, c := range codecs {
		if strings.HasSuffix(name, c.Suffix) {
			return c, true
		}
	}
	return Codec{}, false
}

// decodeError classifies an engine failure.
func decodeError(err error) error {
	if errors.Is(err, gzip.ErrChecksum) || errors.Is(err, zstd.ErrCRCMismatch) {
		return fmt.Errorf("%w: %w", fserr.ErrChecksum, err)
	}
	return fmt.Errorf("%w: %w", fserr.ErrDecode, err)
}

// gzipEngine decodes one member at a time so member boundaries surface as
// io.EOF from Read.
type gzipEngine struct {
	zr *gzip.Reader
}

func (e *gzipEngine) reset(r *bufio.Reader) error {
	if e.zr == nil {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		e.zr = zr
	} else if err := e.zr.Reset(r); err != nil {
		return err
	}
	e.zr.Multistream(false)
	return nil
}

func (e *gzipEngine) Read(p []byte) (int, error) {
	if e.zr == nil {
		return 0, io.EOF
	}
	return e.zr.Read(p)
}

func (e *gzipEngine) next(r *bufio.Reader) error {
	return e.reset(r)
}

func (e *gzipEngine) Close() error {
	if e.zr == nil {
		return nil
	}
	return e.zr.Close()
}

// The engines below handle concatenated streams internally, so the whole
// input is a single member for them.

type xzEngine struct {
	xr *xz.Reader
}

func (e *xzEngine) reset(r *bufio.Reader) error {
	if _, err := r.Peek(1); err != nil {
		return err
	}
	xr, err := xz.NewReader(r)
	if err != nil {
		return err
	}
	e.xr = xr
	return nil
}

func (e *xzEngine) Read(p []byte) (int, error) {
	if e.xr == nil {
		return 0, io.EOF
	}
	return e.xr.Read(p)
}

func (e *xzEngine) next(*bufio.Reader) error { return io.EOF }
func (e *xzEngine) Close() error            { return nil }

type zstdEngine struct {
	dec *zstd.Decoder
}

func (e *zstdEngine) reset(r *bufio.Reader) error {
	if _, err := r.Peek(1); err != nil {
		return err
	}
	if e.dec == nil {
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return err
		}
		e.dec = dec
		return nil
	}
	return e.dec.Reset(r)
}

func (e *zstdEngine) Read(p []byte) (int, error) {
	if e.dec == nil {
		return 0, io.EOF
	}
	return e.dec.Read(p)
}

func (e *zstdEngine) next(*bufio.Reader) error { return io.EOF }

func (e *zstdEngine) Close() error {
	if e.dec != nil {
		e.dec.Close()
	}
	return nil
}

type lz4Engine struct {
	zr *lz4.Reader
}

func (e *lz4Engine) reset(r *bufio.Reader) error {
	if _, err := r.Peek(1); err != nil {
		return err
	}
	if e.zr == nil {
		e.zr = lz4.NewReader(r)
	} else {
		e.zr.Reset(r)
	}
	return nil
}

func (e *lz4Engine) Read(p []byte) (int, error) {
	if e.zr == nil {
		return 0, io.EOF
	}
	return e.zr.Read(p)
}

func (e *lz4Engine) next(*bufio.Reader) error { return io.EOF }
func (e *lz4Engine) Close() error            { return nil }

type brotliEngine struct {
	br *brotli.Reader
}

func (e *brotliEngine) reset(r *bufio.Reader) error {
	if _, err := r.Peek(1); err != nil {
		return err
	}
	if e.br == nil {
		e.br = brotli.NewReader(r)
		return nil
	}
	return e.br.Reset(r)
}

func (e *brotliEngine) Read(p []byte) (int, error) {
	if e.br == nil {
		return 0, io.EOF
	}
	return e.br.Read(p)
}

func (e *brotliEngine) next(*bufio.Reader) error { return io.EOF }
func (e *brotliEngine) Close() error            { return nil }
