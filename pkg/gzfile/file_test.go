package gzfile

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"streamfile/pkg/fserr"
)

const testWindow = 64

var smallOpts = Options{RingSize: testWindow, InputSize: 32, LineChunk: 16}

func sample(n int) []byte {
	rng := rand.New(rand.NewPCG(7, uint64(n)))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('a' + rng.IntN(26))
	}
	return out
}

func gzipped(t *testing.T, members ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range members {
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(m)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}
	return buf.Bytes()
}

func openBytes(t *testing.T, name string, data []byte, opts Options) *File {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	f, err := Open(fs, name, "r", opts)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRoundTripSizes(t *testing.T) {
	for _, size := range []int{0, 1, testWindow - 1, testWindow, testWindow + 1, 10 * testWindow} {
		data := sample(size)
		f := openBytes(t, "data.gz", gzipped(t, data), smallOpts)

		got, err := io.ReadAll(f)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, data, got, "size %d", size)
		assert.Equal(t, int64(size), f.Position())
	}
}

func TestEmptySource(t *testing.T) {
	f := openBytes(t, "empty.gz", nil, smallOpts)

	n, err := f.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = f.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultiMember(t *testing.T) {
	a, b, c := sample(100), []byte{}, sample(37)
	f := openBytes(t, "multi.gz", gzipped(t, a, b, c), smallOpts)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, a...), c...), got)
}

func TestSeekWithinWindow(t *testing.T) {
	data := sample(200)
	f := openBytes(t, "w.gz", gzipped(t, data), smallOpts)

	_, err := io.ReadFull(f, make([]byte, 100))
	require.NoError(t, err)

	pos, err := f.Seek(50, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(50), pos)

	p := make([]byte, 20)
	_, err = io.ReadFull(f, p)
	require.NoError(t, err)
	assert.Equal(t, data[50:70], p)

	pos, err = f.Seek(-10, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pos)

	// Straddles the window tail and fresh decoding.
	p = make([]byte, 80)
	_, err = io.ReadFull(f, p)
	require.NoError(t, err)
	assert.Equal(t, data[60:140], p)
}

func TestSeekBeyondWindowReplays(t *testing.T) {
	data := sample(20 * testWindow)
	f := openBytes(t, "far.gz", gzipped(t, data), smallOpts)

	_, err := io.ReadFull(f, make([]byte, 10*testWindow))
	require.NoError(t, err)

	pos, err := f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)

	p := make([]byte, 10)
	_, err = io.ReadFull(f, p)
	require.NoError(t, err)
	assert.Equal(t, data[3:13], p)

	_, err = f.Seek(int64(15*testWindow), io.SeekStart)
	require.NoError(t, err)

	pos, err = f.Seek(-int64(12*testWindow), io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(3*testWindow), pos)

	_, err = io.ReadFull(f, p)
	require.NoError(t, err)
	assert.Equal(t, data[3*testWindow:3*testWindow+10], p)
}

func TestSeekForwardSkips(t *testing.T) {
	data := sample(1000)
	f := openBytes(t, "fwd.gz", gzipped(t, data), smallOpts)

	pos, err := f.Seek(900, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pos)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, data[900:], rest)
}

func TestSeekErrors(t *testing.T) {
	f := openBytes(t, "err.gz", gzipped(t, sample(50)), smallOpts)

	_, err := f.Seek(0, io.SeekEnd)
	assert.ErrorIs(t, err, fserr.ErrSeekUnsupported)

	_, err = f.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, fserr.ErrSeekRange)

	_, err = f.Seek(51, io.SeekStart)
	assert.ErrorIs(t, err, fserr.ErrSeekRange)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadLineTerminators(t *testing.T) {
	text := "abc\r\ndef\rghi\n\njklmnopqrstuvwxyz0123456789\r\nx\rlast"
	want := []string{"abc", "def", "ghi", "", "jklmnopqrstuvwxyz0123456789", "x", "last"}

	for _, chunk := range []int{1, 2, 3, 4, 5, 7, 16, 1024} {
		opts := smallOpts
		opts.LineChunk = chunk
		f := openBytes(t, "lines.gz", gzipped(t, []byte(text)), opts)

		var got []string
		for {
			line, err := f.ReadLine()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, "chunk %d", chunk)
			got = append(got, line)
		}
		assert.Equal(t, want, got, "chunk %d", chunk)
	}
}

func TestReadLineThenRead(t *testing.T) {
	f := openBytes(t, "mixed.gz", gzipped(t, []byte("header\nbody bytes")), smallOpts)

	line, err := f.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "header", line)
	assert.Equal(t, int64(7), f.Position())

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "body bytes", string(rest))
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plain.txt.gz", []byte("not compressed at all"), 0o644))

	_, err := Open(fs, "missing.gz", "r", Options{})
	assert.ErrorIs(t, err, fserr.ErrNotFound)

	_, err = Open(fs, "plain.txt.gz", "w", Options{})
	assert.ErrorIs(t, err, fserr.ErrUnsupportedMode)

	_, err = Open(fs, "plain.txt.gz", "r", Options{})
	assert.ErrorIs(t, err, fserr.ErrDecode)
}

func TestCorruptData(t *testing.T) {
	data := gzipped(t, sample(500))
	data[10] = 0xff // reserved deflate block type

	f := openBytes(t, "bad.gz", data, smallOpts)
	_, err := io.ReadAll(f)
	assert.ErrorIs(t, err, fserr.ErrDecode)
}

func TestChecksumMismatch(t *testing.T) {
	data := gzipped(t, sample(500))
	data[len(data)-8] ^= 0xff

	f := openBytes(t, "crc.gz", data, smallOpts)
	_, err := io.ReadAll(f)
	assert.ErrorIs(t, err, fserr.ErrChecksum)
}

func TestOtherCodecs(t *testing.T) {
	data := sample(5 * testWindow)

	encode := map[string]func(w io.Writer) (io.WriteCloser, error){
		"xz": func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) },
		"zstd": func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
		"lz4":    func(w io.Writer) (io.WriteCloser, error) { return lz4.NewWriter(w), nil },
		"brotli": func(w io.Writer) (io.WriteCloser, error) { return brotli.NewWriter(w), nil },
	}

	for name, newWriter := range encode {
		t.Run(name, func(t *testing.T) {
			codec, ok := Lookup(name)
			require.True(t, ok)

			var buf bytes.Buffer
			w, err := newWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			opts := smallOpts
			opts.Codec = codec
			f := openBytes(t, "data"+codec.Suffix, buf.Bytes(), opts)

			_, err = f.Seek(int64(4*testWindow), io.SeekStart)
			require.NoError(t, err)
			_, err = f.Seek(10, io.SeekStart)
			require.NoError(t, err)

			rest, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, data[10:], rest)
		})
	}
}

func TestCodecLookup(t *testing.T) {
	c, rest, ok := ByScheme("zst:/data/x")
	require.True(t, ok)
	assert.Equal(t, "zstd", c.Name)
	assert.Equal(t, "/data/x", rest)

	_, _, ok = ByScheme("7z:a.7z!/x")
	assert.False(t, ok)

	c, ok = BySuffix("reads.fa.gz")
	require.True(t, ok)
	assert.Equal(t, "gzip", c.Name)

	_, ok = BySuffix("reads.fa.GZ")
	assert.False(t, ok)
}
