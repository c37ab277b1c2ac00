package taxid

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfile/pkg/filex"
)

const plainFA = ">gi|1|ref|NC_1.1| first\nACGT\n\n>NC_2.3 second\nGG\n"

// lineSource feeds fixed lines to the table loaders.
type lineSource struct {
	lines []string
	reads int
}

func (s *lineSource) ReadLine() (string, error) {
	if s.reads >= len(s.lines) {
		return "", io.EOF
	}
	s.reads++
	return s.lines[s.reads-1], nil
}

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testCache(t *testing.T) *filex.Cache {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plain.fa", []byte(plainFA), 0o644))
	require.NoError(t, afero.WriteFile(fs, "packed.fa.gz", gzipBytes(t, plainFA), 0o644))

	arc, err := os.ReadFile(filepath.Join("..", "archive", "testdata", "entries.7z"))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "entries.7z", arc, 0o644))

	c := filex.NewCache(filex.Options{Fs: fs, RingSize: 64, LineChunk: 8, BlockSize: 16})
	t.Cleanup(c.Close)
	return c
}

func TestAccession(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{">NC_000001.11 Homo sapiens", "NC_000001", true},
		{">gi|123|ref|NC_000001.11| chr1", "NC_000001", true},
		{">XP_1:extra", "XP_1", true},
		{">plain", "plain", true},
		{">", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := Accession(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddFileKinds(t *testing.T) {
	tests := []struct {
		name string
		want []Sequence
	}{
		{
			name: "plain.fa",
			want: []Sequence{
				{File: "plain.fa", Accession: "NC_1", Offset: 0, Length: 30},
				{File: "plain.fa", Accession: "NC_2", Offset: 30, Length: 18},
			},
		},
		{
			name: "packed.fa.gz",
			want: []Sequence{
				{File: "packed.fa.gz", Accession: "NC_1", Offset: 0, Length: 30},
				{File: "packed.fa.gz", Accession: "NC_2", Offset: 30, Length: 18},
			},
		},
		{
			name: "7z:entries.7z!/data/seqs.fa",
			want: []Sequence{
				{File: "7z:entries.7z!/data/seqs.fa", Accession: "NC_000001", Offset: 0, Length: 63},
				{File: "7z:entries.7z!/data/seqs.fa", Accession: "NZ_CP0001", Offset: 63, Length: 49},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCache(t)
			ix := NewIndex()
			n, err := ix.AddFile(c, tt.name)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, ix.Sequences)
			assert.Empty(t, ix.Unopened)
		})
	}
}

func TestAddFileTwiceRewinds(t *testing.T) {
	c := testCache(t)
	ix := NewIndex()
	_, err := ix.AddFile(c, "packed.fa.gz")
	require.NoError(t, err)
	n, err := ix.AddFile(c, "packed.fa.gz")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Len(t, ix.Sequences, 4)
	assert.Equal(t, 2, ix.Accessions())
	assert.Equal(t, ix.Sequences[:2], ix.Sequences[2:])
}

func TestAddFileUnopened(t *testing.T) {
	c := testCache(t)
	ix := NewIndex()

	n, err := ix.AddFile(c, "missing.fa")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = ix.AddFile(c, "7z:entries.7z!/nope.fa")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, []string{"missing.fa", "7z:entries.7z!/nope.fa"}, ix.Unopened)
	assert.Empty(t, ix.Sequences)
}

func TestLoadMerged(t *testing.T) {
	src := &lineSource{lines: []string{
		"12\t|\t34\t|",
		"12\t|\t99\t|",
		"56\t|\t78\t|",
		"garbage",
		"x\t|\t1\t|",
	}}
	merged, err := LoadMerged(src)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{12: 34, 56: 78}, merged)
}

func TestResolve(t *testing.T) {
	c := testCache(t)
	ix := NewIndex()
	_, err := ix.AddFile(c, "plain.fa")
	require.NoError(t, err)

	src := &lineSource{lines: []string{
		"accession\taccession.version\ttaxid\tgi",
		"NC_9\tNC_9.1\t5\t1",
		"NC_1\tNC_1.1\t12\t2",
		"NC_2\tNC_2.3\t7\t3",
		"NC_2\tNC_2.4\t8\t4",
	}}
	found, err := ix.Resolve(src, map[int]int{12: 34})
	require.NoError(t, err)

	assert.Equal(t, 2, found)
	assert.Equal(t, 34, ix.TaxID("NC_1"))
	assert.Equal(t, 7, ix.TaxID("NC_2"))
	assert.Equal(t, Unknown, ix.TaxID("NC_9"))
	assert.Equal(t, 4, src.reads, "reading stops once every accession is resolved")
}

func TestWriteMapping(t *testing.T) {
	c := testCache(t)
	ix := NewIndex()
	_, err := ix.AddFile(c, "missing.fa")
	require.NoError(t, err)
	_, err = ix.AddFile(c, "plain.fa")
	require.NoError(t, err)
	_, err = ix.Resolve(&lineSource{lines: []string{"NC_2 NC_2.3 7"}}, nil)
	require.NoError(t, err)

	var out, rejected strings.Builder
	mapped, unresolved, err := ix.WriteMapping(&out, &rejected)
	require.NoError(t, err)

	assert.Equal(t, 1, mapped)
	assert.Equal(t, 1, unresolved)
	assert.Equal(t,
		"missing.fa\tUNKNOWN\n"+
			"plain.fa:0;30\tNC_1\t-1\n"+
			"plain.fa:30;18\tNC_2\t7\n",
		out.String())
	assert.Equal(t, "plain.fa:0;30\tNC_1\n", rejected.String())
}
