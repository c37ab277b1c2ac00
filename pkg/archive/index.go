// Package archive reads a single entry of a 7z archive as a stream of
// blocks, with line reading and forward/backward positioning on top.
package archive

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"streamfile/pkg/fserr"
	"streamfile/pkg/logger"
)

const (
	DefaultBlockSize = 1 << 18
	DefaultLookahead = 1 << 18
)

// Options tunes extraction. Zero values select the defaults.
type Options struct {
	BlockSize int // bytes extracted per block
	Lookahead int // read-ahead window over the archive file
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.Lookahead <= 0 {
		o.Lookahead = DefaultLookahead
	}
	return o
}

// EntrySeparator divides the archive path from the entry name in an
// entry address.
const EntrySeparator = "!/"

// SplitEntryAddress splits "archive!/entry" at the first separator.
func SplitEntryAddress(addr string) (archivePath, entry string, err error) {
	archivePath, entry, ok := strings.Cut(addr, EntrySeparator)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", fserr.ErrMalformedAddress, addr)
	}
	return archivePath, entry, nil
}

// Index is an opened archive together with its directory.
type Index struct {
	path   string
	engine Engine
	names  []string // normalized, directories included
	dirs   []bool
}

// NewIndex reads the directory of an opened engine.
func NewIndex(path string, eng Engine) *Index {
	n := eng.NumEntries()
	ix := &Index{
		path:   path,
		engine: eng,
		names:  make([]string, n),
		dirs:   make([]bool, n),
	}
	for i := 0; i < n; i++ {
		ix.names[i] = NormalizeName(eng.EntryName(i))
		ix.dirs[i] = eng.IsDir(i)
	}
	return ix
}

// OpenIndex opens the 7z archive at path.
func OpenIndex(fs afero.Fs, path string, opts Options) (*Index, error) {
	eng, err := openSevenZip(fs, path, opts.withDefaults())
	if err != nil {
		return nil, err
	}
	return NewIndex(path, eng), nil
}

// Path returns the archive path.
func (ix *Index) Path() string { return ix.path }

// Engine returns the engine the index was built from.
func (ix *Index) Engine() Engine { return ix.engine }

// Files returns the names of all non-directory entries in archive order.
func (ix *Index) Files() []string {
	var out []string
	for i, name := range ix.names {
		if !ix.dirs[i] {
			out = append(out, name)
		}
	}
	return out
}

// Find returns the index of the first non-directory entry named entry.
func (ix *Index) Find(entry string) (int, error) {
	want := NormalizeName(entry)
	for i, name := range ix.names {
		if ix.dirs[i] {
			continue
		}
		if name == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s in %s", fserr.ErrEntryNotFound, entry, ix.path)
}

// Close closes the archive.
func (ix *Index) Close() error {
	return ix.engine.Close()
}

// Locate opens the archive at archivePath and finds entry in it. The
// archive is closed again when the entry is missing.
func Locate(fs afero.Fs, archivePath, entry string, opts Options) (*Index, int, error) {
	ix, err := OpenIndex(fs, archivePath, opts)
	if err != nil {
		return nil, -1, err
	}
	i, err := ix.Find(entry)
	if err != nil {
		ix.Close()
		return nil, -1, err
	}
	logger.Debug("Located archive entry", "archive", archivePath, "entry", entry, "index", i)
	return ix, i, nil
}
