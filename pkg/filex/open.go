package filex

import (
	"fmt"

	"github.com/spf13/afero"

	"streamfile/pkg/archive"
	"streamfile/pkg/fserr"
	"streamfile/pkg/gzfile"
	"streamfile/pkg/logger"
	"streamfile/pkg/plain"
)

// Options configures every reader kind. Zero sizes select each reader's
// defaults; a nil Fs means the OS filesystem.
type Options struct {
	Fs afero.Fs

	RingSize  int // compressed: window for backward seeks
	InputSize int // compressed input buffer, plain read buffer
	LineChunk int // compressed: bytes read per ReadLine step

	BlockSize int // archive: bytes extracted per block
	Lookahead int // archive: read-ahead window over the archive file
}

func (o Options) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

// Open opens name for reading. The address decides the handle kind, see
// ParseAddress. Only the modes "r" and "rb" are accepted.
func Open(name, mode string, opts Options) (Handle, error) {
	addr, err := ParseAddress(name)
	if err != nil {
		return nil, err
	}
	h, err := open(addr, mode, opts)
	if err != nil {
		logger.Debug("Open failed", "name", name, "kind", addr.Kind, "class", fserr.Class(err), "err", err)
		return nil, err
	}
	logger.Debug("Opened file", "name", name, "kind", addr.Kind)
	return h, nil
}

func open(addr Address, mode string, opts Options) (Handle, error) {
	fs := opts.fs()

	switch addr.Kind {
	case KindPlain:
		f, err := plain.Open(fs, addr.Path, mode, opts.InputSize)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindCompressed:
		f, err := gzfile.Open(fs, addr.Path, mode, gzfile.Options{
			Codec:     addr.Codec,
			RingSize:  opts.RingSize,
			InputSize: opts.InputSize,
			LineChunk: opts.LineChunk,
		})
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindArchive:
		r, err := archive.Open(fs, addr.Path, addr.Entry, mode, archive.Options{
			BlockSize: opts.BlockSize,
			Lookahead: opts.Lookahead,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("open %s: unknown kind %v", addr.Raw, addr.Kind)
	}
}
