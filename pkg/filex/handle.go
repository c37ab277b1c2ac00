// Package filex opens plain files, compressed streams and archive entries
// behind one read-only handle type.
package filex

import (
	"io"

	"streamfile/pkg/archive"
	"streamfile/pkg/gzfile"
	"streamfile/pkg/plain"
)

// Handle is an open file of any kind.
type Handle interface {
	io.Reader
	io.Seeker
	io.Closer
	// ReadLine returns the next line without its terminator, or io.EOF.
	ReadLine() (string, error)
	// Position returns the offset of the next byte to be read.
	Position() int64
}

var (
	_ Handle = (*plain.File)(nil)
	_ Handle = (*gzfile.File)(nil)
	_ Handle = (*archive.Reader)(nil)
)

// Kind tells which backing store a handle reads from.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlain
	KindCompressed
	KindArchive
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindCompressed:
		return "compressed"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of h, looking through cache wrappers.
func KindOf(h Handle) Kind {
	switch v := h.(type) {
	case *plain.File:
		return KindPlain
	case *gzfile.File:
		return KindCompressed
	case *archive.Reader:
		return KindArchive
	case cachedHandle:
		return KindOf(v.Handle)
	default:
		return KindUnknown
	}
}
