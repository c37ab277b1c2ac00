package archive

import (
	"hash"
	"io"
)

// Engine is an opened archive that can list its entries and extract one
// entry as a sequence of blocks.
type Engine interface {
	NumEntries() int
	EntryName(i int) string
	IsDir(i int) bool
	// Extract returns the next block of entry i, continuing where the
	// previous call with the same cursor stopped. A block of size zero
	// marks the end of the entry.
	Extract(i int, c *BlockCursor) (Block, error)
	// FreeCursor drops the extraction state so the next Extract starts
	// again at the first byte of the entry.
	FreeCursor(c *BlockCursor)
	Close() error
}

// Block is a view of extracted bytes inside a buffer owned by the engine.
// The view stays valid until the next Extract or FreeCursor on the same
// cursor.
type Block struct {
	Buf    []byte
	Offset int
	Size   int
}

// Bytes returns the extracted bytes.
func (b Block) Bytes() []byte {
	return b.Buf[b.Offset : b.Offset+b.Size]
}

// BlockCursor carries extraction state between Extract calls.
type BlockCursor struct {
	Entry int
	Buf   []byte

	stream io.ReadCloser
	sum    hash.Hash32
	read   int64
}
