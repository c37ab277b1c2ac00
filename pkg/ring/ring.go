// Package ring implements a fixed-capacity window over the most recently
// produced bytes of a stream.
package ring

// Buffer keeps the last Cap() bytes appended to it, oldest first.
type Buffer struct {
	data  []byte
	start int // index of the oldest byte
	n     int
}

// New returns an empty buffer of the given capacity.
func New(capacity int) *Buffer {
	return NewWithStorage(make([]byte, capacity))
}

// NewWithStorage returns an empty buffer backed by storage. The buffer's
// capacity is len(storage).
func NewWithStorage(storage []byte) *Buffer {
	return &Buffer{data: storage}
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Storage returns the backing array so it can be handed to a new buffer.
func (b *Buffer) Storage() []byte { return b.data }

// Reset drops the buffered bytes and keeps the backing storage.
func (b *Buffer) Reset() {
	b.start = 0
	b.n = 0
}

// Append adds p after the newest byte, evicting the oldest bytes once the
// capacity is exceeded.
func (b *Buffer) Append(p []byte) {
	c := len(b.data)
	if c == 0 || len(p) == 0 {
		return
	}
	if len(p) >= c {
		copy(b.data, p[len(p)-c:])
		b.start = 0
		b.n = c
		return
	}

	w := (b.start + b.n) % c
	k := copy(b.data[w:], p)
	copy(b.data, p[k:])

	if over := b.n + len(p) - c; over > 0 {
		b.start = (b.start + over) % c
		b.n = c
	} else {
		b.n += len(p)
	}
}

// ReadAt copies buffered bytes starting off bytes after the oldest one into
// p. It returns the number of bytes copied, which is less than len(p) when
// the request runs past the newest byte.
func (b *Buffer) ReadAt(p []byte, off int) int {
	if off < 0 || off >= b.n {
		return 0
	}
	cnt := len(p)
	if avail := b.n - off; cnt > avail {
		cnt = avail
	}

	c := len(b.data)
	r := (b.start + off) % c
	k := copy(p[:cnt], b.data[r:])
	if k < cnt {
		copy(p[k:cnt], b.data)
	}
	return cnt
}
