// Package lines finds line terminators and splits lines into tokens.
package lines

import (
	"bytes"
	"strconv"
	"strings"
)

// IndexEOL returns the index of the first line terminator in buf and its
// width: 2 for "\r\n", 1 for a lone "\n" or "\r". It returns -1, 0 when buf
// holds no terminator.
func IndexEOL(buf []byte) (int, int) {
	i := bytes.IndexAny(buf, "\r\n")
	if i < 0 {
		return -1, 0
	}
	if buf[i] == '\r' && i+1 < len(buf) && buf[i+1] == '\n' {
		return i, 2
	}
	return i, 1
}

// TrailingCR reports whether the terminator at i is a '\r' that ends buf.
// The "\n" of a "\r\n" pair may then start the next buffer.
func TrailingCR(buf []byte, i int) bool {
	return i == len(buf)-1 && buf[i] == '\r'
}

// Cut splits buf at its first terminator. It returns the line before the
// terminator, the number of bytes consumed including the terminator, and
// whether a terminator was found. Without one, the whole buffer is the line.
func Cut(buf []byte) (line []byte, consumed int, found bool) {
	i, w := IndexEOL(buf)
	if i < 0 {
		return buf, len(buf), false
	}
	return buf[:i], i + w, true
}

// Separator sets used by Fields.
var (
	Whitespace = []byte{' ', '\t', '\n', '\r'}
	Delimited  = []byte{' ', ',', '\t', '\n', '\r'}
)

// Fields splits line into at most max tokens separated by runs of seps.
// Separators inside double quotes are kept; the quotes themselves stay in
// the token. max <= 0 means no limit.
func Fields(line string, seps []byte, max int) []string {
	var (
		out      []string
		word     strings.Builder
		inQuotes bool
	)
	full := func() bool { return max > 0 && len(out) >= max }

	for i := 0; i < len(line) && !full(); i++ {
		c := line[i]
		if bytes.IndexByte(seps, c) >= 0 && !inQuotes {
			if word.Len() > 0 {
				out = append(out, word.String())
				word.Reset()
			}
			continue
		}
		if c == '"' {
			inQuotes = !inQuotes
		}
		word.WriteByte(c)
	}
	if word.Len() > 0 && !full() {
		out = append(out, word.String())
	}
	return out
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// SplitTarget splits "path:offset;length" into its parts. When target
// does not end in ":offset;length" it is returned whole as the path.
func SplitTarget(target string) (path string, offset, length int64) {
	i := strings.LastIndexByte(target, ':')
	if i < 0 {
		return Unquote(target), 0, 0
	}
	pos, n, ok := strings.Cut(target[i+1:], ";")
	if !ok {
		return Unquote(target), 0, 0
	}
	off, err1 := strconv.ParseInt(pos, 10, 64)
	size, err2 := strconv.ParseInt(n, 10, 64)
	if err1 != nil || err2 != nil {
		return Unquote(target), 0, 0
	}
	return Unquote(target[:i]), off, size
}
