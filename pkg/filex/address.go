package filex

import (
	"strings"

	"streamfile/pkg/archive"
	"streamfile/pkg/gzfile"
)

// ArchiveScheme prefixes addresses of archive entries.
const ArchiveScheme = "7z:"

// Address is a parsed file name.
type Address struct {
	Raw   string
	Kind  Kind
	Path  string       // file to open; the archive for KindArchive
	Entry string       // entry name, KindArchive only
	Codec gzfile.Codec // KindCompressed only
}

// ParseAddress resolves name to a kind:
//
//	gz:path (or xz:, zst:, lz4:, br:)  compressed stream
//	7z:archive!/entry                  archive entry
//	path.gz (or .xz, .zst, .lz4, .br)  compressed stream
//	anything else                      plain file
//
// Suffix matching is case-sensitive.
func ParseAddress(name string) (Address, error) {
	addr := Address{Raw: name, Path: name}

	if codec, rest, ok := gzfile.ByScheme(name); ok {
		addr.Kind, addr.Path, addr.Codec = KindCompressed, rest, codec
		return addr, nil
	}
	if rest, ok := strings.CutPrefix(name, ArchiveScheme); ok {
		archivePath, entry, err := archive.SplitEntryAddress(rest)
		if err != nil {
			return Address{}, err
		}
		addr.Kind, addr.Path, addr.Entry = KindArchive, archivePath, entry
		return addr, nil
	}
	if codec, ok := gzfile.BySuffix(name); ok {
		addr.Kind, addr.Codec = KindCompressed, codec
		return addr, nil
	}
	addr.Kind = KindPlain
	return addr, nil
}
