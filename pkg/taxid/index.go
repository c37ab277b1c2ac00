// Package taxid maps the sequences of FASTA files to NCBI taxonomy IDs.
package taxid

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"streamfile/pkg/filex"
	"streamfile/pkg/lines"
	"streamfile/pkg/logger"
)

// Unknown marks an accession without a taxonomy ID.
const Unknown = -1

var (
	headerSeps    = []byte{' ', '\t', ':'}
	accessionSeps = []byte{'|', '.', '>'}
)

// LineReader is the part of a handle the table loaders need.
type LineReader interface {
	ReadLine() (string, error)
}

// Sequence locates one FASTA record inside its file.
type Sequence struct {
	File      string
	Accession string
	Offset    int64
	Length    int64
}

// Target renders the record location as "file:offset;length".
func (s Sequence) Target() string {
	return fmt.Sprintf("%s:%d;%d", s.File, s.Offset, s.Length)
}

// Index collects the sequences of many files and the taxonomy ID of each
// distinct accession.
type Index struct {
	Sequences []Sequence
	// Unopened lists files that could not be opened.
	Unopened []string

	slots    map[string]int
	taxIDs   []int
	resolved []bool
}

func NewIndex() *Index {
	return &Index{slots: make(map[string]int)}
}

// Accessions returns the number of distinct accessions.
func (ix *Index) Accessions() int { return len(ix.taxIDs) }

// TaxID returns the taxonomy ID of acc, Unknown when unresolved.
func (ix *Index) TaxID(acc string) int {
	i, ok := ix.slots[acc]
	if !ok {
		return Unknown
	}
	return ix.taxIDs[i]
}

// Accession extracts the accession from a FASTA header line: the first
// word, split on '|', '.' and '>', and of those the second to last part.
// ">NC_000001.11 chr1" gives "NC_000001"; ">gi|123|ref|NC_000001.11|"
// gives "NC_000001".
func Accession(header string) (string, bool) {
	words := lines.Fields(header, headerSeps, 1)
	if len(words) == 0 {
		return "", false
	}
	parts := lines.Fields(words[0], accessionSeps, 0)
	switch len(parts) {
	case 0:
		return "", false
	case 1:
		return parts[0], true
	default:
		return parts[len(parts)-2], true
	}
}

// AddFile reads the FASTA file name through c and records its sequences.
// A file that cannot be opened is listed in Unopened and skipped.
func (ix *Index) AddFile(c *filex.Cache, name string) (int, error) {
	h, err := c.Open(name, "r")
	if err != nil {
		logger.Warn("Failed to open sequence file", "name", name, "err", err)
		ix.Unopened = append(ix.Unopened, name)
		return 0, nil
	}
	defer c.Release(h)

	if _, err := h.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind %s: %w", name, err)
	}

	found := 0
	first := len(ix.Sequences)
	for {
		offset := h.Position()
		line, err := h.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return found, fmt.Errorf("read %s: %w", name, err)
		}
		if len(line) == 0 || line[0] != '>' {
			continue
		}
		acc, ok := Accession(line)
		if !ok {
			continue
		}

		if found > 0 {
			prev := &ix.Sequences[len(ix.Sequences)-1]
			prev.Length = offset - prev.Offset
		}
		ix.add(acc)
		ix.Sequences = append(ix.Sequences, Sequence{File: name, Accession: acc, Offset: offset})
		found++
	}
	if found > 0 {
		last := &ix.Sequences[len(ix.Sequences)-1]
		last.Length = h.Position() - last.Offset
	}

	logger.Debug("Indexed sequence file", "name", name, "kind", filex.KindOf(h), "sequences", len(ix.Sequences)-first)
	return found, nil
}

func (ix *Index) add(acc string) {
	if _, ok := ix.slots[acc]; ok {
		return
	}
	ix.slots[acc] = len(ix.taxIDs)
	ix.taxIDs = append(ix.taxIDs, Unknown)
	ix.resolved = append(ix.resolved, false)
}

// LoadMerged reads NCBI merged.dmp ("old | new |" per line) into a map from
// retired to current taxonomy IDs. The first mapping of an ID wins.
func LoadMerged(h LineReader) (map[int]int, error) {
	merged := make(map[int]int)
	seps := append(append([]byte{}, accessionSeps...), ' ', '\t')
	for {
		line, err := h.ReadLine()
		if errors.Is(err, io.EOF) {
			return merged, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read merged IDs: %w", err)
		}
		f := lines.Fields(line, seps, 2)
		if len(f) < 2 {
			continue
		}
		oldID, ok1 := atoi(f[0])
		newID, ok2 := atoi(f[1])
		if !ok1 || !ok2 {
			continue
		}
		if _, seen := merged[oldID]; !seen {
			merged[oldID] = newID
		}
	}
}

// Resolve reads accession2taxid lines ("accession accession.version taxid
// ...") from src and records the taxonomy ID of every indexed accession,
// translated through merged. Reading stops once every accession has been
// seen. It returns the number of accessions resolved.
func (ix *Index) Resolve(src LineReader, merged map[int]int) (int, error) {
	const progressStep = 10_000_000

	found, read := 0, 0
	for found < len(ix.taxIDs) {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return found, fmt.Errorf("read accession2taxid: %w", err)
		}
		read++
		if read%progressStep == 0 {
			logger.Info("Tax IDs processed", "lines", read)
		}

		f := lines.Fields(line, lines.Whitespace, 3)
		if len(f) < 3 {
			continue
		}
		slot, ok := ix.slots[f[0]]
		if !ok {
			continue
		}
		id, ok := atoi(f[2])
		if !ok {
			continue
		}
		if newID, ok := merged[id]; ok {
			id = newID
		}
		ix.taxIDs[slot] = id
		if !ix.resolved[slot] {
			ix.resolved[slot] = true
			found++
		}
	}
	return found, nil
}

// WriteMapping writes "target\taccession\ttaxid" for every sequence to w,
// preceded by "file\tUNKNOWN" for files that could not be opened.
// Sequences without a taxonomy ID also go to rejected as
// "target\taccession". It returns the mapped and unresolved counts.
func (ix *Index) WriteMapping(w, rejected io.Writer) (mapped, unresolved int, err error) {
	for _, name := range ix.Unopened {
		if _, err := fmt.Fprintf(w, "%s\tUNKNOWN\n", name); err != nil {
			return mapped, unresolved, err
		}
	}
	for _, s := range ix.Sequences {
		id := ix.TaxID(s.Accession)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", s.Target(), s.Accession, id); err != nil {
			return mapped, unresolved, err
		}
		if id == Unknown {
			unresolved++
			if _, err := fmt.Fprintf(rejected, "%s\t%s\n", s.Target(), s.Accession); err != nil {
				return mapped, unresolved, err
			}
			continue
		}
		mapped++
	}
	return mapped, unresolved, nil
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
