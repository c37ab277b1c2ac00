package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"streamfile/pkg/env"
	"streamfile/pkg/filex"
	"streamfile/pkg/initialization"
	"streamfile/pkg/lines"
	"streamfile/pkg/logger"
	"streamfile/pkg/plain"
	"streamfile/pkg/taxid"
)

var (
	flagConfig   = pflag.StringP("config", "c", "", "config file (default: config.json in the data directory)")
	flagLogLevel = pflag.StringP("log-level", "l", "", "log level: DEBUG, INFO, WARN or ERROR")
	flagInput    = pflag.StringP("input", "i", "", "read accession2taxid from this address instead of standard input")
	flagRejected = pflag.StringP("rejected", "r", "", "file for unresolved sequences (default: <file of filenames>_rejected)")
	flagExtract  = pflag.BoolP("extract", "x", false, "copy the records named by file:offset;length targets to standard output")
	flagHelp     = pflag.BoolP("help", "h", false, "give this help")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: cat nucl_accession2taxid | %s [flags] <file of filenames> <merged.dmp>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s --extract [flags] <target>...\n\n", os.Args[0])
	pflag.PrintDefaults()
}

func main() {
	// Load environment variables for logger and bootstrap
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	// Initialize Logger early so bootstrap can use it
	logger.Init(env.LogLevel())

	pflag.Usage = usage
	pflag.Parse()
	if *flagHelp {
		usage()
		return
	}

	comp, err := initialization.Bootstrap(*flagConfig, *flagLogLevel)
	if err != nil {
		initialization.ExitWithError(err)
	}
	defer logger.Close()
	defer comp.Cache.Close()

	if *flagExtract {
		if pflag.NArg() == 0 {
			usage()
			os.Exit(2)
		}
		if err := extract(comp, pflag.Args()); err != nil {
			initialization.ExitWithError(err)
		}
		return
	}

	if pflag.NArg() != 2 {
		usage()
		os.Exit(2)
	}
	if err := run(comp, pflag.Arg(0), pflag.Arg(1)); err != nil {
		initialization.ExitWithError(err)
	}
}

func extract(comp *initialization.InitializedComponents, targets []string) error {
	out := bufio.NewWriter(os.Stdout)
	for _, target := range targets {
		n, err := taxid.Extract(comp.Cache, target, out)
		if err != nil {
			return err
		}
		logger.Debug("Extracted record", "target", target, "bytes", n)
	}
	return out.Flush()
}

func run(comp *initialization.InitializedComponents, fofName, mergedName string) error {
	opts := comp.Config.ReaderOptions(comp.Fs)
	ix := taxid.NewIndex()

	// The merged table and the sequence index are independent. Each
	// goroutine owns its handles; only the indexer touches the cache.
	var merged map[int]int
	var g errgroup.Group
	g.Go(func() error {
		h, err := filex.Open(mergedName, "r", opts)
		if err != nil {
			return fmt.Errorf("open merged IDs: %w", err)
		}
		defer h.Close()
		m, err := taxid.LoadMerged(h)
		if err != nil {
			return err
		}
		merged = m
		logger.Info("Loaded merged tax IDs", "count", len(m))
		return nil
	})
	g.Go(func() error {
		return indexFiles(comp.Cache, ix, fofName, opts)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Indexed sequences",
		"sequences", len(ix.Sequences),
		"accessions", ix.Accessions(),
		"unopened", len(ix.Unopened))

	src, closeSrc, err := openInput(opts, comp.Config.InputChunkSize)
	if err != nil {
		return err
	}
	found, err := ix.Resolve(src, merged)
	closeSrc()
	if err != nil {
		return err
	}
	logger.Info("Resolved accessions", "found", found, "of", ix.Accessions())

	rejectedName := *flagRejected
	if rejectedName == "" {
		rejectedName = fofName + "_rejected"
	}
	rf, err := os.Create(rejectedName)
	if err != nil {
		return fmt.Errorf("create rejected file: %w", err)
	}
	defer rf.Close()

	out := bufio.NewWriter(os.Stdout)
	rejected := bufio.NewWriter(rf)
	mapped, unresolved, err := ix.WriteMapping(out, rejected)
	if err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	if err := errors.Join(out.Flush(), rejected.Flush()); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	logger.Info("Mapping written",
		"mapped", mapped,
		"unresolved", unresolved,
		"unopened", len(ix.Unopened),
		"rejected_file", rejectedName)
	return nil
}

// indexFiles reads one sequence file address per line from fofName and
// indexes each through the cache. Blank lines are skipped.
func indexFiles(c *filex.Cache, ix *taxid.Index, fofName string, opts filex.Options) error {
	fof, err := filex.Open(fofName, "r", opts)
	if err != nil {
		return fmt.Errorf("open file of filenames: %w", err)
	}
	defer fof.Close()

	for {
		line, err := fof.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read file of filenames: %w", err)
		}
		name := lines.Unquote(strings.TrimSpace(line))
		if name == "" {
			continue
		}
		if _, err := ix.AddFile(c, name); err != nil {
			return err
		}
	}
}

func openInput(opts filex.Options, bufSize int) (taxid.LineReader, func(), error) {
	if *flagInput == "" {
		return plain.NewFile("stdin", os.Stdin, bufSize), func() {}, nil
	}
	h, err := filex.Open(*flagInput, "r", opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open accession2taxid: %w", err)
	}
	return h, func() { h.Close() }, nil
}
