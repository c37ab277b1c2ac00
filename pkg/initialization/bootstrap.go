package initialization

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"streamfile/pkg/config"
	"streamfile/pkg/filex"
	"streamfile/pkg/logger"
)

// InitializedComponents holds all the components initialized during bootstrap
type InitializedComponents struct {
	Config *config.Config
	Fs     afero.Fs
	// Cache serves sequence files and extraction targets. It is used from
	// one goroutine only.
	Cache *filex.Cache
}

// ExitWithError logs err and exits with status 1. Standard input may carry
// data, so unlike an interactive program it never waits for a key press.
func ExitWithError(err error) {
	logger.Error("Fatal error", "err", err)
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	logger.Close()
	os.Exit(1)
}

// Bootstrap coordinates the application startup sequence. logLevel, when
// set, wins over the configured level.
func Bootstrap(configPath, logLevel string) (*InitializedComponents, error) {
	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// 2. Apply logging settings
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFile {
		logger.EnableFile()
	}

	// 3. Build the file cache
	fs := afero.NewOsFs()
	cache := filex.NewCache(cfg.ReaderOptions(fs))

	logger.Debug("Bootstrap complete",
		"config", cfg.LoadedPath,
		"ring_buffer_size", cfg.RingBufferSize,
		"input_chunk_size", cfg.InputChunkSize,
		"archive_block_size", cfg.ArchiveBlockSize)

	return &InitializedComponents{Config: cfg, Fs: fs, Cache: cache}, nil
}
