package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"streamfile/pkg/archive"
	"streamfile/pkg/env"
	"streamfile/pkg/filex"
	"streamfile/pkg/gzfile"
	"streamfile/pkg/logger"
	"streamfile/pkg/paths"
)

// Config holds application configuration
type Config struct {
	LogLevel string `json:"log_level"`
	LogFile  bool   `json:"log_file"`

	// Compressed streams
	RingBufferSize int `json:"ring_buffer_size"`
	InputChunkSize int `json:"input_chunk_size"`
	LineChunkSize  int `json:"line_chunk_size"`

	// Archives
	ArchiveBlockSize     int `json:"archive_block_size"`
	ArchiveLookaheadSize int `json:"archive_lookahead_size"`

	// Internal - where was this config loaded from?
	LoadedPath string `json:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:             "INFO",
		RingBufferSize:       gzfile.DefaultRingSize,
		InputChunkSize:       gzfile.DefaultInputSize,
		LineChunkSize:        gzfile.DefaultLineChunk,
		ArchiveBlockSize:     archive.DefaultBlockSize,
		ArchiveLookaheadSize: archive.DefaultLookahead,
	}
}

// Load reads configuration once at startup.
// Priority: environment variables (if set) > config file > defaults.
// An empty path means config.json in the data directory; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(paths.GetDataDir(), "config.json")
	}

	cfg := Default()
	cfg.LoadedPath = path

	if err := cfg.LoadFile(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		logger.Debug("No config file, using defaults", "path", path)
	} else {
		logger.Info("Loaded configuration", "path", path)
	}

	overrides, keys := env.ReadConfigOverrides()
	ApplyEnvOverrides(cfg, overrides, keys)
	if len(keys) > 0 {
		logger.Debug("Applied environment overrides", "keys", keys)
	}

	cfg.Validate()
	return cfg, nil
}

// LoadFile overrides config with values from a JSON file
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return err
	}
	return nil
}

// Validate replaces non-positive sizes with defaults and grows the ring
// buffer to hold at least one line chunk.
func (c *Config) Validate() {
	d := Default()
	fix := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fix(&c.RingBufferSize, d.RingBufferSize)
	fix(&c.InputChunkSize, d.InputChunkSize)
	fix(&c.LineChunkSize, d.LineChunkSize)
	fix(&c.ArchiveBlockSize, d.ArchiveBlockSize)
	fix(&c.ArchiveLookaheadSize, d.ArchiveLookaheadSize)

	if c.RingBufferSize < c.LineChunkSize {
		logger.Warn("Ring buffer smaller than line chunk, growing it",
			"ring_buffer_size", c.RingBufferSize, "line_chunk_size", c.LineChunkSize)
		c.RingBufferSize = c.LineChunkSize
	}
}

// ReaderOptions returns the options handed to filex for every open.
func (c *Config) ReaderOptions(fs afero.Fs) filex.Options {
	return filex.Options{
		Fs:        fs,
		RingSize:  c.RingBufferSize,
		InputSize: c.InputChunkSize,
		LineChunk: c.LineChunkSize,
		BlockSize: c.ArchiveBlockSize,
		Lookahead: c.ArchiveLookaheadSize,
	}
}

// keySet returns true if s is in list.
func keySet(list []string, s string) bool {
	for _, k := range list {
		if k == s {
			return true
		}
	}
	return false
}

// ApplyEnvOverrides applies environment-derived overrides to cfg (used at startup only).
// Only fields present in keys are applied, so env vars override file values per setting.
func ApplyEnvOverrides(cfg *Config, o env.ConfigOverrides, keys []string) {
	if keySet(keys, env.KeyLogLevel) {
		cfg.LogLevel = o.LogLevel
	}
	if keySet(keys, env.KeyLogFile) {
		cfg.LogFile = o.LogFile
	}
	if keySet(keys, env.KeyRingBufferSize) {
		cfg.RingBufferSize = o.RingBufferSize
	}
	if keySet(keys, env.KeyInputChunkSize) {
		cfg.InputChunkSize = o.InputChunkSize
	}
	if keySet(keys, env.KeyLineChunkSize) {
		cfg.LineChunkSize = o.LineChunkSize
	}
	if keySet(keys, env.KeyArchiveBlockSize) {
		cfg.ArchiveBlockSize = o.ArchiveBlockSize
	}
	if keySet(keys, env.KeyArchiveLookahead) {
		cfg.ArchiveLookaheadSize = o.ArchiveLookaheadSize
	}
}
