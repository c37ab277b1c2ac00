// Package env consolidates all environment variable reading for the application.
// Config overrides are applied only at startup (see config.Load).
package env

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	LOGLevel             = "LOG_LEVEL"
	LOGFile              = "LOG_FILE"
	TZVar                = "TZ"
	DataDirVar           = "STREAMFILE_DATA_DIR"
	RingBufferSize       = "RING_BUFFER_SIZE"
	InputChunkSize       = "INPUT_CHUNK_SIZE"
	LineChunkSize        = "LINE_CHUNK_SIZE"
	ArchiveBlockSize     = "ARCHIVE_BLOCK_SIZE"
	ArchiveLookaheadSize = "ARCHIVE_LOOKAHEAD_SIZE"
)

// Config JSON keys returned by ReadConfigOverrides
const (
	KeyLogLevel         = "log_level"
	KeyLogFile          = "log_file"
	KeyRingBufferSize   = "ring_buffer_size"
	KeyInputChunkSize   = "input_chunk_size"
	KeyLineChunkSize    = "line_chunk_size"
	KeyArchiveBlockSize = "archive_block_size"
	KeyArchiveLookahead = "archive_lookahead_size"
)

// TZ returns the TZ environment variable (e.g. for logger timezone).
func TZ() string {
	return os.Getenv(TZVar)
}

// DataDir returns STREAMFILE_DATA_DIR, empty when unset.
func DataDir() string {
	return os.Getenv(DataDirVar)
}

// LogLevel returns LOG_LEVEL with default "INFO" (for early logger init before config).
func LogLevel() string {
	return getEnv(LOGLevel, "INFO")
}

// LogToFile reports whether LOG_FILE asks for a per-day log file.
func LogToFile() bool {
	return getEnvBool(LOGFile, false)
}

// ConfigOverrides holds all config values that can be set via environment variables.
type ConfigOverrides struct {
	LogLevel             string
	LogFile              bool
	RingBufferSize       int
	InputChunkSize       int
	LineChunkSize        int
	ArchiveBlockSize     int
	ArchiveLookaheadSize int
}

// ReadConfigOverrides reads all relevant environment variables once and returns
// overrides to apply to config plus the list of config JSON keys that were set.
// Sizes that do not parse as positive integers are ignored.
func ReadConfigOverrides() (ConfigOverrides, []string) {
	var o ConfigOverrides
	var keys []string

	if v := os.Getenv(LOGLevel); v != "" {
		o.LogLevel = v
		keys = append(keys, KeyLogLevel)
	}
	if os.Getenv(LOGFile) != "" {
		o.LogFile = LogToFile()
		keys = append(keys, KeyLogFile)
	}

	sizes := []struct {
		name string
		key  string
		dst  *int
	}{
		{RingBufferSize, KeyRingBufferSize, &o.RingBufferSize},
		{InputChunkSize, KeyInputChunkSize, &o.InputChunkSize},
		{LineChunkSize, KeyLineChunkSize, &o.LineChunkSize},
		{ArchiveBlockSize, KeyArchiveBlockSize, &o.ArchiveBlockSize},
		{ArchiveLookaheadSize, KeyArchiveLookahead, &o.ArchiveLookaheadSize},
	}
	for _, s := range sizes {
		if n := getEnvInt(s.name, 0); n > 0 {
			*s.dst = n
			keys = append(keys, s.key)
		}
	}

	return o, keys
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true" || v == "1"
	}
	return defaultVal
}
