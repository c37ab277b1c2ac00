package paths

import (
	"os"

	"streamfile/pkg/env"
)

// GetDataDir returns the directory holding config.json and log files.
// STREAMFILE_DATA_DIR wins when set. Inside a container (/.dockerenv exists)
// it is /app/data, otherwise the current directory.
func GetDataDir() string {
	if dir := env.DataDir(); dir != "" {
		return dir
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "/app/data"
	}
	return "."
}
