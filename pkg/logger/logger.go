package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"streamfile/pkg/env"
	"streamfile/pkg/paths"
)

// Log is usable before Init; it then writes INFO and above to stderr.
var Log = slog.New(slog.NewTextHandler(os.Stderr, nil))

var (
	output      io.Writer = os.Stderr
	outputMu    sync.Mutex
	logFile     *os.File
	logFileMu   sync.Mutex
	logLocation *time.Location
	locationMu  sync.RWMutex
)

const timeLayout = "2006-01-02T15:04:05.000-07:00"

// ParseLevel maps a level name to a slog level, INFO when unknown.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetOutput redirects console output. It takes effect on the next Init.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}

// Init initializes the global logger. Records go to stderr (stdout carries
// program data) and, when LOG_FILE is set, to a per-day file in the data
// directory.
func Init(levelStr string) {
	level := ParseLevel(levelStr)

	tzEnv := env.TZ()
	loc := time.Local
	if tzEnv != "" {
		if loaded, err := time.LoadLocation(tzEnv); err == nil {
			loc = loaded
		}
	}
	locationMu.Lock()
	logLocation = loc
	locationMu.Unlock()

	if env.LogToFile() {
		openLogFile(loc)
	}

	tzLoc := loc
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().In(tzLoc).Format(timeLayout))
			}
			return a
		},
	}

	outputMu.Lock()
	w := output
	outputMu.Unlock()

	Log = slog.New(&fileHandler{Handler: slog.NewTextHandler(w, opts)})
	slog.SetDefault(Log)

	Log.Debug("Logger initialized", "timezone", loc.String(), "tz_env", tzEnv)
}

// EnableFile starts mirroring records into the per-day log file.
func EnableFile() {
	locationMu.RLock()
	loc := logLocation
	locationMu.RUnlock()
	if loc == nil {
		loc = time.Local
	}
	openLogFile(loc)
}

func openLogFile(loc *time.Location) {
	dataDir := paths.GetDataDir()
	name := fmt.Sprintf("streamfile-%s.log", time.Now().In(loc).Format("2006-01-02"))
	path := filepath.Join(dataDir, name)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		return
	}

	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", path, err)
		logFile = nil
		return
	}
	logFile = f
}

// fileHandler mirrors every record into the log file, if one is open.
type fileHandler struct {
	slog.Handler
}

func (h *fileHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.Handler.Handle(ctx, r)

	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile == nil {
		return err
	}

	locationMu.RLock()
	loc := logLocation
	locationMu.RUnlock()
	if loc == nil {
		loc = time.Local
	}

	msg := fmt.Sprintf("time=%s level=%s msg=%q", r.Time.In(loc).Format(timeLayout), r.Level, r.Message)
	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	fmt.Fprintln(logFile, msg)
	return err
}

func (h *fileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fileHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *fileHandler) WithGroup(name string) slog.Handler {
	return &fileHandler{Handler: h.Handler.WithGroup(name)}
}

// SetLevel updates the logger level at runtime
func SetLevel(levelStr string) {
	Init(levelStr)
}

// Close closes the log file if one is open
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Helper functions for easy access
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
