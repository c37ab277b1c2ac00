// Package fserr holds the error values shared by every reader variant.
// Callers match them with errors.Is; readers wrap them with context.
package fserr

import (
	"errors"
	"fmt"
)

// Open failures
var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedMode   = errors.New("unsupported open mode")
	ErrMalformedAddress  = errors.New("malformed archive entry address")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrEntryNotFound     = errors.New("archive entry not found")
)

// Decode failures
var (
	ErrDecode   = errors.New("corrupted compressed data")
	ErrChecksum = errors.New("checksum mismatch")
)

// Seek failures
var (
	ErrSeekUnsupported = errors.New("seek mode not supported")
	ErrSeekRange       = errors.New("seek target out of range")
)

// Class names the failure class of err for log output.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnsupportedMode),
		errors.Is(err, ErrMalformedAddress), errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrEntryNotFound):
		return "open"
	case errors.Is(err, ErrDecode), errors.Is(err, ErrChecksum):
		return "decode"
	case errors.Is(err, ErrSeekUnsupported), errors.Is(err, ErrSeekRange):
		return "seek"
	default:
		return "io"
	}
}

// CheckMode accepts the read-only modes "r" and "rb".
func CheckMode(mode string) error {
	switch mode {
	case "r", "rb":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
}
