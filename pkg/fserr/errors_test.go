package fserr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("open a.txt: %w", ErrNotFound), "open"},
		{fmt.Errorf("x: %w", ErrEntryNotFound), "open"},
		{fmt.Errorf("%w: %w", ErrDecode, errors.New("flate: corrupt input")), "decode"},
		{ErrChecksum, "decode"},
		{fmt.Errorf("%w: %w", ErrSeekRange, io.ErrUnexpectedEOF), "seek"},
		{ErrSeekUnsupported, "seek"},
		{io.ErrClosedPipe, "io"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Class(tt.err), "%v", tt.err)
	}
}

func TestCheckMode(t *testing.T) {
	assert.NoError(t, CheckMode("r"))
	assert.NoError(t, CheckMode("rb"))
	for _, m := range []string{"w", "r+", "a", ""} {
		assert.ErrorIs(t, CheckMode(m), ErrUnsupportedMode, m)
	}
}
