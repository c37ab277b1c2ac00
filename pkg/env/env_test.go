package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadConfigOverrides(t *testing.T) {
	t.Setenv(LOGLevel, "debug")
	t.Setenv(LOGFile, "1")
	t.Setenv(RingBufferSize, "65536")
	t.Setenv(InputChunkSize, "not-a-number")
	t.Setenv(LineChunkSize, "-5")
	t.Setenv(ArchiveBlockSize, "")
	t.Setenv(ArchiveLookaheadSize, "4096")

	o, keys := ReadConfigOverrides()

	assert.Equal(t, "debug", o.LogLevel)
	assert.True(t, o.LogFile)
	assert.Equal(t, 65536, o.RingBufferSize)
	assert.Zero(t, o.InputChunkSize)
	assert.Zero(t, o.LineChunkSize)
	assert.Equal(t, 4096, o.ArchiveLookaheadSize)
	assert.ElementsMatch(t, []string{KeyLogLevel, KeyLogFile, KeyRingBufferSize, KeyArchiveLookahead}, keys)
}

func TestLogLevelDefault(t *testing.T) {
	t.Setenv(LOGLevel, "")
	assert.Equal(t, "INFO", LogLevel())
}
