//go:build linux

package process_linux

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstArgBase(t *testing.T) {
	assert.Equal(t, "ffxiv_dx11.exe", firstArgBase([]byte("C:\\Games\\game\\ffxiv_dx11.exe\x00-arg\x00")))
	assert.Equal(t, "wine64", firstArgBase([]byte("/usr/bin/wine64\x00")))
	assert.Equal(t, "", firstArgBase(nil))
}

func TestBytesTrimNL(t *testing.T) {
	assert.Equal(t, []byte("ffxiv_dx11.exe"), bytesTrimNL([]byte("ffxiv_dx11.exe\n")))
	assert.Empty(t, bytesTrimNL([]byte("\n\t ")))
}

func TestListByName_Empty(t *testing.T) {
	_, err := ListByName("")
	assert.Error(t, err)
}

func TestOneByName_NotFound(t *testing.T) {
	_, err := OneByName("definitely-not-a-running-process-name")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcExists_Self(t *testing.T) {
	assert.True(t, procExists(os.Getpid()))
}
