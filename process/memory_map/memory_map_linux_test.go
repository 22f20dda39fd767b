//go:build linux

package memory_map

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapsLine(t *testing.T) {
	item, ok := ParseMapsLine("140001000-140002000 r-xp 00001000 00:2a 1234      /home/user/Final Fantasy/ffxiv_dx11.exe")
	require.True(t, ok)

	assert.Equal(t, uint64(0x140001000), item.Address)
	assert.Equal(t, uint(0x1000), item.Size)
	assert.Equal(t, "r-xp", item.Perms)
	assert.Equal(t, "/home/user/Final Fantasy/ffxiv_dx11.exe", item.Path)
}

func TestParseMapsLine_Anonymous(t *testing.T) {
	item, ok := ParseMapsLine("7f0000000000-7f0000001000 rw-p 00000000 00:00 0")
	require.True(t, ok)
	assert.Empty(t, item.Path)
}

func TestParseMapsLine_Malformed(t *testing.T) {
	for _, line := range []string{"", "garbage", "zz-10 r-xp", "2000-1000 r-xp 0 0 0"} {
		_, ok := ParseMapsLine(line)
		assert.False(t, ok, line)
	}
}
