package memory_map

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMap() []MemoryMapItem {
	return []MemoryMapItem{
		{Address: 0x3000, Size: 0x1000, Perms: "rw-p", Path: "/games/ffxiv_dx11.exe"},
		{Address: 0x1000, Size: 0x1000, Perms: "r--p", Path: "/games/ffxiv_dx11.exe"},
		{Address: 0x2000, Size: 0x1000, Perms: "r-xp", Path: "/games/FFXIV_DX11.EXE"},
		{Address: 0x8000, Size: 0x1000, Perms: "r-xp", Path: "/usr/lib/libc.so.6"},
		{Address: 0x9000, Size: 0x1000, Perms: "rw-p"},
	}
}

func TestMemoryMapItem_Perms(t *testing.T) {
	item := MemoryMapItem{Perms: "r-xp"}
	assert.True(t, item.IsReadable())
	assert.False(t, item.IsWritable())
	assert.True(t, item.IsExecutable())

	assert.False(t, MemoryMapItem{}.IsReadable(), "empty perms must not panic")
}

func TestExecutableRegions_FiltersByModule(t *testing.T) {
	regions := ExecutableRegions("ffxiv_dx11.exe", testMap())

	require.Len(t, regions, 1)
	assert.Equal(t, uint64(0x2000), regions[0].Address)

	all := ExecutableRegions("", testMap())
	require.Len(t, all, 2)
	assert.Equal(t, uint64(0x2000), all[0].Address, "regions are returned in address order")
}

func TestModuleBase(t *testing.T) {
	base, ok := ModuleBase("ffxiv_dx11.exe", testMap())
	require.True(t, ok)
	assert.Equal(t, uint64(0x1000), base)

	_, ok = ModuleBase("missing.exe", testMap())
	assert.False(t, ok)
}

func TestIsValidAddress2_SortedLookup(t *testing.T) {
	mm := testMap()
	Sort(mm)

	item := IsValidAddress2(0x2FFF, mm)
	require.NotNil(t, item)
	assert.Equal(t, uint64(0x2000), item.Address)

	assert.Nil(t, IsValidAddress2(0x5000, mm))
	assert.True(t, IsValidAddress(0x9000, mm))
	assert.False(t, IsValidAddress(0xA000, mm))
}
