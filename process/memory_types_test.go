package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAOB_Wildcards(t *testing.T) {
	aob, err := ParseAOB("48 8B ?? ? 05")
	require.NoError(t, err)

	assert.Equal(t, []byte{0x48, 0x8B, 0x00, 0x00, 0x05}, aob.Pattern)
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0x00, 0xFF}, aob.Mask)
	assert.True(t, aob.IsValid())
	assert.Equal(t, "48 8B ?? ?? 05", aob.String())
}

func TestParseAOB_CommaSeparated(t *testing.T) {
	aob, err := ParseAOB("e8,??,ba,ad")
	require.NoError(t, err)
	assert.Equal(t, 4, aob.Len())
	assert.Equal(t, byte(0xE8), aob.Pattern[0])
}

func TestParseAOB_Invalid(t *testing.T) {
	_, err := ParseAOB("")
	assert.Error(t, err)

	_, err = ParseAOB("48 GG")
	assert.Error(t, err)

	_, err = ParseAOB("480")
	assert.Error(t, err, "three hex digits do not fit a byte")
}

func TestAOB_MatchAt(t *testing.T) {
	aob := MustParseAOB("01 ?? 03")
	data := []byte{0x00, 0x01, 0x7F, 0x03, 0x01}

	assert.False(t, aob.MatchAt(data, 0))
	assert.True(t, aob.MatchAt(data, 1))
	assert.False(t, aob.MatchAt(data, 3), "pattern would run past the end")
	assert.False(t, aob.MatchAt(data, -1))
}

func TestNewAOB_LengthMismatch(t *testing.T) {
	_, err := NewAOB([]byte{1, 2}, []byte{0xFF})
	assert.Error(t, err)

	exact := ExactAOB([]byte{1, 2})
	assert.Equal(t, []byte{0xFF, 0xFF}, exact.Mask)
}

func TestProcessMemoryAddress_Add(t *testing.T) {
	base := ProcessMemoryAddress(0x1000)
	assert.Equal(t, ProcessMemoryAddress(0x0FF0), base.Add(-0x10))
	assert.Equal(t, ProcessMemoryAddress(0x1010), base.Add(0x10))
	assert.Equal(t, "0x1000", base.ToString())
}
