package process_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowaymark/process"
	"gowaymark/process_blob"
)

func TestRead_Scalars(t *testing.T) {
	img := process_blob.NewProcessImage()
	img.AddRegion(0x10000, []byte{0xEF, 0xBE, 0xFF, 0xFF, 0x01, 0, 0, 0, 0, 0, 0, 0}, "rw-p", "")

	u16, err := process.Read[uint16](img, 0x10000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i32, err := process.Read[int32](img, 0x10000)
	require.NoError(t, err)
	assert.Equal(t, int32(-16657), i32)

	u64, err := process.Read[uint64](img, 0x10004)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u64)
}

func TestRead_Unmapped(t *testing.T) {
	img := process_blob.NewProcessImage()

	_, err := process.Read[int32](img, 0x5000)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}
