package waymark

import (
	"encoding/binary"
	"fmt"
)

// PresetRecord layout, array of structs:
//
//	0x00  8 x {X, Y, Z int32}
//	0x60  active mask
//	0x61  reserved, always 0
//	0x62  zone id, uint16
//	0x64  unix timestamp, int32
const (
	RecordSize = 104

	pointSize       = 12
	maskOffset      = 0x60
	reservedOffset  = 0x61
	zoneOffset      = 0x62
	timestampOffset = 0x64
)

// PresetRecord is the save slot form of a preset
type PresetRecord struct {
	Points    [Count]RawPoint
	Active    uint8
	Reserved  uint8
	ZoneID    uint16
	Timestamp int32
}

func pointOffset(i int) int {
	return i * pointSize
}

// ParsePresetRecord decodes exactly RecordSize bytes
func ParsePresetRecord(b []byte) (PresetRecord, error) {
	var r PresetRecord
	if len(b) != RecordSize {
		return r, fmt.Errorf("preset record is %d bytes, want %d: %w", len(b), RecordSize, ErrLengthMismatch)
	}

	for i := range r.Points {
		var a [3]int32
		for axis := range a {
			off := pointOffset(i) + axis*4
			a[axis] = int32(binary.LittleEndian.Uint32(b[off : off+4]))
		}
		r.Points[i] = pointFromAxes(a)
	}
	r.Active = b[maskOffset]
	r.Reserved = b[reservedOffset]
	r.ZoneID = binary.LittleEndian.Uint16(b[zoneOffset : zoneOffset+2])
	r.Timestamp = int32(binary.LittleEndian.Uint32(b[timestampOffset : timestampOffset+4]))
	return r, nil
}

// Bytes encodes the record. The reserved byte is written as 0.
func (r PresetRecord) Bytes() []byte {
	b := make([]byte, RecordSize)
	for i, p := range r.Points {
		for axis, v := range p.axes() {
			off := pointOffset(i) + axis*4
			binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
		}
	}
	b[maskOffset] = r.Active
	b[reservedOffset] = 0
	binary.LittleEndian.PutUint16(b[zoneOffset:zoneOffset+2], r.ZoneID)
	binary.LittleEndian.PutUint32(b[timestampOffset:timestampOffset+4], uint32(r.Timestamp))
	return b
}

func (r PresetRecord) IsActive(i int) bool {
	return i >= 0 && i < Count && r.Active&(1<<i) != 0
}
