package waymark

import (
	"encoding/binary"
	"fmt"
)

// PlacementRecord layout, struct of arrays:
//
//	0x00  8 x active byte
//	0x08  8 x X int32
//	0x28  8 x Y int32
//	0x48  8 x Z int32
const (
	PlacementRecordSize = 104

	activeArrayOffset = 0x00
)

var axisArrayOffsets = [3]int{0x08, 0x28, 0x48}

// PlacementRecord is the argument of the native place-now call
type PlacementRecord struct {
	Active  [Count]bool
	X, Y, Z [Count]int32
}

func (p *PlacementRecord) axis(a int) *[Count]int32 {
	switch a {
	case 0:
		return &p.X
	case 1:
		return &p.Y
	}
	return &p.Z
}

// ParsePlacementRecord decodes exactly PlacementRecordSize bytes. Any nonzero
// active byte counts as active.
func ParsePlacementRecord(b []byte) (PlacementRecord, error) {
	var p PlacementRecord
	if len(b) != PlacementRecordSize {
		return p, fmt.Errorf("placement record is %d bytes, want %d: %w", len(b), PlacementRecordSize, ErrLengthMismatch)
	}

	for i := 0; i < Count; i++ {
		p.Active[i] = b[activeArrayOffset+i] != 0
	}
	for a, base := range axisArrayOffsets {
		arr := p.axis(a)
		for i := 0; i < Count; i++ {
			off := base + i*4
			arr[i] = int32(binary.LittleEndian.Uint32(b[off : off+4]))
		}
	}
	return p, nil
}

func (p PlacementRecord) Bytes() []byte {
	b := make([]byte, PlacementRecordSize)
	for i, on := range p.Active {
		if on {
			b[activeArrayOffset+i] = 1
		}
	}
	for a, base := range axisArrayOffsets {
		arr := p.axis(a)
		for i, v := range arr {
			off := base + i*4
			binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
		}
	}
	return b
}

// TransposeToPlacementLayout moves each waymark of r into the parallel arrays,
// keeping waymark order
func TransposeToPlacementLayout(r PresetRecord) PlacementRecord {
	var p PlacementRecord
	p.Active = DecodeActiveMask(r.Active)
	for i, pt := range r.Points {
		p.X[i], p.Y[i], p.Z[i] = pt.X, pt.Y, pt.Z
	}
	return p
}

// TransposeToPresetLayout is the inverse of TransposeToPlacementLayout. The
// placement layout has no zone or timestamp, so they are supplied by the caller.
func TransposeToPresetLayout(p PlacementRecord, zoneID uint16, timestamp int32) PresetRecord {
	r := PresetRecord{
		Active:    EncodeActiveMask(p.Active),
		ZoneID:    zoneID,
		Timestamp: timestamp,
	}
	for i := range r.Points {
		r.Points[i] = RawPoint{X: p.X[i], Y: p.Y[i], Z: p.Z[i]}
	}
	return r
}
