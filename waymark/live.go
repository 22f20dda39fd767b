package waymark

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LiveWaymark layout inside the host's waymark object:
//
//	0x00  X, Y, Z float32
//	0x0C  X, Y, Z int32, fixed point
//	0x18  active byte
const (
	LiveWaymarkSize = 0x19

	DefaultLiveOffset = 0x1E0
	DefaultLiveStride = 0x20

	liveFloatOffset  = 0x00
	liveFixedOffset  = 0x0C
	liveActiveOffset = 0x18
)

// LiveWaymark is one marker as the running game holds it. The float position is
// authoritative while the game moves a marker.
type LiveWaymark struct {
	X, Y, Z    float32
	XI, YI, ZI int32
	Active     bool
}

// NewLiveWaymark fills both encodings from a fixed-point position
func NewLiveWaymark(p RawPoint, active bool) LiveWaymark {
	return LiveWaymark{
		X: ToFloat(p.X), Y: ToFloat(p.Y), Z: ToFloat(p.Z),
		XI: p.X, YI: p.Y, ZI: p.Z,
		Active: active,
	}
}

// Point is the fixed-point position derived from the float fields
func (w LiveWaymark) Point() RawPoint {
	return RawPoint{X: ToFixedPoint(w.X), Y: ToFixedPoint(w.Y), Z: ToFixedPoint(w.Z)}
}

// ParseLiveWaymark decodes the first LiveWaymarkSize bytes of b
func ParseLiveWaymark(b []byte) (LiveWaymark, error) {
	var w LiveWaymark
	if len(b) < LiveWaymarkSize {
		return w, fmt.Errorf("live waymark is %d bytes, want %d: %w", len(b), LiveWaymarkSize, ErrLengthMismatch)
	}

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4])) }
	n := func(off int) int32 { return int32(binary.LittleEndian.Uint32(b[off : off+4])) }

	w.X, w.Y, w.Z = f(liveFloatOffset), f(liveFloatOffset+4), f(liveFloatOffset+8)
	w.XI, w.YI, w.ZI = n(liveFixedOffset), n(liveFixedOffset+4), n(liveFixedOffset+8)
	w.Active = b[liveActiveOffset] != 0
	return w, nil
}

func (w LiveWaymark) Bytes() []byte {
	b := make([]byte, LiveWaymarkSize)
	for i, v := range [3]float32{w.X, w.Y, w.Z} {
		off := liveFloatOffset + i*4
		binary.LittleEndian.PutUint32(b[off:off+4], math.Float32bits(v))
	}
	for i, v := range [3]int32{w.XI, w.YI, w.ZI} {
		off := liveFixedOffset + i*4
		binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
	}
	if w.Active {
		b[liveActiveOffset] = 1
	}
	return b
}
