// Package waymark holds the native waymark record layouts and the conversions
// between them. Every layout is decoded from explicit byte offsets, never by
// reinterpreting a Go struct.
package waymark

import (
	"errors"
	"math"
)

// Count is the number of waymarks in a preset, ordered A, B, C, D, 1, 2, 3, 4
const Count = 8

// Names are the waymark labels in record order
var Names = [Count]string{"A", "B", "C", "D", "1", "2", "3", "4"}

// ErrLengthMismatch is returned when a buffer is not the size of the layout it is parsed as
var ErrLengthMismatch = errors.New("record length mismatch")

// FixedPointScale converts world units to the integer encoding
const FixedPointScale = 1000

// ToFixedPoint scales v by 1000 and truncates toward zero, saturating at the int32 range
func ToFixedPoint(v float32) int32 {
	return saturate(math.Trunc(float64(v) * FixedPointScale))
}

// RoundFixedPoint scales v by 1000 and rounds to the nearest unit. It inverts
// ExactFloat for every int32, which ToFixedPoint does not.
func RoundFixedPoint(v float64) int32 {
	return saturate(math.Round(v * FixedPointScale))
}

// ExactFloat is the world value of fixed in float64, used for text formats
func ExactFloat(fixed int32) float64 {
	return float64(fixed) / FixedPointScale
}

func saturate(scaled float64) int32 {
	switch {
	case math.IsNaN(scaled):
		return 0
	case scaled >= math.MaxInt32:
		return math.MaxInt32
	case scaled <= math.MinInt32:
		return math.MinInt32
	}
	return int32(scaled)
}

// ToFloat is the world value of a fixed-point coordinate
func ToFloat(fixed int32) float32 {
	return float32(float64(fixed) / FixedPointScale)
}

// RawPoint is a fixed-point position
type RawPoint struct {
	X, Y, Z int32
}

func (p RawPoint) axes() [3]int32 {
	return [3]int32{p.X, p.Y, p.Z}
}

func pointFromAxes(a [3]int32) RawPoint {
	return RawPoint{X: a[0], Y: a[1], Z: a[2]}
}

// EncodeActiveMask packs the flags with bit i for waymark i
func EncodeActiveMask(flags [Count]bool) uint8 {
	var mask uint8
	for i, on := range flags {
		if on {
			mask |= 1 << i
		}
	}
	return mask
}

// DecodeActiveMask unpacks a mask built by EncodeActiveMask
func DecodeActiveMask(mask uint8) [Count]bool {
	var flags [Count]bool
	for i := range flags {
		flags[i] = mask&(1<<i) != 0
	}
	return flags
}
