// Package preset is the domain form of a waymark preset and its codecs
package preset

import (
	"errors"
	"time"

	"gowaymark/waymark"
)

var (
	// ErrLengthMismatch is returned by Decode for input that is not one record long
	ErrLengthMismatch = waymark.ErrLengthMismatch

	ErrInternalLength = errors.New("encoded record has wrong length")

	// ErrMalformedImport wraps the parse error of rejected import text
	ErrMalformedImport = errors.New("malformed preset import")
)

// DefaultName is given to presets decoded from memory
const DefaultName = "Unknown"

// Waymark is one marker. Coordinates are fixed point, value * 1000.
type Waymark struct {
	X, Y, Z int32
	ID      uint8
	Active  bool
}

// Point is the fixed-point position
func (w Waymark) Point() waymark.RawPoint {
	return waymark.RawPoint{X: w.X, Y: w.Y, Z: w.Z}
}

func (w Waymark) sameAs(o Waymark) bool {
	return w.X == o.X && w.Y == o.Y && w.Z == o.Z && w.Active == o.Active
}

// Preset is a named set of eight waymarks for one zone. It holds no references,
// so a plain assignment is a full copy.
type Preset struct {
	Name  string
	MapID uint16

	A, B, C, D            Waymark
	One, Two, Three, Four Waymark

	LastModified time.Time
}

// New returns an empty preset with waymark IDs assigned
func New(name string, mapID uint16) Preset {
	p := Preset{Name: name, MapID: mapID}
	for i, w := range p.waymarks() {
		w.ID = uint8(i)
	}
	return p
}

func (p *Preset) waymarks() [waymark.Count]*Waymark {
	return [waymark.Count]*Waymark{&p.A, &p.B, &p.C, &p.D, &p.One, &p.Two, &p.Three, &p.Four}
}

// Waymarks returns the markers in record order A, B, C, D, 1, 2, 3, 4
func (p Preset) Waymarks() [waymark.Count]Waymark {
	var out [waymark.Count]Waymark
	for i, w := range p.waymarks() {
		out[i] = *w
	}
	return out
}

// SetWaymark replaces the marker at record index i
func (p *Preset) SetWaymark(i int, w Waymark) {
	if i < 0 || i >= waymark.Count {
		return
	}
	w.ID = uint8(i)
	*p.waymarks()[i] = w
}

// Equals compares the waymarks and zone. Name and timestamp are ignored.
func (p Preset) Equals(o Preset) bool {
	if p.MapID != o.MapID {
		return false
	}
	a, b := p.Waymarks(), o.Waymarks()
	for i := range a {
		if !a[i].sameAs(b[i]) {
			return false
		}
	}
	return true
}
