package preset

import (
	"fmt"
	"math"
	"time"

	"gowaymark/waymark"
)

// FromRecord converts a save slot record. A zero timestamp becomes the zero time.
func FromRecord(r waymark.PresetRecord) Preset {
	p := New(DefaultName, r.ZoneID)
	for i, w := range p.waymarks() {
		pt := r.Points[i]
		w.X, w.Y, w.Z = pt.X, pt.Y, pt.Z
		w.Active = r.IsActive(i)
	}
	if r.Timestamp != 0 {
		p.LastModified = time.Unix(int64(r.Timestamp), 0).UTC()
	}
	return p
}

// ToRecord builds the save slot record. Inactive waymarks are written as the
// origin, so their coordinates do not survive a round trip.
func (p Preset) ToRecord() waymark.PresetRecord {
	var r waymark.PresetRecord
	var flags [waymark.Count]bool
	for i, w := range p.Waymarks() {
		flags[i] = w.Active
		if w.Active {
			r.Points[i] = w.Point()
		}
	}
	r.Active = waymark.EncodeActiveMask(flags)
	r.ZoneID = p.MapID
	r.Timestamp = unixSeconds(p.LastModified)
	return r
}

func unixSeconds(t time.Time) int32 {
	if t.IsZero() {
		return 0
	}
	s := t.Unix()
	switch {
	case s > math.MaxInt32:
		return math.MaxInt32
	case s < math.MinInt32:
		return math.MinInt32
	}
	return int32(s)
}

// Decode parses exactly one save slot record
func Decode(b []byte) (Preset, error) {
	r, err := waymark.ParsePresetRecord(b)
	if err != nil {
		return Preset{}, err
	}
	return FromRecord(r), nil
}

// Encode produces the save slot record bytes
func Encode(p Preset) ([]byte, error) {
	b := p.ToRecord().Bytes()
	if len(b) != waymark.RecordSize {
		return nil, fmt.Errorf("%d bytes: %w", len(b), ErrInternalLength)
	}
	return b, nil
}

// ToPlacementRecord is the argument for placing p directly
func (p Preset) ToPlacementRecord() waymark.PlacementRecord {
	return waymark.TransposeToPlacementLayout(p.ToRecord())
}

// FromPlacementRecord builds a preset from the live layout
func FromPlacementRecord(rec waymark.PlacementRecord, zoneID uint16, at time.Time) Preset {
	p := FromRecord(waymark.TransposeToPresetLayout(rec, zoneID, 0))
	p.LastModified = at
	return p
}
