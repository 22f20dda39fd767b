package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gowaymark/waymark"
)

// Coordinates are float64 world units so every fixed-point value survives
// formatting and parsing unchanged
type jsonWaymark struct {
	X      float64
	Y      float64
	Z      float64
	ID     uint8
	Active bool
}

type jsonPreset struct {
	Name  string
	MapID uint16

	A     jsonWaymark
	B     jsonWaymark
	C     jsonWaymark
	D     jsonWaymark
	One   jsonWaymark
	Two   jsonWaymark
	Three jsonWaymark
	Four  jsonWaymark

	LastModified *time.Time `json:",omitempty"`
}

func (j *jsonPreset) waymarks() [waymark.Count]*jsonWaymark {
	return [waymark.Count]*jsonWaymark{&j.A, &j.B, &j.C, &j.D, &j.One, &j.Two, &j.Three, &j.Four}
}

func toJSON(p Preset, withTimestamp bool) jsonPreset {
	j := jsonPreset{Name: p.Name, MapID: p.MapID}
	for i, w := range p.Waymarks() {
		*j.waymarks()[i] = jsonWaymark{
			X: waymark.ExactFloat(w.X), Y: waymark.ExactFloat(w.Y), Z: waymark.ExactFloat(w.Z),
			ID:     uint8(i),
			Active: w.Active,
		}
	}
	if withTimestamp && !p.LastModified.IsZero() {
		t := p.LastModified
		j.LastModified = &t
	}
	return j
}

func fromJSON(j jsonPreset) Preset {
	p := New(j.Name, j.MapID)
	for i, jw := range j.waymarks() {
		w := Waymark{
			X:      waymark.RoundFixedPoint(jw.X),
			Y:      waymark.RoundFixedPoint(jw.Y),
			Z:      waymark.RoundFixedPoint(jw.Z),
			Active: jw.Active,
		}
		p.SetWaymark(i, w)
	}
	if j.LastModified != nil {
		p.LastModified = *j.LastModified
	}
	return p
}

// MarshalJSON is the persisted library form, including LastModified
func (p Preset) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(p, true))
}

func (p *Preset) UnmarshalJSON(data []byte) error {
	var j jsonPreset
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*p = fromJSON(j)
	return nil
}

// ExportJSON is the sharing form, without LastModified
func ExportJSON(p Preset) (string, error) {
	b, err := json.Marshal(toJSON(p, false))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportJSON parses text produced by ExportJSON or MarshalJSON
func ImportJSON(text string) (Preset, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Preset{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedImport)
	}

	var p Preset
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Preset{}, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	return p, nil
}
