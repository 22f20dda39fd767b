// Package library keeps the user's ordered preset collection
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gowaymark/preset"
)

// ErrIndexOutOfRange is returned for an index that no longer names a preset
var ErrIndexOutOfRange = errors.New("preset index out of range")

// Library is an ordered list of presets. Insertion order is the persisted and
// display order. Presets are stored by value; Get hands out copies.
type Library struct {
	m       sync.Mutex
	presets []preset.Preset
}

func New() *Library {
	return &Library{}
}

func (l *Library) Len() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.presets)
}

func (l *Library) checkIndex(i int) error {
	if i < 0 || i >= len(l.presets) {
		return fmt.Errorf("index %d of %d: %w", i, len(l.presets), ErrIndexOutOfRange)
	}
	return nil
}

// Import appends p and returns its index. No de-duplication is done here.
func (l *Library) Import(p preset.Preset) int {
	l.m.Lock()
	defer l.m.Unlock()
	l.presets = append(l.presets, p)
	return len(l.presets) - 1
}

// ImportIfNew appends p unless a structurally equal preset is present. It
// returns the index of the new or existing preset and whether p was added.
func (l *Library) ImportIfNew(p preset.Preset) (int, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	if i := l.indexOf(p); i >= 0 {
		return i, false
	}
	l.presets = append(l.presets, p)
	return len(l.presets) - 1, true
}

// Get returns a scratch copy of the preset at i
func (l *Library) Get(i int) (preset.Preset, error) {
	l.m.Lock()
	defer l.m.Unlock()
	if err := l.checkIndex(i); err != nil {
		return preset.Preset{}, err
	}
	return l.presets[i], nil
}

// Replace commits an edited copy back to i
func (l *Library) Replace(i int, p preset.Preset) error {
	l.m.Lock()
	defer l.m.Unlock()
	if err := l.checkIndex(i); err != nil {
		return err
	}
	l.presets[i] = p
	return nil
}

// Delete removes the preset at i. Indexes above i shift down by one.
func (l *Library) Delete(i int) error {
	l.m.Lock()
	defer l.m.Unlock()
	if err := l.checkIndex(i); err != nil {
		return err
	}
	l.presets = append(l.presets[:i], l.presets[i+1:]...)
	return nil
}

// Move takes the preset at src and reinserts it before tgt, or after it when
// insertAfter is set. tgt is an index from before the removal. It returns the
// moved preset's new index, or -1 without changing anything.
func (l *Library) Move(src, tgt int, insertAfter bool) int {
	l.m.Lock()
	defer l.m.Unlock()

	n := len(l.presets)
	if src < 0 || src >= n || tgt < 0 || tgt >= n {
		return -1
	}
	if src == tgt {
		return src
	}

	dst := tgt
	if dst > src {
		dst--
	}
	if insertAfter {
		dst++
	}
	if dst < 0 || dst > n-1 {
		return -1
	}

	moved := l.presets[src]
	rest := append(l.presets[:src:src], l.presets[src+1:]...)
	out := make([]preset.Preset, 0, n)
	out = append(out, rest[:dst]...)
	out = append(out, moved)
	out = append(out, rest[dst:]...)
	l.presets = out
	return dst
}

func (l *Library) indexOf(p preset.Preset) int {
	for i := range l.presets {
		if l.presets[i].Equals(p) {
			return i
		}
	}
	return -1
}

// IndexOf returns the first structurally equal preset, or -1
func (l *Library) IndexOf(p preset.Preset) int {
	l.m.Lock()
	defer l.m.Unlock()
	return l.indexOf(p)
}

func (l *Library) Contains(p preset.Preset) bool {
	return l.IndexOf(p) >= 0
}

// All returns a copy of every preset in order
func (l *Library) All() []preset.Preset {
	l.m.Lock()
	defer l.m.Unlock()
	return append([]preset.Preset(nil), l.presets...)
}

// ZoneGroup lists the library indexes of one zone's presets
type ZoneGroup struct {
	ZoneID  uint16
	Indexes []int
}

// ByZone groups presets by zone, ordered by zone id, without reordering the library
func (l *Library) ByZone() []ZoneGroup {
	l.m.Lock()
	defer l.m.Unlock()

	byZone := make(map[uint16][]int)
	for i, p := range l.presets {
		byZone[p.MapID] = append(byZone[p.MapID], i)
	}

	groups := make([]ZoneGroup, 0, len(byZone))
	for zone, idx := range byZone {
		groups = append(groups, ZoneGroup{ZoneID: zone, Indexes: idx})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].ZoneID < groups[j].ZoneID
	})
	return groups
}

// ImportJSON parses a shared preset and appends it
func (l *Library) ImportJSON(text string) (int, error) {
	p, err := preset.ImportJSON(text)
	if err != nil {
		return -1, err
	}
	return l.Import(p), nil
}

// ExportJSON renders the preset at i in the sharing form
func (l *Library) ExportJSON(i int) (string, error) {
	p, err := l.Get(i)
	if err != nil {
		return "", err
	}
	return preset.ExportJSON(p)
}

// MarshalJSON is the persisted form: every preset with its timestamp
func (l *Library) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.All())
}

// UnmarshalJSON replaces the contents; on error the library is unchanged
func (l *Library) UnmarshalJSON(data []byte) error {
	var presets []preset.Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return fmt.Errorf("%w: %w", preset.ErrMalformedImport, err)
	}

	l.m.Lock()
	defer l.m.Unlock()
	l.presets = presets
	return nil
}
