// Package preset_memory reads and writes presets in the running game. All
// access to native memory goes through one lock.
package preset_memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gowaymark/native"
	"gowaymark/preset"
	"gowaymark/process"
	"gowaymark/waymark"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var (
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrCaptureUnavailable is returned when the live waymarks cannot be read here
	ErrCaptureUnavailable = errors.New("waymark capture unavailable")
)

// Options describe the host's slot section and live waymark array
type Options struct {
	MaxSlots     int
	SectionIndex uint32
	LiveOffset   uint64
	LiveStride   uint64
}

func DefaultOptions() Options {
	return Options{
		MaxSlots:     30,
		SectionIndex: 0x11,
		LiveOffset:   waymark.DefaultLiveOffset,
		LiveStride:   waymark.DefaultLiveStride,
	}
}

const (
	linkTypeOverworld   = 0
	linkTypeInstanceMax = 3
)

// Accessor serializes every read, write and native call against the game
type Accessor struct {
	mu sync.Mutex

	bridge *native.Bridge
	proc   process.Process
	host   HostState
	opts   Options
	log    *logger.Logger

	now func() time.Time
}

func NewAccessor(bridge *native.Bridge, host HostState, opts Options) *Accessor {
	return &Accessor{
		bridge: bridge,
		proc:   bridge.Process(),
		host:   host,
		opts:   opts,
		log:    logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "presets")),
		now:    time.Now,
	}
}

// MaxSlots is the highest valid slot number
func (a *Accessor) MaxSlots() int {
	return a.opts.MaxSlots
}

func (a *Accessor) Capabilities() native.Capabilities {
	return a.bridge.Capabilities()
}

// slotAddressLocked resolves a one-based slot number
func (a *Accessor) slotAddressLocked(slot int) (process.ProcessMemoryAddress, error) {
	if !a.bridge.CanReadWriteSlots() {
		return 0, fmt.Errorf("slot %d: slot functions unresolved: %w", slot, ErrSlotUnavailable)
	}
	if slot < 1 || slot > a.opts.MaxSlots {
		return 0, fmt.Errorf("slot %d outside 1-%d: %w", slot, a.opts.MaxSlots, ErrSlotUnavailable)
	}

	section, err := a.bridge.GetConfigSectionAddress(a.opts.SectionIndex)
	if err != nil {
		return 0, err
	}
	if section == 0 {
		return 0, fmt.Errorf("slot %d: config section 0x%x not loaded: %w", slot, a.opts.SectionIndex, ErrSlotUnavailable)
	}

	addr, err := a.bridge.GetPresetAddressForSlot(section, uint32(slot-1))
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, fmt.Errorf("slot %d: no record address: %w", slot, ErrSlotUnavailable)
	}
	return addr, nil
}

// ReadSlot copies the record stored in a slot
func (a *Accessor) ReadSlot(slot int) (waymark.PresetRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr, err := a.slotAddressLocked(slot)
	if err != nil {
		return waymark.PresetRecord{}, err
	}

	data, err := a.proc.ReadMemory(addr, waymark.RecordSize)
	if err != nil {
		return waymark.PresetRecord{}, fmt.Errorf("read slot %d at %s: %w", slot, addr.ToString(), err)
	}
	a.log.Debugln("Read slot", slot, "at", addr.ToString())
	return waymark.ParsePresetRecord(data)
}

// WriteSlot overwrites a slot in place
func (a *Accessor) WriteSlot(slot int, rec waymark.PresetRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr, err := a.slotAddressLocked(slot)
	if err != nil {
		return err
	}

	if err := a.proc.WriteMemory(addr, rec.Bytes()); err != nil {
		return fmt.Errorf("write slot %d at %s: %w", slot, addr.ToString(), err)
	}
	a.log.Debugln("Wrote slot", slot, "at", addr.ToString())
	return nil
}

func (a *Accessor) ReadSlotPreset(slot int) (preset.Preset, error) {
	rec, err := a.ReadSlot(slot)
	if err != nil {
		return preset.Preset{}, err
	}
	return preset.FromRecord(rec), nil
}

func (a *Accessor) WriteSlotPreset(slot int, p preset.Preset) error {
	return a.WriteSlot(slot, p.ToRecord())
}

func (a *Accessor) contentLinkTypeLocked() (byte, bool) {
	lt, err := a.bridge.GetCurrentContentLinkType()
	if err != nil {
		a.log.Debugln("Content link type unavailable:", err)
		return 0, false
	}
	return lt, true
}

func (a *Accessor) isSafeToDirectPlaceLocked() bool {
	if !a.bridge.CanDirectPlace() || a.host.InCombat() || !a.host.LocalActorPresent() {
		return false
	}
	lt, ok := a.contentLinkTypeLocked()
	return ok && lt >= 1 && lt <= linkTypeInstanceMax
}

func (a *Accessor) isSafeToClientPlaceLocked() bool {
	if !a.bridge.CanClientPlace() {
		return false
	}
	lt, ok := a.contentLinkTypeLocked()
	return ok && lt == linkTypeOverworld
}

// IsSafeToDirectPlace: out of combat, with a local actor, inside an instance
// that allows placement
func (a *Accessor) IsSafeToDirectPlace() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isSafeToDirectPlaceLocked()
}

// IsSafeToClientPlace holds only in the open world
func (a *Accessor) IsSafeToClientPlace() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isSafeToClientPlaceLocked()
}

// DirectPlacePreset places p through the game's own function. It reports false
// with no error when placement is not allowed right now.
func (a *Accessor) DirectPlacePreset(p preset.Preset) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isSafeToDirectPlaceLocked() {
		a.log.Debugln("Direct placement refused by safety gate")
		return false, nil
	}
	if err := a.bridge.PlaceRecord(p.ToPlacementRecord()); err != nil {
		return false, err
	}
	a.log.Infoln("Placed preset", p.Name, "for zone", p.MapID)
	return true, nil
}

func (a *Accessor) liveAddress(i int) process.ProcessMemoryAddress {
	return a.bridge.WaymarksObject() + process.ProcessMemoryAddress(a.opts.LiveOffset+uint64(i)*a.opts.LiveStride)
}

// ClientPlacePreset writes p straight into the live waymark array. Same
// contract as DirectPlacePreset.
func (a *Accessor) ClientPlacePreset(p preset.Preset) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isSafeToClientPlaceLocked() {
		a.log.Debugln("Client placement refused by safety gate")
		return false, nil
	}

	// The eight markers share one span: read it, patch every marker, write it
	// back once so a failure leaves the field untouched.
	if a.opts.LiveStride < waymark.LiveWaymarkSize {
		return false, fmt.Errorf("live stride 0x%x overlaps markers of size 0x%x", a.opts.LiveStride, waymark.LiveWaymarkSize)
	}
	spanSize := process.ProcessMemorySize(uint64(waymark.Count-1)*a.opts.LiveStride + waymark.LiveWaymarkSize)
	span, err := a.proc.ReadMemory(a.liveAddress(0), spanSize)
	if err != nil {
		return false, fmt.Errorf("read live waymarks: %w", err)
	}
	for i, w := range p.Waymarks() {
		point := waymark.RawPoint{}
		if w.Active {
			point = w.Point()
		}
		copy(span[uint64(i)*a.opts.LiveStride:], waymark.NewLiveWaymark(point, w.Active).Bytes())
	}
	if err := a.proc.WriteMemory(a.liveAddress(0), span); err != nil {
		return false, fmt.Errorf("write live waymarks: %w", err)
	}
	a.log.Infoln("Client placed preset", p.Name)
	return true, nil
}

// ReadLiveWaymarks reads the live array without calling into the game
func (a *Accessor) ReadLiveWaymarks() ([waymark.Count]waymark.LiveWaymark, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out [waymark.Count]waymark.LiveWaymark
	if a.bridge.WaymarksObject() == 0 {
		return out, fmt.Errorf("waymarks object unresolved: %w", ErrCaptureUnavailable)
	}
	for i := range out {
		data, err := a.proc.ReadMemory(a.liveAddress(i), waymark.LiveWaymarkSize)
		if err != nil {
			return out, fmt.Errorf("read live waymark %s: %w", waymark.Names[i], err)
		}
		if out[i], err = waymark.ParseLiveWaymark(data); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CaptureCurrentWaymarks returns the waymarks on the field as a preset for the
// current zone, stamped with the current time
func (a *Accessor) CaptureCurrentWaymarks() (preset.Preset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.bridge.CanDirectSave() {
		return preset.Preset{}, fmt.Errorf("waymark data function unresolved: %w", ErrCaptureUnavailable)
	}
	lt, ok := a.contentLinkTypeLocked()
	if !ok || lt > linkTypeInstanceMax {
		return preset.Preset{}, fmt.Errorf("content link type %d: %w", lt, ErrCaptureUnavailable)
	}

	rec, err := a.bridge.ReadWaymarkData()
	if err != nil {
		return preset.Preset{}, err
	}

	zone := a.host.CurrentZoneID()
	p := preset.FromPlacementRecord(rec, zone, a.now().UTC().Truncate(time.Second))
	a.log.Debugln("Captured waymarks in zone", zone)
	return p, nil
}
