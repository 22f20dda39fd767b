package native

import (
	"fmt"

	"gowaymark/process"
	"gowaymark/sigscan"
	"gowaymark/waymark"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Bridge holds the resolved addresses and performs typed calls through an Invoker.
// It does not serialize calls; that is the caller's job.
type Bridge struct {
	proc    process.Process
	invoker Invoker
	log     *logger.Logger

	entries  [entryPointCount]process.ProcessMemoryAddress
	waymarks process.ProcessMemoryAddress
}

// NewBridge resolves every signature in sigs. A nil invoker leaves all entry
// points unresolved since nothing could call them.
func NewBridge(proc process.Process, resolver sigscan.Resolver, sigs SignatureSet, invoker Invoker) *Bridge {
	b := &Bridge{
		proc:    proc,
		invoker: invoker,
		log:     logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "native")),
	}

	if addr, err := resolver.Resolve(sigs.WaymarksObject); err != nil {
		b.log.Warn("Waymarks object unresolved: ", err)
	} else {
		b.waymarks = addr
	}

	if invoker == nil {
		b.log.Warn("No invoker available, native entry points disabled")
	} else {
		for _, e := range EntryPoints() {
			addr, err := resolver.Resolve(sigs.forEntry(e))
			if err != nil {
				b.log.Warn(e.String(), " unresolved: ", err)
				continue
			}
			b.entries[e] = addr
			b.log.Debugln("Entry point", e.String(), "at", addr.ToString())
		}
	}

	b.log.Infoln("Capabilities:", b.Capabilities().String())
	return b
}

// Resolved reports whether e can be called
func (b *Bridge) Resolved(e EntryPoint) bool {
	return e >= 0 && e < entryPointCount && b.entries[e] != 0
}

// Address of an entry point, zero if unresolved
func (b *Bridge) Address(e EntryPoint) process.ProcessMemoryAddress {
	if !b.Resolved(e) {
		return 0
	}
	return b.entries[e]
}

// WaymarksObject is the resolved static object, zero if unresolved
func (b *Bridge) WaymarksObject() process.ProcessMemoryAddress {
	return b.waymarks
}

func (b *Bridge) Process() process.Process {
	return b.proc
}

func (b *Bridge) CanReadWriteSlots() bool {
	return b.Resolved(GetConfigSection) && b.Resolved(GetPresetAddressForSlot)
}

func (b *Bridge) CanDirectPlace() bool {
	return b.Resolved(GetContentLinkType) && b.Resolved(DirectPlacePreset) && b.waymarks != 0
}

func (b *Bridge) CanDirectSave() bool {
	return b.Resolved(GetCurrentWaymarkData) && b.waymarks != 0
}

func (b *Bridge) CanClientPlace() bool {
	return b.Resolved(GetContentLinkType) && b.waymarks != 0
}

func (b *Bridge) Capabilities() Capabilities {
	return Capabilities{
		ReadWriteSlots: b.CanReadWriteSlots(),
		DirectPlace:    b.CanDirectPlace(),
		DirectSave:     b.CanDirectSave(),
		ClientPlace:    b.CanClientPlace(),
	}
}

func (b *Bridge) call(e EntryPoint, args ...uint64) (uint64, error) {
	if !b.Resolved(e) {
		return 0, fmt.Errorf("%s: %w", e.String(), ErrEntryPointUnresolved)
	}
	ret, err := b.invoker.Call(b.entries[e], args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", e.String(), err)
	}
	return ret, nil
}

// GetConfigSectionAddress returns the base of a saved configuration section, zero if absent
func (b *Bridge) GetConfigSectionAddress(section uint32) (process.ProcessMemoryAddress, error) {
	ret, err := b.call(GetConfigSection, uint64(section))
	return process.ProcessMemoryAddress(ret), err
}

// GetPresetAddressForSlot returns the record address of a zero-based slot, zero if absent
func (b *Bridge) GetPresetAddressForSlot(sectionBase process.ProcessMemoryAddress, slotIndex uint32) (process.ProcessMemoryAddress, error) {
	ret, err := b.call(GetPresetAddressForSlot, uint64(sectionBase), uint64(slotIndex))
	return process.ProcessMemoryAddress(ret), err
}

// GetCurrentContentLinkType: 0 open world, 1-3 instances that allow placement
func (b *Bridge) GetCurrentContentLinkType() (byte, error) {
	ret, err := b.call(GetContentLinkType)
	return byte(ret), err
}

func (b *Bridge) DirectPlacePreset(target, placementRecord process.ProcessMemoryAddress) error {
	_, err := b.call(DirectPlacePreset, uint64(target), uint64(placementRecord))
	return err
}

func (b *Bridge) GetCurrentWaymarkData(target, outputRecord process.ProcessMemoryAddress) error {
	_, err := b.call(GetCurrentWaymarkData, uint64(target), uint64(outputRecord))
	return err
}

// withScratch hands fn a buffer in the target that is freed on every path
func (b *Bridge) withScratch(size process.ProcessMemorySize, fn func(addr process.ProcessMemoryAddress) error) error {
	if b.invoker == nil {
		return ErrNoInvoker
	}

	addr, err := b.invoker.Alloc(size)
	if err != nil {
		return fmt.Errorf("alloc scratch: %w", err)
	}
	defer func() {
		if err := b.invoker.Free(addr); err != nil {
			b.log.Warn("Failed to free scratch at ", addr.ToString(), ": ", err)
		}
	}()

	return fn(addr)
}

// PlaceRecord copies rec into the target and applies it to the waymarks object
func (b *Bridge) PlaceRecord(rec waymark.PlacementRecord) error {
	if !b.CanDirectPlace() {
		return fmt.Errorf("%s: %w", DirectPlacePreset.String(), ErrEntryPointUnresolved)
	}

	return b.withScratch(waymark.PlacementRecordSize, func(addr process.ProcessMemoryAddress) error {
		if err := b.proc.WriteMemory(addr, rec.Bytes()); err != nil {
			return fmt.Errorf("write placement record: %w", err)
		}
		return b.DirectPlacePreset(b.waymarks, addr)
	})
}

// ReadWaymarkData asks the host for the waymarks currently on the field
func (b *Bridge) ReadWaymarkData() (waymark.PlacementRecord, error) {
	var rec waymark.PlacementRecord
	if !b.CanDirectSave() {
		return rec, fmt.Errorf("%s: %w", GetCurrentWaymarkData.String(), ErrEntryPointUnresolved)
	}

	err := b.withScratch(waymark.PlacementRecordSize, func(addr process.ProcessMemoryAddress) error {
		if err := b.proc.WriteMemory(addr, make([]byte, waymark.PlacementRecordSize)); err != nil {
			return fmt.Errorf("clear output record: %w", err)
		}
		if err := b.GetCurrentWaymarkData(b.waymarks, addr); err != nil {
			return err
		}

		data, err := b.proc.ReadMemory(addr, waymark.PlacementRecordSize)
		if err != nil {
			return fmt.Errorf("read output record: %w", err)
		}
		rec, err = waymark.ParsePlacementRecord(data)
		return err
	})
	return rec, err
}
