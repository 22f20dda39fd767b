// Package native wraps the host functions that read and place waymark presets.
// Entry points are discovered at attach time; whatever fails to resolve turns the
// dependent capabilities off instead of failing the whole bridge.
package native

import (
	"errors"
	"fmt"

	"gowaymark/process"
	"gowaymark/sigscan"
)

var (
	// ErrEntryPointUnresolved is returned by a typed call whose entry point was not found
	ErrEntryPointUnresolved = errors.New("entry point unresolved")

	ErrNoInvoker = errors.New("no invoker for native calls")
)

// EntryPoint identifies one host function
type EntryPoint int

const (
	GetConfigSection EntryPoint = iota
	GetPresetAddressForSlot
	GetContentLinkType
	DirectPlacePreset
	GetCurrentWaymarkData

	entryPointCount
)

var entryPointNames = [entryPointCount]string{
	GetConfigSection:        "GetConfigSectionAddress",
	GetPresetAddressForSlot: "GetPresetAddressForSlot",
	GetContentLinkType:      "GetCurrentContentLinkType",
	DirectPlacePreset:       "DirectPlacePreset",
	GetCurrentWaymarkData:   "GetCurrentWaymarkData",
}

func (e EntryPoint) String() string {
	if e >= 0 && e < entryPointCount {
		return entryPointNames[e]
	}
	return fmt.Sprintf("EntryPoint(%d)", int(e))
}

// EntryPoints lists every entry point in resolution order
func EntryPoints() []EntryPoint {
	out := make([]EntryPoint, 0, entryPointCount)
	for e := EntryPoint(0); e < entryPointCount; e++ {
		out = append(out, e)
	}
	return out
}

// SignatureSet is what the bridge asks a resolver for
type SignatureSet struct {
	ConfigSection   sigscan.Signature
	SlotAddress     sigscan.Signature
	ContentLinkType sigscan.Signature
	DirectPlace     sigscan.Signature
	WaymarkData     sigscan.Signature

	// WaymarksObject is the static host object the placement functions act on
	WaymarksObject sigscan.Signature
}

func (s SignatureSet) forEntry(e EntryPoint) sigscan.Signature {
	switch e {
	case GetConfigSection:
		return s.ConfigSection
	case GetPresetAddressForSlot:
		return s.SlotAddress
	case GetContentLinkType:
		return s.ContentLinkType
	case DirectPlacePreset:
		return s.DirectPlace
	}
	return s.WaymarkData
}

// Invoker runs code in the target process. Arguments and the result are raw
// 64-bit integer registers.
type Invoker interface {
	Call(fn process.ProcessMemoryAddress, args ...uint64) (uint64, error)
	Alloc(size process.ProcessMemorySize) (process.ProcessMemoryAddress, error)
	Free(addr process.ProcessMemoryAddress) error
}

// Capabilities reports which operation groups have every prerequisite resolved
type Capabilities struct {
	ReadWriteSlots bool
	DirectPlace    bool
	DirectSave     bool
	ClientPlace    bool
}

func (c Capabilities) String() string {
	return fmt.Sprintf("slots=%t directPlace=%t directSave=%t clientPlace=%t",
		c.ReadWriteSlots, c.DirectPlace, c.DirectSave, c.ClientPlace)
}
