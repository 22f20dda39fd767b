package nativetest

import (
	"encoding/binary"
	"fmt"
	"sync"

	"gowaymark/native"
	"gowaymark/process"
	"gowaymark/process_blob"
	"gowaymark/sigscan"
	"gowaymark/waymark"
)

// Emulated image layout
const (
	ModuleName = "ffxiv_dx11.exe"
	ModulePath = `C:\Program Files\Game\` + ModuleName

	CodeBase    = process.ProcessMemoryAddress(0x140001000)
	DataBase    = process.ProcessMemoryAddress(0x142000000)
	ScratchBase = process.ProcessMemoryAddress(0x150000000)

	WaymarksObject = DataBase + 0x0000
	ConditionsAddr = DataBase + 0x0400
	LocalActorAddr = DataBase + 0x0500
	TerritoryAddr  = DataBase + 0x0600
	SectionBase    = DataBase + 0x1000
	SlotBase       = SectionBase + 0x40

	SectionIndex       = 0x11
	MaxSlots           = 30
	InCombatFlagOffset = 26

	codeSize = 0x1000
	dataSize = 0x3000

	// DataEnd is one past the last byte of the writable data region
	DataEnd = DataBase + dataSize
)

// function bodies inside the code region
const (
	fnConfigSection = CodeBase + 0x100
	fnSlotAddress   = CodeBase + 0x200
	fnLinkType      = CodeBase + 0x300
	fnDirectPlace   = CodeBase + 0x400
	fnWaymarkData   = CodeBase + 0x500
)

// Host is a fake game: a code region carrying the signatures, a data region with
// the slots and live waymarks, and Go functions behind the resolved addresses
type Host struct {
	Image   *process_blob.ProcessImage
	Invoker *FakeInvoker

	Signatures native.SignatureSet

	// anchors read directly from memory
	Conditions sigscan.Signature
	LocalActor sigscan.Signature
	Territory  sigscan.Signature

	mu       sync.Mutex
	linkType byte
	placed   []waymark.PlacementRecord
}

func mustSig(name, pattern string, kind sigscan.Kind, offset int) sigscan.Signature {
	sig, err := sigscan.ParseSignature(name, pattern, kind, offset)
	if err != nil {
		panic(err)
	}
	return sig
}

// NewHost builds a host in the open world with a local actor, out of combat
func NewHost() *Host {
	code := make([]byte, codeSize)
	prologue := func(at process.ProcessMemoryAddress, tag byte) {
		copy(code[at-CodeBase:], []byte{0x40, 0x53, 0x48, 0x83, 0xEC, 0x20, 0xB0, tag})
	}
	prologue(fnConfigSection, 0x01)
	prologue(fnSlotAddress, 0x02)
	prologue(fnLinkType, 0x03)
	prologue(fnDirectPlace, 0x04)
	prologue(fnWaymarkData, 0x05)

	// call site for the placement function, resolved through the rel32
	site := int(0x900)
	copy(code[site:], []byte{0xE8, 0, 0, 0, 0, 0x48, 0x8B, 0x5C, 0x24, 0x30})
	binary.LittleEndian.PutUint32(code[site+1:], uint32(int32(int64(fnDirectPlace-CodeBase)-int64(site+5))))

	// lea rcx, [rip+rel32]; nop; tag
	lea := func(at int, target process.ProcessMemoryAddress, tag byte) {
		copy(code[at:], []byte{0x48, 0x8D, 0x0D, 0, 0, 0, 0, 0x90, tag})
		rel := int64(target) - int64(CodeBase+process.ProcessMemoryAddress(at)+7)
		binary.LittleEndian.PutUint32(code[at+3:], uint32(int32(rel)))
	}
	lea(0xA00, WaymarksObject, 0x10)
	lea(0xA40, ConditionsAddr, 0x11)
	lea(0xA80, LocalActorAddr, 0x12)
	lea(0xAC0, TerritoryAddr, 0x13)

	img := process_blob.NewProcessImage()
	img.PID = 4242
	img.Name = ModuleName
	img.AddRegion(CodeBase, code, "r-xp", ModulePath)
	img.AddRegion(DataBase, make([]byte, dataSize), "rw-p", ModulePath)

	h := &Host{
		Image:   img,
		Invoker: NewFakeInvoker(img, ScratchBase, 0x10000),
		Signatures: native.SignatureSet{
			ConfigSection:   mustSig("configSection", "40 53 48 83 EC 20 B0 01", sigscan.KindFunction, 0),
			SlotAddress:     mustSig("slotAddress", "40 53 48 83 EC 20 B0 02", sigscan.KindFunction, 0),
			ContentLinkType: mustSig("contentLinkType", "40 53 48 83 EC 20 B0 03", sigscan.KindFunction, 0),
			DirectPlace:     mustSig("directPlace", "E8 ?? ?? ?? ?? 48 8B 5C 24 30", sigscan.KindFunction, 0),
			WaymarkData:     mustSig("waymarkData", "40 53 48 83 EC 20 B0 05", sigscan.KindFunction, 0),
			WaymarksObject:  mustSig("waymarksObject", "48 8D 0D ?? ?? ?? ?? 90 10", sigscan.KindStatic, 3),
		},
		Conditions: mustSig("conditions", "48 8D 0D ?? ?? ?? ?? 90 11", sigscan.KindStatic, 3),
		LocalActor: mustSig("localActor", "48 8D 0D ?? ?? ?? ?? 90 12", sigscan.KindStatic, 3),
		Territory:  mustSig("territory", "48 8D 0D ?? ?? ?? ?? 90 13", sigscan.KindStatic, 3),
	}

	h.Invoker.Handle(fnConfigSection, h.configSection)
	h.Invoker.Handle(fnSlotAddress, h.slotAddress)
	h.Invoker.Handle(fnLinkType, h.contentLinkType)
	h.Invoker.Handle(fnDirectPlace, h.directPlace)
	h.Invoker.Handle(fnWaymarkData, h.waymarkData)

	h.SetLocalActor(true)
	return h
}

// Scanner returns a signature scanner over the host image
func (h *Host) Scanner() *sigscan.Scanner {
	return sigscan.NewScanner(h.Image, ModuleName)
}

// FunctionAddress is where the host keeps the body of entry point e
func FunctionAddress(e native.EntryPoint) process.ProcessMemoryAddress {
	switch e {
	case native.GetConfigSection:
		return fnConfigSection
	case native.GetPresetAddressForSlot:
		return fnSlotAddress
	case native.GetContentLinkType:
		return fnLinkType
	case native.DirectPlacePreset:
		return fnDirectPlace
	}
	return fnWaymarkData
}

// SlotAddress is the record address of a zero-based slot
func SlotAddress(index int) process.ProcessMemoryAddress {
	return SlotBase + process.ProcessMemoryAddress(index*waymark.RecordSize)
}

func (h *Host) SetContentLinkType(t byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.linkType = t
}

func (h *Host) SetInCombat(on bool) {
	var v byte
	if on {
		v = 1
	}
	h.mustWrite(ConditionsAddr+InCombatFlagOffset, []byte{v})
}

func (h *Host) SetLocalActor(present bool) {
	var ptr uint64
	if present {
		ptr = uint64(DataBase + 0x2800)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, ptr)
	h.mustWrite(LocalActorAddr, buf)
}

func (h *Host) SetZone(id uint16) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, id)
	h.mustWrite(TerritoryAddr, buf)
}

// WriteSlotBytes stores raw record bytes into a zero-based slot
func (h *Host) WriteSlotBytes(index int, data []byte) {
	h.mustWrite(SlotAddress(index), data)
}

func (h *Host) SlotBytes(index int) []byte {
	data, err := h.Image.ReadMemory(SlotAddress(index), waymark.RecordSize)
	if err != nil {
		panic(err)
	}
	return data
}

// SetLive lays rec out as the game's live waymark array
func (h *Host) SetLive(rec waymark.PlacementRecord) {
	for i := 0; i < waymark.Count; i++ {
		w := waymark.NewLiveWaymark(waymark.RawPoint{X: rec.X[i], Y: rec.Y[i], Z: rec.Z[i]}, rec.Active[i])
		h.mustWrite(liveAddress(i), w.Bytes())
	}
}

// Live reads the live waymark array back as a placement record
func (h *Host) Live() waymark.PlacementRecord {
	var rec waymark.PlacementRecord
	for i := 0; i < waymark.Count; i++ {
		data, err := h.Image.ReadMemory(liveAddress(i), waymark.LiveWaymarkSize)
		if err != nil {
			panic(err)
		}
		w, err := waymark.ParseLiveWaymark(data)
		if err != nil {
			panic(err)
		}
		rec.Active[i] = w.Active
		rec.X[i], rec.Y[i], rec.Z[i] = w.XI, w.YI, w.ZI
	}
	return rec
}

// Placed returns every record applied through the placement function
func (h *Host) Placed() []waymark.PlacementRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]waymark.PlacementRecord(nil), h.placed...)
}

func liveAddress(i int) process.ProcessMemoryAddress {
	return WaymarksObject + waymark.DefaultLiveOffset + process.ProcessMemoryAddress(i*waymark.DefaultLiveStride)
}

func (h *Host) mustWrite(addr process.ProcessMemoryAddress, data []byte) {
	if err := h.Image.WriteMemory(addr, data); err != nil {
		panic(err)
	}
}

func (h *Host) configSection(args []uint64) (uint64, error) {
	if len(args) == 1 && args[0] == SectionIndex {
		return uint64(SectionBase), nil
	}
	return 0, nil
}

func (h *Host) slotAddress(args []uint64) (uint64, error) {
	if len(args) != 2 || args[0] != uint64(SectionBase) || args[1] >= MaxSlots {
		return 0, nil
	}
	return uint64(SlotAddress(int(args[1]))), nil
}

func (h *Host) contentLinkType(args []uint64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return uint64(h.linkType), nil
}

func (h *Host) directPlace(args []uint64) (uint64, error) {
	if len(args) != 2 || args[0] != uint64(WaymarksObject) {
		return 0, fmt.Errorf("direct place: bad arguments %x", args)
	}
	data, err := h.Image.ReadMemory(process.ProcessMemoryAddress(args[1]), waymark.PlacementRecordSize)
	if err != nil {
		return 0, err
	}
	rec, err := waymark.ParsePlacementRecord(data)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	h.placed = append(h.placed, rec)
	h.mu.Unlock()

	h.SetLive(rec)
	return 0, nil
}

func (h *Host) waymarkData(args []uint64) (uint64, error) {
	if len(args) != 2 || args[0] != uint64(WaymarksObject) {
		return 0, fmt.Errorf("waymark data: bad arguments %x", args)
	}
	return 0, h.Image.WriteMemory(process.ProcessMemoryAddress(args[1]), h.Live().Bytes())
}
