package memory_map

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string // Backing file or module, empty for anonymous regions
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

// End is the first address past the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) Contains(addr uint64) bool {
	return addr >= mmItem.Address && addr < mmItem.End()
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsExecutable() bool {
	return len(mmItem.Perms) > 2 && mmItem.Perms[2] == 'x'
}

// BelongsTo reports whether the region is backed by a module whose path contains name,
// compared case-insensitively. An empty name matches every region.
func (mmItem MemoryMapItem) BelongsTo(name string) bool {
	if name == "" {
		return true
	}
	return strings.Contains(strings.ToLower(mmItem.Path), strings.ToLower(name))
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// Sort orders the map by address, which IsValidAddress2 relies on
func Sort(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// IsValidAddress checks if an address is within a mapped memory region
func IsValidAddress(addr uint64, memoryMap []MemoryMapItem) bool {
	return GetMemoryRegionForAddress(addr, memoryMap) != nil
}

// IsValidAddress2 is IsValidAddress for a map sorted by address
func IsValidAddress2(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// GetMemoryRegionForAddress returns the memory region containing an address
func GetMemoryRegionForAddress(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	for i := range memoryMap {
		if memoryMap[i].Contains(addr) {
			return &memoryMap[i]
		}
	}
	return nil
}

// ModuleBase returns the lowest address of any region belonging to the named module
func ModuleBase(name string, memoryMap []MemoryMapItem) (uint64, bool) {
	var base uint64
	found := false
	for _, item := range memoryMap {
		if name == "" || !item.BelongsTo(name) {
			continue
		}
		if !found || item.Address < base {
			base = item.Address
			found = true
		}
	}
	return base, found
}

// ExecutableRegions returns the executable, readable regions of a module in address order
func ExecutableRegions(name string, memoryMap []MemoryMapItem) []MemoryMapItem {
	var out []MemoryMapItem
	for _, item := range memoryMap {
		if item.IsReadable() && item.IsExecutable() && item.BelongsTo(name) {
			out = append(out, item)
		}
	}
	Sort(out)
	return out
}
