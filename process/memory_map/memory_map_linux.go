//go:build linux

package memory_map

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LinuxMemoryMap implements MemoryMap for Linux
type LinuxMemoryMap struct{}

// NewLinuxMemoryMap creates a new LinuxMemoryMap instance
func NewLinuxMemoryMap() *LinuxMemoryMap {
	return &LinuxMemoryMap{}
}

// ReadMemoryMap reads and parses the memory map for a process from /proc/[pid]/maps
func (l *LinuxMemoryMap) ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if item, ok := ParseMapsLine(scanner.Text()); ok {
			memoryMap = append(memoryMap, item)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return memoryMap, nil
}

// ParseMapsLine parses one /proc/[pid]/maps line, e.g.
// "7f0000000000-7f0000001000 r-xp 00000000 08:01 1234   /games/ffxiv_dx11.exe"
func ParseMapsLine(line string) (MemoryMapItem, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return MemoryMapItem{}, false
	}

	addrRange := strings.Split(fields[0], "-")
	if len(addrRange) != 2 {
		return MemoryMapItem{}, false
	}

	startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil || endAddr < startAddr {
		return MemoryMapItem{}, false
	}

	path := ""
	if len(fields) >= 6 {
		// paths may contain spaces
		path = strings.Join(fields[5:], " ")
	}

	return MemoryMapItem{
		Address: startAddr,
		Size:    uint(endAddr - startAddr),
		Perms:   fields[1],
		Path:    path,
	}, true
}
