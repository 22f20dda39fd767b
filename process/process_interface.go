package process

import (
	"gowaymark/process/memory_map"
)

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// WriteMemory writes data to the process memory at the specified address
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}
