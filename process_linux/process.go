//go:build linux

package process_linux

import (
	"fmt"
	"sync"

	"gowaymark/process"
	"gowaymark/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Process interface for Linux systems.
// Under Wine the game's image is mapped from its .exe, so /proc/<pid>/maps names it.
type LinuxProcess struct {
	pid process.ProcessID
	log *logger.Logger
	mm  []memory_map.MemoryMapItem
	mu  sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	p := &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenByName opens the lowest-PID process matching name
func OpenByName(name string) (*LinuxProcess, error) {
	info, err := OneByName(name)
	if err != nil {
		return nil, fmt.Errorf("no process found with name '%s': %w", name, err)
	}
	return NewWithPID(info.PID)
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	if !procExists(int(pid)) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	// UpdateMemoryMap takes the lock itself
	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Infoln("Closing process")

	p.pid = 0
	p.mm = nil

	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	// IsValidAddress2 requires the memory map to be sorted by address
	memory_map.Sort(mm)

	p.mm = mm
	return nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isValidAddressInternal(addr)
}

// Internal helper function that assumes the mutex is already locked
func (p *LinuxProcess) isValidAddressInternal(addr process.ProcessMemoryAddress) bool {
	if addr <= 0x10000 {
		return false
	}

	if addr > 0x7FFFFFFFFFFF {
		return false
	}

	if item := memory_map.IsValidAddress2(uint64(addr), p.mm); item != nil {
		return item.IsReadable()
	}

	return false
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}
