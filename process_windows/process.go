//go:build windows

package process_windows

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"gowaymark/process"
	"gowaymark/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const (
	PROCESS_ALL_ACCESS = 0x1F0FFF

	maxUserAddress = 0x7FFFFFFFFFFF
)

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenByName opens the first process whose executable name matches, case-insensitively
func OpenByName(name string) (*WindowsProcess, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		if strings.EqualFold(windows.UTF16ToString(entry.ExeFile[:]), name) {
			return NewWithPID(process.ProcessID(entry.ProcessID))
		}
	}
	return nil, fmt.Errorf("no process found with name '%s'", name)
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	handle, err := windows.OpenProcess(PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess failed: %w", err)
	}

	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	if err := p.updateMemoryMapInternal(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.mm = nil
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Handle exposes the process handle for the remote caller
func (p *WindowsProcess) Handle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateMemoryMapInternal()
}

// mainModule returns the name, base and size of the process image
func (p *WindowsProcess) mainModule() (string, uint64, uint64, error) {
	var modules [1]windows.Handle
	var needed uint32
	if err := windows.EnumProcessModules(p.handle, &modules[0], uint32(unsafe.Sizeof(modules[0])), &needed); err != nil {
		return "", 0, 0, fmt.Errorf("EnumProcessModules: %w", err)
	}

	var info windows.ModuleInfo
	if err := windows.GetModuleInformation(p.handle, modules[0], &info, uint32(unsafe.Sizeof(info))); err != nil {
		return "", 0, 0, fmt.Errorf("GetModuleInformation: %w", err)
	}

	var name [windows.MAX_PATH]uint16
	if err := windows.GetModuleBaseName(p.handle, modules[0], &name[0], uint32(len(name))); err != nil {
		return "", 0, 0, fmt.Errorf("GetModuleBaseName: %w", err)
	}

	return windows.UTF16ToString(name[:]), uint64(info.BaseOfDll), uint64(info.SizeOfImage), nil
}

// updateMemoryMapInternal walks committed regions with VirtualQueryEx.
// Regions inside the main image are tagged with its module name.
func (p *WindowsProcess) updateMemoryMapInternal() error {
	if p.handle == 0 {
		return process.ErrProcessNotOpen
	}

	moduleName, moduleBase, moduleSize, err := p.mainModule()
	if err != nil {
		p.log.Warn("Main module lookup failed: ", err)
	}

	var mm []memory_map.MemoryMapItem
	var mbi windows.MemoryBasicInformation
	for addr := uintptr(0); addr < maxUserAddress; {
		if err := windows.VirtualQueryEx(p.handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}
		if mbi.RegionSize == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			item := memory_map.MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   memory_map.PermsFromProtect(mbi.Protect),
			}
			if item.Address >= moduleBase && item.Address < moduleBase+moduleSize {
				item.Path = moduleName
			}
			mm = append(mm, item)
		}

		addr = mbi.BaseAddress + mbi.RegionSize
	}

	memory_map.Sort(mm)
	p.mm = mm
	return nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	item := memory_map.IsValidAddress2(uint64(addr), p.mm)
	return item != nil && item.IsReadable()
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	if err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &bytesRead); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory failed at %s: %w", addr.ToString(), err)
	}

	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("read incomplete: expected %d, got %d", size, bytesRead)
	}

	return buf, nil
}

func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return process.ErrProcessNotOpen
	}

	var written uintptr
	if err := windows.WriteProcessMemory(handle, uintptr(addr), &data[0], uintptr(len(data)), &written); err != nil {
		return fmt.Errorf("WriteProcessMemory failed at %s: %w", addr.ToString(), err)
	}
	if written != uintptr(len(data)) {
		return fmt.Errorf("only wrote %d of %d bytes", written, len(data))
	}
	return nil
}
