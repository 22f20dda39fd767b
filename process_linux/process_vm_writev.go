//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"gowaymark/process"
	"gowaymark/process/memory_map"

	"golang.org/x/sys/unix"
)

// process_vm_writev uses the process_vm_writev syscall to write memory to another process
func process_vm_writev(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(len(localBuf)),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_writev failed: %s (errno: %d)", errno.Error(), errno)
	}

	return int(n), nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.pid == 0 {
		p.mu.Unlock()
		return process.ErrProcessNotOpen
	}

	pid := p.pid

	if !p.isValidAddressInternal(addr) {
		p.mu.Unlock()
		return fmt.Errorf("invalid memory address %x: %w", addr, process.ErrAddressNotMapped)
	}

	region := memory_map.IsValidAddress2(uint64(addr), p.mm)
	writable := region != nil && region.IsWritable()
	// Release the lock before the system call
	p.mu.Unlock()

	if !writable {
		return fmt.Errorf("memory region at %x: %w", addr, process.ErrNotWritable)
	}

	// Copy so the caller may reuse data while the write is in flight
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return fmt.Errorf("failed to write process memory: %w", err)
	}

	if written != len(data) {
		return fmt.Errorf("only wrote %d of %d bytes", written, len(data))
	}

	return nil
}
