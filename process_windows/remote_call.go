//go:build windows

package process_windows

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"gowaymark/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

var (
	modkernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx     = modkernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = modkernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = modkernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = modkernel32.NewProc("GetExitCodeThread")
)

const (
	maxCallArgs = 4

	stubOffset   = uintptr(0x00)
	paramsOffset = uintptr(0x40)
	paramsSize   = uintptr(8 + maxCallArgs*8 + 8) // fn, args, result
	stubAlloc    = paramsOffset + paramsSize
)

// callStub forwards up to four integer arguments to a function pointer using the
// Win64 calling convention and stores RAX back into the parameter block.
// RCX = params: [0] fn, [8] a0, [16] a1, [24] a2, [32] a3, [40] result
var callStub = []byte{
	0x53,                   // push rbx
	0x48, 0x83, 0xEC, 0x20, // sub rsp, 0x20  (shadow space, keeps 16-byte alignment)
	0x48, 0x8B, 0xD9, //       mov rbx, rcx
	0x48, 0x8B, 0x03, //       mov rax, [rbx]
	0x48, 0x8B, 0x4B, 0x08, // mov rcx, [rbx+8]
	0x48, 0x8B, 0x53, 0x10, // mov rdx, [rbx+16]
	0x4C, 0x8B, 0x43, 0x18, // mov r8,  [rbx+24]
	0x4C, 0x8B, 0x4B, 0x20, // mov r9,  [rbx+32]
	0xFF, 0xD0, //             call rax
	0x48, 0x89, 0x43, 0x28, // mov [rbx+40], rax
	0x48, 0x83, 0xC4, 0x20, // add rsp, 0x20
	0x5B,       //             pop rbx
	0x31, 0xC0, //             xor eax, eax
	0xC3, //                   ret
}

var ErrTooManyArgs = errors.New("remote call supports at most four arguments")

// RemoteCaller invokes functions inside the target by running a small stub on a
// remote thread. Calls are serialized; one stub allocation is reused.
type RemoteCaller struct {
	proc    *WindowsProcess
	timeout time.Duration
	log     *logger.Logger

	mu   sync.Mutex
	stub uintptr
}

// NewRemoteCaller creates a caller bound to an open process
func NewRemoteCaller(proc *WindowsProcess, timeout time.Duration) *RemoteCaller {
	return &RemoteCaller{
		proc:    proc,
		timeout: timeout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "remote-call")),
	}
}

func (r *RemoteCaller) virtualAlloc(size uintptr, protect uintptr) (uintptr, error) {
	addr, _, err := procVirtualAllocEx.Call(
		uintptr(r.proc.Handle()), 0, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, protect,
	)
	if addr == 0 {
		return 0, fmt.Errorf("VirtualAllocEx failed: %v", err)
	}
	return addr, nil
}

func (r *RemoteCaller) ensureStub() error {
	if r.stub != 0 {
		return nil
	}

	addr, err := r.virtualAlloc(stubAlloc, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return err
	}
	if err := r.proc.WriteMemory(process.ProcessMemoryAddress(addr+stubOffset), callStub); err != nil {
		procVirtualFreeEx.Call(uintptr(r.proc.Handle()), addr, 0, windows.MEM_RELEASE)
		return fmt.Errorf("write call stub: %w", err)
	}

	r.stub = addr
	r.log.Debugln("Call stub installed at", process.ProcessMemoryAddress(addr).ToString())
	return nil
}

// Call runs fn(args...) on a remote thread and returns RAX
func (r *RemoteCaller) Call(fn process.ProcessMemoryAddress, args ...uint64) (uint64, error) {
	if len(args) > maxCallArgs {
		return 0, ErrTooManyArgs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureStub(); err != nil {
		return 0, err
	}

	params := make([]byte, paramsSize)
	binary.LittleEndian.PutUint64(params[0:8], uint64(fn))
	for i, arg := range args {
		binary.LittleEndian.PutUint64(params[8+i*8:16+i*8], arg)
	}

	paramsAddr := process.ProcessMemoryAddress(r.stub + paramsOffset)
	if err := r.proc.WriteMemory(paramsAddr, params); err != nil {
		return 0, fmt.Errorf("write call params: %w", err)
	}

	handle := r.proc.Handle()
	thread, _, threadErr := procCreateRemoteThread.Call(
		uintptr(handle), 0, 0,
		r.stub+stubOffset,
		uintptr(paramsAddr),
		0, 0,
	)
	if thread == 0 {
		return 0, fmt.Errorf("CreateRemoteThread failed: %v", threadErr)
	}
	defer windows.CloseHandle(windows.Handle(thread))

	event, err := windows.WaitForSingleObject(windows.Handle(thread), uint32(r.timeout.Milliseconds()))
	if err != nil || event != windows.WAIT_OBJECT_0 {
		return 0, fmt.Errorf("remote call at %s did not complete: event=%d err=%v", fn.ToString(), event, err)
	}

	var exitCode uint32
	procGetExitCodeThread.Call(thread, uintptr(unsafe.Pointer(&exitCode)))
	if exitCode != 0 {
		r.log.Warn("Remote call thread exited with code ", exitCode)
	}

	result, err := r.proc.ReadMemory(paramsAddr+process.ProcessMemoryAddress(8+maxCallArgs*8), 8)
	if err != nil {
		return 0, fmt.Errorf("read call result: %w", err)
	}
	return binary.LittleEndian.Uint64(result), nil
}

// Alloc reserves a read/write scratch buffer inside the target
func (r *RemoteCaller) Alloc(size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	addr, err := r.virtualAlloc(uintptr(size), windows.PAGE_READWRITE)
	if err != nil {
		return 0, err
	}
	// The cached map predates the allocation; scratch buffers must pass write checks.
	if err := r.proc.UpdateMemoryMap(); err != nil {
		r.log.Warn("Memory map refresh failed: ", err)
	}
	return process.ProcessMemoryAddress(addr), nil
}

// Free releases a buffer returned by Alloc
func (r *RemoteCaller) Free(addr process.ProcessMemoryAddress) error {
	ret, _, err := procVirtualFreeEx.Call(uintptr(r.proc.Handle()), uintptr(addr), 0, windows.MEM_RELEASE)
	if ret == 0 {
		return fmt.Errorf("VirtualFreeEx failed: %v", err)
	}
	return nil
}

// Close releases the call stub
func (r *RemoteCaller) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stub == 0 {
		return nil
	}
	err := r.Free(process.ProcessMemoryAddress(r.stub))
	r.stub = 0
	return err
}
