// Package nativetest provides an in-memory host for exercising the native bridge
// and everything above it without a running game.
package nativetest

import (
	"fmt"
	"sync"

	"gowaymark/native"
	"gowaymark/process"
	"gowaymark/process_blob"
)

// Func emulates a host function
type Func func(args []uint64) (uint64, error)

// Call records one invocation
type Call struct {
	Fn   process.ProcessMemoryAddress
	Args []uint64
}

// FakeInvoker dispatches calls to Go functions and hands out scratch memory
// from a writable region of the image
type FakeInvoker struct {
	mu    sync.Mutex
	funcs map[process.ProcessMemoryAddress]Func
	calls []Call

	scratchBase process.ProcessMemoryAddress
	scratchEnd  process.ProcessMemoryAddress
	next        process.ProcessMemoryAddress
	live        map[process.ProcessMemoryAddress]bool
}

var _ native.Invoker = (*FakeInvoker)(nil)

// NewFakeInvoker maps a scratch region of size bytes at base into img
func NewFakeInvoker(img *process_blob.ProcessImage, base process.ProcessMemoryAddress, size int) *FakeInvoker {
	img.AddRegion(base, make([]byte, size), "rw-p", "")
	return &FakeInvoker{
		funcs:       make(map[process.ProcessMemoryAddress]Func),
		scratchBase: base,
		scratchEnd:  base + process.ProcessMemoryAddress(size),
		next:        base,
		live:        make(map[process.ProcessMemoryAddress]bool),
	}
}

// Handle installs fn at addr
func (f *FakeInvoker) Handle(addr process.ProcessMemoryAddress, fn Func) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funcs[addr] = fn
}

func (f *FakeInvoker) Call(fn process.ProcessMemoryAddress, args ...uint64) (uint64, error) {
	f.mu.Lock()
	handler, ok := f.funcs[fn]
	f.calls = append(f.calls, Call{Fn: fn, Args: append([]uint64(nil), args...)})
	f.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("no function at %s", fn.ToString())
	}
	return handler(args)
}

// Alloc is a bump allocator; freed memory is not reused
func (f *FakeInvoker) Alloc(size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	aligned := process.ProcessMemoryAddress((uint64(size) + 15) &^ 15)
	if f.next+aligned > f.scratchEnd {
		return 0, fmt.Errorf("scratch exhausted")
	}
	addr := f.next
	f.next += aligned
	f.live[addr] = true
	return addr, nil
}

func (f *FakeInvoker) Free(addr process.ProcessMemoryAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.live[addr] {
		return fmt.Errorf("free of unallocated %s", addr.ToString())
	}
	delete(f.live, addr)
	return nil
}

// Calls returns every call made so far
func (f *FakeInvoker) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo counts calls made to fn
func (f *FakeInvoker) CallsTo(fn process.ProcessMemoryAddress) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Fn == fn {
			n++
		}
	}
	return n
}

// Outstanding is the number of allocations not yet freed
func (f *FakeInvoker) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}
