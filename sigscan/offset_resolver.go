package sigscan

import (
	"fmt"
	"strings"

	"gowaymark/process"
	"gowaymark/process/memory_map"
)

// OffsetResolver resolves signatures by name from known module-relative offsets,
// for builds where the offsets were taken from a previous scan or a dump.
// Names match case-insensitively; Offsets is keyed by the lower-cased name.
type OffsetResolver struct {
	Base    process.ProcessMemoryAddress
	Offsets map[string]uint64
}

var _ Resolver = (*OffsetResolver)(nil)

// NewOffsetResolver takes the base of module from the process memory map
func NewOffsetResolver(proc process.Process, module string, offsets map[string]uint64) (*OffsetResolver, error) {
	memMap, err := proc.GetMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory map: %w", err)
	}

	base, ok := memory_map.ModuleBase(module, memMap)
	if !ok {
		return nil, fmt.Errorf("module %q not mapped: %w", module, process.ErrAddressNotMapped)
	}
	lower := make(map[string]uint64, len(offsets))
	for name, off := range offsets {
		lower[strings.ToLower(name)] = off
	}
	return &OffsetResolver{Base: process.ProcessMemoryAddress(base), Offsets: lower}, nil
}

func (r *OffsetResolver) Resolve(sig Signature) (process.ProcessMemoryAddress, error) {
	off, ok := r.Offsets[strings.ToLower(sig.Name)]
	if !ok {
		return 0, fmt.Errorf("resolve %s: %w", sig.Name, ErrPatternNotFound)
	}
	return r.Base + process.ProcessMemoryAddress(off), nil
}
