package sigscan

import (
	"encoding/binary"
	"fmt"

	"gowaymark/process"
	"gowaymark/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	DefaultChunkSize = 1 << 20

	opCallRel32 = 0xE8
	opJmpRel32  = 0xE9
)

// Scanner searches the executable regions of one module
type Scanner struct {
	proc   process.Process
	module string
	log    *logger.Logger

	// ChunkSize bounds a single read; consecutive reads overlap by pattern length - 1
	ChunkSize int
}

var _ Resolver = (*Scanner)(nil)

// NewScanner scans regions whose backing path contains module, or every
// executable region when module is empty
func NewScanner(proc process.Process, module string) *Scanner {
	return &Scanner{
		proc:      proc,
		module:    module,
		log:       logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "sigscan")),
		ChunkSize: DefaultChunkSize,
	}
}

// ScanForPattern returns the lowest address in the module's code that matches aob
func (s *Scanner) ScanForPattern(aob process.AOB) (process.ProcessMemoryAddress, error) {
	if !aob.IsValid() {
		return 0, ErrInvalidPattern
	}

	memMap, err := s.proc.GetMemoryMap()
	if err != nil {
		return 0, fmt.Errorf("failed to get memory map: %w", err)
	}

	regions := memory_map.ExecutableRegions(s.module, memMap)
	if len(regions) == 0 {
		s.log.Warn("No executable regions for module ", s.module)
		return 0, ErrPatternNotFound
	}

	chunk := s.ChunkSize
	if chunk < aob.Len() {
		chunk = aob.Len()
	}

	for _, region := range regions {
		if addr, ok := s.scanRegion(region, aob, chunk); ok {
			return addr, nil
		}
	}
	return 0, ErrPatternNotFound
}

func (s *Scanner) scanRegion(region memory_map.MemoryMapItem, aob process.AOB, chunk int) (process.ProcessMemoryAddress, bool) {
	overlap := uint64(aob.Len() - 1)
	end := region.End()

	for pos := region.Address; pos < end; pos += uint64(chunk) {
		size := uint64(chunk) + overlap
		if pos+size > end {
			size = end - pos
		}
		if size < uint64(aob.Len()) {
			break
		}

		data, err := s.proc.ReadMemory(process.ProcessMemoryAddress(pos), process.ProcessMemorySize(size))
		if err != nil {
			s.log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", pos), err)
			continue
		}

		for i := 0; i+aob.Len() <= len(data); i++ {
			if aob.MatchAt(data, i) {
				return process.ProcessMemoryAddress(pos + uint64(i)), true
			}
		}
	}
	return 0, false
}

// ResolveFunction finds aob and, when the match begins with a rel32 call or jmp,
// returns the branch target instead of the match
func (s *Scanner) ResolveFunction(aob process.AOB) (process.ProcessMemoryAddress, error) {
	match, err := s.ScanForPattern(aob)
	if err != nil {
		return 0, err
	}

	head, err := s.proc.ReadMemory(match, 5)
	if err != nil {
		return 0, fmt.Errorf("read instruction at %s: %w", match.ToString(), err)
	}
	if head[0] == opCallRel32 || head[0] == opJmpRel32 {
		rel := int32(binary.LittleEndian.Uint32(head[1:5]))
		return match.Add(5 + int64(rel)), nil
	}
	return match, nil
}

// ResolveStaticAddress finds aob and resolves the RIP-relative displacement
// stored displacementOffset bytes past the match start
func (s *Scanner) ResolveStaticAddress(aob process.AOB, displacementOffset int) (process.ProcessMemoryAddress, error) {
	match, err := s.ScanForPattern(aob)
	if err != nil {
		return 0, err
	}

	rel, err := process.Read[int32](s.proc, match.Add(int64(displacementOffset)))
	if err != nil {
		return 0, fmt.Errorf("read displacement at %s+%d: %w", match.ToString(), displacementOffset, err)
	}
	return match.Add(int64(displacementOffset) + 4 + int64(rel)), nil
}

// Resolve dispatches on the signature kind
func (s *Scanner) Resolve(sig Signature) (process.ProcessMemoryAddress, error) {
	var (
		addr process.ProcessMemoryAddress
		err  error
	)
	switch sig.Kind {
	case KindStatic:
		addr, err = s.ResolveStaticAddress(sig.Pattern, sig.Offset)
	default:
		addr, err = s.ResolveFunction(sig.Pattern)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", sig.Name, err)
	}

	s.log.Debugln("Resolved", sig.Name, "at", addr.ToString())
	return addr, nil
}
