package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gowaymark/process"
	"gowaymark/process/memory_map"
)

// ProcessImage implements process.Process over in-memory regions, either
// assembled by hand or loaded from a process dump directory
type ProcessImage struct {
	PID  process.ProcessID
	Name string

	mu        sync.RWMutex
	memoryMap []memory_map.MemoryMapItem
	blobs     map[uint64]*ProcessBlob // region address -> data
}

var _ process.Process = (*ProcessImage)(nil)

// NewProcessImage creates an empty image
func NewProcessImage() *ProcessImage {
	return &ProcessImage{
		blobs: make(map[uint64]*ProcessBlob),
	}
}

// AddRegion maps data at addr with the given perms ("r-xp", "rw-p", ...) and backing path
func (p *ProcessImage) AddRegion(addr process.ProcessMemoryAddress, data []byte, perms, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.memoryMap = append(p.memoryMap, memory_map.MemoryMapItem{
		Address: uint64(addr),
		Size:    uint(len(data)),
		Perms:   perms,
		Path:    path,
	})
	memory_map.Sort(p.memoryMap)
	p.blobs[uint64(addr)] = NewProcessBlob(addr, data)
}

func (p *ProcessImage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs = make(map[uint64]*ProcessBlob)
	p.memoryMap = nil
	return nil
}

func (p *ProcessImage) GetPID() process.ProcessID {
	return p.PID
}

func (p *ProcessImage) UpdateMemoryMap() error {
	return nil // Memory map is static in an image
}

func (p *ProcessImage) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return memory_map.IsValidAddress2(uint64(addr), p.memoryMap) != nil
}

func (p *ProcessImage) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]memory_map.MemoryMapItem, len(p.memoryMap))
	copy(result, p.memoryMap)
	return result, nil
}

func (p *ProcessImage) region(addr process.ProcessMemoryAddress) (*memory_map.MemoryMapItem, *ProcessBlob, error) {
	region := memory_map.IsValidAddress2(uint64(addr), p.memoryMap)
	if region == nil {
		return nil, nil, process.ErrAddressNotMapped
	}

	blob, ok := p.blobs[region.Address]
	if !ok {
		return nil, nil, fmt.Errorf("no data for region 0x%x", region.Address)
	}
	return region, blob, nil
}

func (p *ProcessImage) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, blob, err := p.region(addr)
	if err != nil {
		return nil, err
	}
	return blob.ReadMemory(addr, size)
}

func (p *ProcessImage) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	region, blob, err := p.region(addr)
	if err != nil {
		return err
	}
	if !region.IsWritable() {
		return fmt.Errorf("write at 0x%x: %w", uint64(addr), process.ErrNotWritable)
	}
	return blob.WriteMemory(addr, data)
}

// Load reads a dump directory: metadata.json, process_memory_map.json and
// one blob_0x<addr>_<size>.bin per saved region
func (p *ProcessImage) Load(dirname string) error {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, "metadata.json"))
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata struct {
		PID  process.ProcessID `json:"pid"`
		Name string            `json:"name"`
	}
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, "process_memory_map.json"))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &mm); err != nil {
		return fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	p.PID = metadata.PID
	p.Name = metadata.Name

	for _, region := range mm {
		filename := filepath.Join(dirname, blobFileName(region))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			continue // Blob not saved (e.g. too large or not readable)
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read blob %s: %w", filename, err)
		}

		p.AddRegion(process.ProcessMemoryAddress(region.Address), data, region.Perms, region.Path)
	}

	return nil
}
