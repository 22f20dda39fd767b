package process_blob

import (
	"fmt"

	"gowaymark/process"
)

// ProcessBlob is one contiguous region of an image, addressed from baseaddress
type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() process.ProcessMemoryAddress {
	return p.baseaddress
}

func (p *ProcessBlob) slice(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if addr < p.baseaddress {
		return nil, fmt.Errorf("address 0x%x below blob base 0x%x", uint64(addr), uint64(p.baseaddress))
	}
	offset := uint64(addr - p.baseaddress)
	if offset+uint64(size) > uint64(len(p.data)) {
		return nil, fmt.Errorf("read of %d bytes at 0x%x exceeds blob bounds", size, uint64(addr))
	}
	return p.data[offset : offset+uint64(size)], nil
}

// ReadMemory returns a copy of size bytes at addr
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	src, err := p.slice(addr, size)
	if err != nil {
		return nil, err
	}
	result := make([]byte, size)
	copy(result, src)
	return result, nil
}

// WriteMemory overwrites len(data) bytes at addr
func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	dst, err := p.slice(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}
