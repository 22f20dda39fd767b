package process

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Add offsets an address by a signed displacement
func (pma ProcessMemoryAddress) Add(delta int64) ProcessMemoryAddress {
	return ProcessMemoryAddress(int64(pma) + delta)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// AOB (Array of Bytes) represents a pattern to search for in memory
type AOB struct {
	Pattern []byte // The byte pattern to search for
	Mask    []byte // 0xFF means exact match and 0x00 means wildcard
}

// IsValid checks if the AOB pattern is valid
func (aob AOB) IsValid() bool {
	return len(aob.Pattern) > 0 && len(aob.Pattern) == len(aob.Mask)
}

// Len is the number of bytes the pattern spans
func (aob AOB) Len() int {
	return len(aob.Pattern)
}

// MatchAt reports whether data[offset:] starts with the pattern
func (aob AOB) MatchAt(data []byte, offset int) bool {
	if offset < 0 || offset+len(aob.Pattern) > len(data) {
		return false
	}
	for j := 0; j < len(aob.Pattern); j++ {
		if aob.Mask[j] == 0 {
			continue
		}
		if data[offset+j]&aob.Mask[j] != aob.Pattern[j]&aob.Mask[j] {
			return false
		}
	}
	return true
}

// String formats the pattern the way ParseAOB accepts it
func (aob AOB) String() string {
	var sb strings.Builder
	for i, b := range aob.Pattern {
		if i > 0 {
			sb.WriteString(" ")
		}
		if i < len(aob.Mask) && aob.Mask[i] == 0 {
			sb.WriteString("??")
		} else {
			sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
		}
	}
	return sb.String()
}

func NewAOB(pattern, mask []byte) (AOB, error) {
	if len(pattern) != len(mask) {
		return AOB{}, fmt.Errorf("pattern and mask must be of the same length")
	}
	return AOB{Pattern: pattern, Mask: mask}, nil
}

// ParseAOB parses a pattern such as "48 8B ?? ?? 05" or "48,8b,?,05".
// "?" and "??" are wildcards.
func ParseAOB(text string) (AOB, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(parts) == 0 {
		return AOB{}, fmt.Errorf("empty pattern")
	}

	aob := AOB{
		Pattern: make([]byte, 0, len(parts)),
		Mask:    make([]byte, 0, len(parts)),
	}
	for _, part := range parts {
		if part == "??" || part == "?" {
			aob.Pattern = append(aob.Pattern, 0)
			aob.Mask = append(aob.Mask, 0)
			continue
		}

		val, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return AOB{}, fmt.Errorf("invalid hex byte: %s", part)
		}
		aob.Pattern = append(aob.Pattern, byte(val))
		aob.Mask = append(aob.Mask, 0xFF)
	}

	return aob, nil
}

// MustParseAOB is ParseAOB for compile-time constant patterns
func MustParseAOB(text string) AOB {
	aob, err := ParseAOB(text)
	if err != nil {
		panic(err)
	}
	return aob
}

// ExactAOB builds a pattern with no wildcards
func ExactAOB(pattern []byte) AOB {
	return AOB{Pattern: pattern, Mask: bytes.Repeat([]byte{0xFF}, len(pattern))}
}
