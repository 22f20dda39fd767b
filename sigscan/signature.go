package sigscan

import (
	"errors"
	"fmt"

	"gowaymark/process"
)

var (
	// ErrPatternNotFound is returned when no scanned region contains the pattern
	ErrPatternNotFound = errors.New("pattern not found")

	ErrInvalidPattern = errors.New("invalid pattern")
)

// Kind tells a Resolver how to turn a match into an address
type Kind int

const (
	// KindFunction resolves to the match itself, following a leading call/jmp
	KindFunction Kind = iota
	// KindStatic resolves a RIP-relative displacement found inside the match
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStatic:
		return "static"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Signature names a byte pattern and how its match becomes an address
type Signature struct {
	Name    string
	Pattern process.AOB
	Kind    Kind
	Offset  int // displacement position from the match start, KindStatic only
}

// ParseSignature builds a signature from pattern text such as "E8 ?? ?? ?? ?? 48 8B"
func ParseSignature(name, pattern string, kind Kind, offset int) (Signature, error) {
	aob, err := process.ParseAOB(pattern)
	if err != nil {
		return Signature{}, fmt.Errorf("signature %s: %w: %v", name, ErrInvalidPattern, err)
	}
	if kind == KindStatic && (offset < 0 || offset+4 > aob.Len()) {
		return Signature{}, fmt.Errorf("signature %s: displacement offset %d outside %d byte pattern: %w", name, offset, aob.Len(), ErrInvalidPattern)
	}
	return Signature{Name: name, Pattern: aob, Kind: kind, Offset: offset}, nil
}

// Resolver turns signatures into absolute addresses in the target.
// Failures are reported per signature; callers decide what an unresolved one disables.
type Resolver interface {
	Resolve(sig Signature) (process.ProcessMemoryAddress, error)
}
