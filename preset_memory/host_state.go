package preset_memory

import (
	"gowaymark/process"
	"gowaymark/sigscan"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// HostState is the slice of game state the safety gates look at
type HostState interface {
	InCombat() bool
	LocalActorPresent() bool
	CurrentZoneID() uint16
}

// HostAnchors locate the game state read by MemoryHostState
type HostAnchors struct {
	Conditions sigscan.Signature // condition flag array
	LocalActor sigscan.Signature // first object table entry
	Territory  sigscan.Signature // current territory id
}

const conditionInCombat = 26

// MemoryHostState reads HostState straight from process memory. Anything it
// cannot resolve or read reports the unsafe answer.
type MemoryHostState struct {
	proc process.Process
	log  *logger.Logger

	conditions process.ProcessMemoryAddress
	localActor process.ProcessMemoryAddress
	territory  process.ProcessMemoryAddress
}

var _ HostState = (*MemoryHostState)(nil)

func NewMemoryHostState(proc process.Process, resolver sigscan.Resolver, anchors HostAnchors) *MemoryHostState {
	h := &MemoryHostState{
		proc: proc,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "host-state")),
	}

	resolve := func(sig sigscan.Signature) process.ProcessMemoryAddress {
		addr, err := resolver.Resolve(sig)
		if err != nil {
			h.log.Warn("Host anchor unresolved: ", err)
			return 0
		}
		return addr
	}
	h.conditions = resolve(anchors.Conditions)
	h.localActor = resolve(anchors.LocalActor)
	h.territory = resolve(anchors.Territory)
	return h
}

// Resolved reports whether every anchor was found
func (h *MemoryHostState) Resolved() bool {
	return h.conditions != 0 && h.localActor != 0 && h.territory != 0
}

func (h *MemoryHostState) InCombat() bool {
	if h.conditions == 0 {
		return true
	}
	flag, err := process.Read[uint8](h.proc, h.conditions+conditionInCombat)
	if err != nil {
		h.log.Debugln("Condition read failed:", err)
		return true
	}
	return flag != 0
}

func (h *MemoryHostState) LocalActorPresent() bool {
	if h.localActor == 0 {
		return false
	}
	ptr, err := process.Read[uint64](h.proc, h.localActor)
	if err != nil {
		h.log.Debugln("Local actor read failed:", err)
		return false
	}
	return ptr != 0
}

func (h *MemoryHostState) CurrentZoneID() uint16 {
	if h.territory == 0 {
		return 0
	}
	zone, err := process.Read[uint16](h.proc, h.territory)
	if err != nil {
		h.log.Debugln("Territory read failed:", err)
		return 0
	}
	return zone
}
