// Package session attaches to a game process and owns everything built on top
// of it until Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gowaymark/config"
	"gowaymark/native"
	"gowaymark/preset_memory"
	"gowaymark/process"
	"gowaymark/sigscan"
	"gowaymark/zoneinfo"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ErrDetached is returned by operations on a closed session
var ErrDetached = errors.New("session detached")

// Session is created once per attach. Operations run under a read lock so
// Close waits for them to finish.
type Session struct {
	mu     sync.RWMutex
	closed bool

	cfg      *config.Config
	proc     process.Process
	invoker  native.Invoker
	bridge   *native.Bridge
	host     preset_memory.HostState
	accessor *preset_memory.Accessor
	zones    *zoneinfo.Loader
	log      *logger.Logger
}

// Attach resolves signatures against proc and builds the accessor. When
// resolver is nil the configured offsets are used, or the module's code is
// scanned when there are none. invoker may be nil, which
// leaves every native capability off.
func Attach(cfg *config.Config, proc process.Process, invoker native.Invoker, resolver sigscan.Resolver) (*Session, error) {
	if proc == nil {
		return nil, process.ErrProcessNotOpen
	}

	s := &Session{
		cfg:     cfg,
		proc:    proc,
		invoker: invoker,
		log:     logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "session")),
	}
	s.log.Infoln("Attaching to pid", proc.GetPID())

	if resolver == nil {
		r, err := configuredResolver(cfg, proc)
		if err != nil {
			return nil, err
		}
		resolver = r
	}

	sigs, anchors := s.signatures()
	s.bridge = native.NewBridge(proc, resolver, sigs, invoker)

	host := preset_memory.NewMemoryHostState(proc, resolver, anchors)
	if !host.Resolved() {
		s.log.Warn("Host state partially unresolved, placement gates will refuse")
	}
	s.host = host

	s.accessor = preset_memory.NewAccessor(s.bridge, s.host, preset_memory.Options{
		MaxSlots:     cfg.Slots.Max,
		SectionIndex: cfg.Slots.SectionIndex,
		LiveOffset:   cfg.Live.Offset,
		LiveStride:   cfg.Live.Stride,
	})

	s.zones = zoneinfo.NewLoader(cfg.Zones.File, cfg.Zones.LoadTimeout)
	if cfg.Zones.File != "" {
		s.zones.Start()
	}

	return s, nil
}

func configuredResolver(cfg *config.Config, proc process.Process) (sigscan.Resolver, error) {
	if len(cfg.Offsets) == 0 {
		return sigscan.NewScanner(proc, cfg.Process.Module), nil
	}
	r, err := sigscan.NewOffsetResolver(proc, cfg.Process.Module, cfg.Offsets)
	if err != nil {
		return nil, fmt.Errorf("configured offsets: %w", err)
	}
	return r, nil
}

// parse builds a signature and logs instead of failing, an unusable pattern
// just stays unresolved
func (s *Session) parse(name string, sc config.SignatureConfig, kind sigscan.Kind) sigscan.Signature {
	sig, err := sigscan.ParseSignature(name, sc.Pattern, kind, sc.Offset)
	if err != nil {
		s.log.Warn("Ignoring signature: ", err)
		return sigscan.Signature{Name: name, Kind: kind}
	}
	return sig
}

func (s *Session) signatures() (native.SignatureSet, preset_memory.HostAnchors) {
	c := s.cfg.Signatures
	sigs := native.SignatureSet{
		ConfigSection:   s.parse("configSection", c.ConfigSection, sigscan.KindFunction),
		SlotAddress:     s.parse("slotAddress", c.SlotAddress, sigscan.KindFunction),
		ContentLinkType: s.parse("contentLinkType", c.ContentLinkType, sigscan.KindFunction),
		DirectPlace:     s.parse("directPlace", c.DirectPlace, sigscan.KindFunction),
		WaymarkData:     s.parse("waymarkData", c.WaymarkData, sigscan.KindFunction),
		WaymarksObject:  s.parse("waymarksObject", c.WaymarksObject, sigscan.KindStatic),
	}
	anchors := preset_memory.HostAnchors{
		Conditions: s.parse("conditions", c.Conditions, sigscan.KindStatic),
		LocalActor: s.parse("localActor", c.LocalActor, sigscan.KindStatic),
		Territory:  s.parse("territory", c.Territory, sigscan.KindStatic),
	}
	return sigs, anchors
}

// Do runs fn with the accessor while the session is attached
func (s *Session) Do(fn func(a *preset_memory.Accessor) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrDetached
	}
	return fn(s.accessor)
}

func (s *Session) Capabilities() (native.Capabilities, error) {
	var caps native.Capabilities
	err := s.Do(func(a *preset_memory.Accessor) error {
		caps = a.Capabilities()
		return nil
	})
	return caps, err
}

// Bridge exposes resolved addresses for diagnostics
func (s *Session) Bridge() (*native.Bridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrDetached
	}
	return s.bridge, nil
}

// ZoneName uses the zone table, falling back to the numeric id
func (s *Session) ZoneName(zone uint16) string {
	if s.cfg.Zones.File == "" {
		return zoneinfo.UnknownZoneName(zone)
	}
	return s.zones.Name(zone)
}

// CurrentZone is the zone the local player is in
func (s *Session) CurrentZone() (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrDetached
	}
	return s.host.CurrentZoneID(), nil
}

// WaitZones blocks until the zone table load finished
func (s *Session) WaitZones(ctx context.Context) error {
	if s.cfg.Zones.File == "" {
		return nil
	}
	return s.zones.Wait(ctx)
}

// Close detaches: waits for running operations, releases the invoker and the process
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if c, ok := s.invoker.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close invoker: %w", err))
		}
	}
	if err := s.proc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close process: %w", err))
	}

	s.log.Infoln("Detached")
	return errors.Join(errs...)
}
