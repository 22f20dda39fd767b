package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowaymark/config"
	"gowaymark/native"
	"gowaymark/native/nativetest"
	"gowaymark/preset"
	"gowaymark/preset_memory"
	"gowaymark/process"
	"gowaymark/sigscan"
)

func sigConfig(sig sigscan.Signature) config.SignatureConfig {
	return config.SignatureConfig{Pattern: sig.Pattern.String(), Offset: sig.Offset}
}

func hostConfig(h *nativetest.Host) *config.Config {
	return &config.Config{
		Process: config.ProcessConfig{Name: nativetest.ModuleName, Module: nativetest.ModuleName},
		Slots:   config.SlotsConfig{Max: nativetest.MaxSlots, SectionIndex: nativetest.SectionIndex},
		Live:    config.LiveConfig{Offset: 0x1E0, Stride: 0x20},
		Signatures: config.SignaturesConfig{
			ConfigSection:   sigConfig(h.Signatures.ConfigSection),
			SlotAddress:     sigConfig(h.Signatures.SlotAddress),
			ContentLinkType: sigConfig(h.Signatures.ContentLinkType),
			DirectPlace:     sigConfig(h.Signatures.DirectPlace),
			WaymarkData:     sigConfig(h.Signatures.WaymarkData),
			WaymarksObject:  sigConfig(h.Signatures.WaymarksObject),
			Conditions:      sigConfig(h.Conditions),
			LocalActor:      sigConfig(h.LocalActor),
			Territory:       sigConfig(h.Territory),
		},
		Zones: config.ZonesConfig{LoadTimeout: time.Second},
	}
}

func TestAttach_FullCapabilities(t *testing.T) {
	h := nativetest.NewHost()
	s, err := Attach(hostConfig(h), h.Image, h.Invoker, nil)
	require.NoError(t, err)
	defer s.Close()

	caps, err := s.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, native.Capabilities{ReadWriteSlots: true, DirectPlace: true, DirectSave: true, ClientPlace: true}, caps)

	p := preset.New("session", 777)
	p.SetWaymark(0, preset.Waymark{X: 1000, Active: true})

	err = s.Do(func(a *preset_memory.Accessor) error {
		if err := a.WriteSlotPreset(2, p); err != nil {
			return err
		}
		got, err := a.ReadSlotPreset(2)
		if err != nil {
			return err
		}
		assert.True(t, p.Equals(got))
		return nil
	})
	require.NoError(t, err)
}

func TestAttach_MemoryHostState(t *testing.T) {
	h := nativetest.NewHost()
	h.SetZone(1122)
	h.SetContentLinkType(1)

	s, err := Attach(hostConfig(h), h.Image, h.Invoker, nil)
	require.NoError(t, err)
	defer s.Close()

	zone, err := s.CurrentZone()
	require.NoError(t, err)
	assert.Equal(t, uint16(1122), zone)

	var safe bool
	require.NoError(t, s.Do(func(a *preset_memory.Accessor) error {
		safe = a.IsSafeToDirectPlace()
		return nil
	}))
	assert.True(t, safe)
}

func TestAttach_BadPatternDegrades(t *testing.T) {
	h := nativetest.NewHost()
	cfg := hostConfig(h)
	cfg.Signatures.DirectPlace.Pattern = "E8 ZZ"

	s, err := Attach(cfg, h.Image, h.Invoker, nil)
	require.NoError(t, err)
	defer s.Close()

	caps, err := s.Capabilities()
	require.NoError(t, err)
	assert.False(t, caps.DirectPlace)
	assert.True(t, caps.ReadWriteSlots)
	assert.True(t, caps.DirectSave)
}

func TestAttach_NoInvoker(t *testing.T) {
	h := nativetest.NewHost()
	s, err := Attach(hostConfig(h), h.Image, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	caps, err := s.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, native.Capabilities{}, caps)
}

func TestAttach_OffsetResolver(t *testing.T) {
	h := nativetest.NewHost()
	offsets := map[string]uint64{
		"configSection":   uint64(nativetest.FunctionAddress(native.GetConfigSection) - nativetest.CodeBase),
		"slotAddress":     uint64(nativetest.FunctionAddress(native.GetPresetAddressForSlot) - nativetest.CodeBase),
		"contentLinkType": uint64(nativetest.FunctionAddress(native.GetContentLinkType) - nativetest.CodeBase),
		"waymarksObject":  uint64(nativetest.WaymarksObject - nativetest.CodeBase),
	}
	resolver, err := sigscan.NewOffsetResolver(h.Image, nativetest.ModuleName, offsets)
	require.NoError(t, err)

	s, err := Attach(hostConfig(h), h.Image, h.Invoker, resolver)
	require.NoError(t, err)
	defer s.Close()

	caps, err := s.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, native.Capabilities{ReadWriteSlots: true, ClientPlace: true}, caps)
}

func TestSession_ZoneNames(t *testing.T) {
	h := nativetest.NewHost()
	cfg := hostConfig(h)
	cfg.Zones.File = filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(cfg.Zones.File, []byte(`{"1122": "The Omega Protocol"}`), 0644))

	s, err := Attach(cfg, h.Image, h.Invoker, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WaitZones(context.Background()))
	assert.Equal(t, "The Omega Protocol", s.ZoneName(1122))
	assert.Equal(t, "Unknown Zone (1)", s.ZoneName(1))
}

func TestSession_Close(t *testing.T) {
	h := nativetest.NewHost()
	s, err := Attach(hostConfig(h), h.Image, h.Invoker, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	err = s.Do(func(*preset_memory.Accessor) error { return nil })
	assert.ErrorIs(t, err, ErrDetached)

	_, err = s.Capabilities()
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Bridge()
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.CurrentZone()
	assert.ErrorIs(t, err, ErrDetached)

	mm, err := h.Image.GetMemoryMap()
	require.NoError(t, err)
	assert.Empty(t, mm, "the process is released")
}

func TestAttach_NilProcess(t *testing.T) {
	_, err := Attach(&config.Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestAttach_ConfiguredOffsets(t *testing.T) {
	h := nativetest.NewHost()
	cfg := hostConfig(h)
	// keys arrive lower-cased from viper
	cfg.Offsets = map[string]uint64{
		"configsection":   uint64(nativetest.FunctionAddress(native.GetConfigSection) - nativetest.CodeBase),
		"slotaddress":     uint64(nativetest.FunctionAddress(native.GetPresetAddressForSlot) - nativetest.CodeBase),
		"contentLinkType": uint64(nativetest.FunctionAddress(native.GetContentLinkType) - nativetest.CodeBase),
		"waymarksobject":  uint64(nativetest.WaymarksObject - nativetest.CodeBase),
	}

	s, err := Attach(cfg, h.Image, h.Invoker, nil)
	require.NoError(t, err)
	defer s.Close()

	caps, err := s.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, native.Capabilities{ReadWriteSlots: true, ClientPlace: true}, caps)

	bridge, err := s.Bridge()
	require.NoError(t, err)
	assert.Equal(t, nativetest.FunctionAddress(native.GetContentLinkType), bridge.Address(native.GetContentLinkType))
}

func TestAttach_ConfiguredOffsetsUnknownModule(t *testing.T) {
	h := nativetest.NewHost()
	cfg := hostConfig(h)
	cfg.Process.Module = "other.exe"
	cfg.Offsets = map[string]uint64{"configSection": 0x100}

	_, err := Attach(cfg, h.Image, h.Invoker, nil)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}
