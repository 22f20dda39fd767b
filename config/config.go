package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is looked up in the config directory; it is optional
const FileName = "waymarks.cfg.json"

// SignatureConfig is a byte pattern and, for static addresses, the position of
// the rel32 displacement inside it
type SignatureConfig struct {
	Pattern string `json:"pattern" mapstructure:"pattern"`
	Offset  int    `json:"offset" mapstructure:"offset"`
}

type SignaturesConfig struct {
	ConfigSection   SignatureConfig `json:"configSection" mapstructure:"configSection"`
	SlotAddress     SignatureConfig `json:"slotAddress" mapstructure:"slotAddress"`
	ContentLinkType SignatureConfig `json:"contentLinkType" mapstructure:"contentLinkType"`
	DirectPlace     SignatureConfig `json:"directPlace" mapstructure:"directPlace"`
	WaymarkData     SignatureConfig `json:"waymarkData" mapstructure:"waymarkData"`
	WaymarksObject  SignatureConfig `json:"waymarksObject" mapstructure:"waymarksObject"`
	Conditions      SignatureConfig `json:"conditions" mapstructure:"conditions"`
	LocalActor      SignatureConfig `json:"localActor" mapstructure:"localActor"`
	Territory       SignatureConfig `json:"territory" mapstructure:"territory"`
}

type ProcessConfig struct {
	Name   string `json:"name" mapstructure:"name"`
	Module string `json:"module" mapstructure:"module"`
}

type SlotsConfig struct {
	Max          int    `json:"max" mapstructure:"max"`
	SectionIndex uint32 `json:"sectionIndex" mapstructure:"sectionIndex"`
}

type LiveConfig struct {
	Offset uint64 `json:"offset" mapstructure:"offset"`
	Stride uint64 `json:"stride" mapstructure:"stride"`
}

type ZonesConfig struct {
	File        string        `json:"file" mapstructure:"file"`
	LoadTimeout time.Duration `json:"loadTimeout" mapstructure:"loadTimeout"`
}

// Config is the resolved configuration
type Config struct {
	// ShowAddresses makes status print the resolved native addresses
	ShowAddresses bool             `json:"showAddresses" mapstructure:"showAddresses"`
	Process       ProcessConfig    `json:"process" mapstructure:"process"`
	Slots         SlotsConfig      `json:"slots" mapstructure:"slots"`
	Live          LiveConfig       `json:"live" mapstructure:"live"`
	Signatures    SignaturesConfig `json:"signatures" mapstructure:"signatures"`
	Zones         ZonesConfig      `json:"zones" mapstructure:"zones"`

	// Offsets, when set, replace pattern scanning: signature name to offset
	// from the module base
	Offsets map[string]uint64 `json:"offsets" mapstructure:"offsets"`
}

func setSignatureDefault(name, pattern string, offset int) {
	viper.SetDefault("signatures."+name+".pattern", pattern)
	viper.SetDefault("signatures."+name+".offset", offset)
}

func setDefaults() {
	viper.SetDefault("showAddresses", false)

	viper.SetDefault("process.name", "ffxiv_dx11.exe")
	viper.SetDefault("process.module", "ffxiv_dx11.exe")

	viper.SetDefault("slots.max", 30)
	viper.SetDefault("slots.sectionIndex", 0x11)

	viper.SetDefault("live.offset", 0x1E0)
	viper.SetDefault("live.stride", 0x20)

	setSignatureDefault("configSection", "40 53 48 83 EC 20 48 8B 0D ?? ?? ?? ?? 0F B7 DA E8 ?? ?? ?? ?? 4C 8B C0", 0)
	setSignatureDefault("slotAddress", "4C 8B C9 85 D2 78 ?? 83 FA ?? 73 ??", 0)
	setSignatureDefault("contentLinkType", "48 83 EC 28 48 8B 05 ?? ?? ?? ?? 48 85 C0 0F 84 ?? ?? ?? ?? 83 B8", 0)
	setSignatureDefault("directPlace", "E8 ?? ?? ?? ?? 84 C0 0F 84 ?? ?? ?? ?? E8 ?? ?? ?? ?? 33 C9", 0)
	setSignatureDefault("waymarkData", "48 89 74 24 ?? 57 48 83 EC 20 8B FA 33 F6", 0)
	setSignatureDefault("waymarksObject", "41 80 F9 08 7C BB 48 8D 0D ?? ?? ?? ??", 9)
	setSignatureDefault("conditions", "48 8D 0D ?? ?? ?? ?? 45 33 C0 4C 8B F0", 3)
	setSignatureDefault("localActor", "48 8B 05 ?? ?? ?? ?? 48 89 6C 24 ?? 41 0F B7 F0", 3)
	setSignatureDefault("territory", "8B 1D ?? ?? ?? ?? 0F 45 D8 39 1D", 2)

	viper.SetDefault("zones.file", "zones.json")
	viper.SetDefault("zones.loadTimeout", "2s")
}

// Load sets defaults, reads FileName from configDir when present and returns
// the merged configuration. A missing file is not an error.
func Load(configDir string) (*Config, error) {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}
