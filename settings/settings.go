// Package settings persists the host configuration as JSON and guards it
// with an in-process and cross-process lock.
package settings

import (
	"maps"
	"slices"
	"strings"
)

// Version is bumped whenever the layout changes incompatibly. A file with
// a different version is replaced by defaults.
const Version = 1

// Sections selects parts of the configuration for SetDefaults and
// ResetToDefaults.
type Sections uint8

const (
	SectionFolders Sections = 1 << iota
	SectionCore
	SectionControllers
	SectionHotkeys
	SectionUI
	SectionSound

	SectionAll = SectionFolders | SectionCore | SectionControllers | SectionHotkeys | SectionUI | SectionSound
)

var sectionNames = []struct {
	s    Sections
	name string
}{
	{SectionFolders, "folders"},
	{SectionCore, "core"},
	{SectionControllers, "controllers"},
	{SectionHotkeys, "hotkeys"},
	{SectionUI, "ui"},
	{SectionSound, "sound"},
}

func (s Sections) String() string {
	var names []string
	for _, n := range sectionNames {
		if s&n.s != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Settings is the persisted document
type Settings struct {
	Version     int                `json:"version"`
	Folders     FolderSettings     `json:"folders"`
	Core        CoreSettings       `json:"core"`
	Controllers ControllerSettings `json:"controllers"`
	Hotkeys     map[string]string  `json:"hotkeys"`
	UI          UISettings         `json:"ui"`
	Sound       SoundSettings      `json:"sound"`
}

// FolderSettings lists user-chosen directories. Empty values mean the
// defaults from Folders.
type FolderSettings struct {
	GameDirs  []string `json:"gameDirs"`
	Bios      string   `json:"bios,omitempty"`
	Snapshots string   `json:"snapshots,omitempty"`
	Covers    string   `json:"covers,omitempty"`
}

// CoreSettings are passed through to the VM at boot
type CoreSettings struct {
	FastBoot     bool    `json:"fastBoot"`
	EnableCheats bool    `json:"enableCheats"`
	SpeedLimit   float64 `json:"speedLimit"`
	Region       string  `json:"region"` // "auto", "us", "eu", "jp"
}

// ControllerSettings configure the two controller ports
type ControllerSettings struct {
	Port1     string  `json:"port1"`
	Port2     string  `json:"port2"`
	Deadzone  float64 `json:"deadzone"`
	Vibration bool    `json:"vibration"`
}

// UISettings hold window and shell preferences
type UISettings struct {
	Fullscreen      bool   `json:"fullscreen"`
	WindowWidth     int    `json:"windowWidth"`
	WindowHeight    int    `json:"windowHeight"`
	ConfirmShutdown bool   `json:"confirmShutdown"`
	Theme           string `json:"theme"`
}

// SoundSettings control the menu sound effects
type SoundSettings struct {
	Volume     int  `json:"volume"` // 0-100
	MenuSounds bool `json:"menuSounds"`
}

// Default returns a fully populated configuration.
func Default() *Settings {
	s := &Settings{}
	SetDefaultSections(s, SectionAll)
	return s
}

// SetDefaultSections overwrites the selected sections of s with defaults
// and stamps the current version.
func SetDefaultSections(s *Settings, sections Sections) {
	s.Version = Version

	if sections&SectionFolders != 0 {
		s.Folders = FolderSettings{GameDirs: []string{}}
	}
	if sections&SectionCore != 0 {
		s.Core = CoreSettings{
			FastBoot:   true,
			SpeedLimit: 1.0,
			Region:     "auto",
		}
	}
	if sections&SectionControllers != 0 {
		s.Controllers = ControllerSettings{
			Port1:     "DualShock2",
			Port2:     "None",
			Deadzone:  0.15,
			Vibration: true,
		}
	}
	if sections&SectionHotkeys != 0 {
		s.Hotkeys = map[string]string{
			"ToggleFullscreen": "F11",
			"OpenPauseMenu":    "Escape",
			"Screenshot":       "F8",
			"ShutdownVM":       "Shift+Escape",
			"CopyGameInfo":     "F7",
			"OpenImage":        "F2",
		}
	}
	if sections&SectionUI != 0 {
		s.UI = UISettings{
			WindowWidth:     1280,
			WindowHeight:    720,
			ConfirmShutdown: true,
			Theme:           "default",
		}
	}
	if sections&SectionSound != 0 {
		s.Sound = SoundSettings{Volume: 100, MenuSounds: true}
	}
}

// Correct clamps out-of-range values in place and reports whether
// anything changed.
func Correct(s *Settings) bool {
	def := Default()
	changed := false

	fix := func(cond bool, apply func()) {
		if cond {
			apply()
			changed = true
		}
	}

	fix(s.Core.SpeedLimit <= 0 || s.Core.SpeedLimit > 10, func() { s.Core.SpeedLimit = def.Core.SpeedLimit })
	switch s.Core.Region {
	case "auto", "us", "eu", "jp":
	default:
		fix(true, func() { s.Core.Region = def.Core.Region })
	}
	fix(s.Controllers.Deadzone < 0 || s.Controllers.Deadzone >= 1, func() { s.Controllers.Deadzone = def.Controllers.Deadzone })
	fix(s.UI.WindowWidth < 320, func() { s.UI.WindowWidth = def.UI.WindowWidth })
	fix(s.UI.WindowHeight < 240, func() { s.UI.WindowHeight = def.UI.WindowHeight })
	fix(s.Sound.Volume < 0, func() { s.Sound.Volume = 0 })
	fix(s.Sound.Volume > 100, func() { s.Sound.Volume = 100 })
	fix(s.Hotkeys == nil, func() { s.Hotkeys = def.Hotkeys })
	fix(s.Folders.GameDirs == nil, func() { s.Folders.GameDirs = []string{} })

	return changed
}

func (s *Settings) clone() *Settings {
	c := *s
	c.Folders.GameDirs = slices.Clone(s.Folders.GameDirs)
	c.Hotkeys = maps.Clone(s.Hotkeys)
	return &c
}
