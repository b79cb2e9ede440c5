package standalone

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Controller button bits, in the order the console's pad reports them.
const (
	ButtonSelect = iota
	ButtonL3
	ButtonR3
	ButtonStart
	ButtonUp
	ButtonRight
	ButtonDown
	ButtonLeft
	ButtonL2
	ButtonR2
	ButtonL1
	ButtonR1
	ButtonTriangle
	ButtonCircle
	ButtonCross
	ButtonSquare
)

// InputMapping maps button bit IDs to ebiten input types.
type InputMapping struct {
	Keys    map[int]ebiten.Key                   // bit ID -> keyboard key
	Gamepad map[int]ebiten.StandardGamepadButton // bit ID -> gamepad button
}

// keyNameMap maps short key name strings to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Tab":        ebiten.KeyTab,
	"Escape":     ebiten.KeyEscape,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"F1":         ebiten.KeyF1,
	"F2":         ebiten.KeyF2,
	"F3":         ebiten.KeyF3,
	"F4":         ebiten.KeyF4,
	"F5":         ebiten.KeyF5,
	"F6":         ebiten.KeyF6,
	"F7":         ebiten.KeyF7,
	"F8":         ebiten.KeyF8,
	"F9":         ebiten.KeyF9,
	"F10":        ebiten.KeyF10,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// padNameMap maps gamepad button name strings to ebiten StandardGamepadButton values.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"Cross":     ebiten.StandardGamepadButtonRightBottom,
	"Circle":    ebiten.StandardGamepadButtonRightRight,
	"Square":    ebiten.StandardGamepadButtonRightLeft,
	"Triangle":  ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"L2":        ebiten.StandardGamepadButtonFrontBottomLeft,
	"R2":        ebiten.StandardGamepadButtonFrontBottomRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
	"L3":        ebiten.StandardGamepadButtonLeftStick,
	"R3":        ebiten.StandardGamepadButtonRightStick,
}

// ParseKey converts a key name string to an ebiten.Key.
// Returns the key and true if the name is valid, or 0 and false otherwise.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name string to an ebiten.StandardGamepadButton.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// Hotkey is a key with an optional Shift modifier.
type Hotkey struct {
	Key   ebiten.Key
	Shift bool
}

// ParseHotkey reads bindings such as "F11" or "Shift+Escape".
func ParseHotkey(s string) (Hotkey, error) {
	var hk Hotkey
	name := s
	if rest, ok := strings.CutPrefix(s, "Shift+"); ok {
		hk.Shift = true
		name = rest
	}
	k, ok := ParseKey(name)
	if !ok {
		return Hotkey{}, fmt.Errorf("unknown key %q in hotkey %q", name, s)
	}
	hk.Key = k
	return hk, nil
}

// defaultBindings lists the keyboard and pad defaults per button.
var defaultBindings = []struct {
	BitID      int
	DefaultKey string
	DefaultPad string
}{
	{ButtonUp, "W", "DpadUp"},
	{ButtonDown, "S", "DpadDown"},
	{ButtonLeft, "A", "DpadLeft"},
	{ButtonRight, "D", "DpadRight"},
	{ButtonCross, "K", "Cross"},
	{ButtonCircle, "L", "Circle"},
	{ButtonSquare, "J", "Square"},
	{ButtonTriangle, "I", "Triangle"},
	{ButtonL1, "Q", "L1"},
	{ButtonR1, "E", "R1"},
	{ButtonL2, "1", "L2"},
	{ButtonR2, "3", "R2"},
	{ButtonL3, "Z", "L3"},
	{ButtonR3, "X", "R3"},
	{ButtonStart, "Enter", "Start"},
	{ButtonSelect, "Backspace", "Select"},
}

// BuildDefaultMapping creates the default mapping. Keys bound to a
// hotkey are left unmapped so a hotkey press never reaches the core.
func BuildDefaultMapping(hotkeys map[string]Hotkey) InputMapping {
	reserved := make(map[ebiten.Key]bool, len(hotkeys))
	for _, hk := range hotkeys {
		reserved[hk.Key] = true
	}

	m := InputMapping{
		Keys:    make(map[int]ebiten.Key),
		Gamepad: make(map[int]ebiten.StandardGamepadButton),
	}
	for _, b := range defaultBindings {
		if k, ok := ParseKey(b.DefaultKey); ok && !reserved[k] {
			m.Keys[b.BitID] = k
		}
		if p, ok := ParsePad(b.DefaultPad); ok {
			m.Gamepad[b.BitID] = p
		}
	}
	return m
}
