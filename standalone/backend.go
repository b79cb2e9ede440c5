package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// backend is the slice of ebiten the shell touches. Everything goes
// through it so the shell logic can run without a window.
type backend interface {
	IsKeyPressed(k ebiten.Key) bool
	IsKeyJustPressed(k ebiten.Key) bool

	GamepadIDs() []ebiten.GamepadID
	GamepadName(id ebiten.GamepadID) string
	IsPadPressed(id ebiten.GamepadID, b ebiten.StandardGamepadButton) bool
	PadAxis(id ebiten.GamepadID, a ebiten.StandardGamepadAxis) float64

	IsWindowBeingClosed() bool
	WindowSize() (int, int)
	DeviceScale() float64
	IsFullscreen() bool
	SetFullscreen(on bool)
}

type ebitenBackend struct{}

func (ebitenBackend) IsKeyPressed(k ebiten.Key) bool         { return ebiten.IsKeyPressed(k) }
func (ebitenBackend) IsKeyJustPressed(k ebiten.Key) bool     { return inpututil.IsKeyJustPressed(k) }
func (ebitenBackend) GamepadIDs() []ebiten.GamepadID         { return ebiten.AppendGamepadIDs(nil) }
func (ebitenBackend) GamepadName(id ebiten.GamepadID) string { return ebiten.GamepadName(id) }
func (ebitenBackend) IsWindowBeingClosed() bool              { return ebiten.IsWindowBeingClosed() }
func (ebitenBackend) WindowSize() (int, int)                 { return ebiten.WindowSize() }
func (ebitenBackend) IsFullscreen() bool                     { return ebiten.IsFullscreen() }
func (ebitenBackend) SetFullscreen(on bool)                  { ebiten.SetFullscreen(on) }

func (ebitenBackend) IsPadPressed(id ebiten.GamepadID, b ebiten.StandardGamepadButton) bool {
	return ebiten.IsStandardGamepadButtonPressed(id, b)
}

func (ebitenBackend) PadAxis(id ebiten.GamepadID, a ebiten.StandardGamepadAxis) float64 {
	return ebiten.StandardGamepadAxisValue(id, a)
}

func (ebitenBackend) DeviceScale() float64 {
	if m := ebiten.Monitor(); m != nil {
		return m.DeviceScaleFactor()
	}
	return 1.0
}
