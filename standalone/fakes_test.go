package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"
)

type fakeBackend struct {
	pressed map[ebiten.Key]bool
	just    map[ebiten.Key]bool

	pads    []ebiten.GamepadID
	names   map[ebiten.GamepadID]string
	buttons map[ebiten.GamepadID]map[ebiten.StandardGamepadButton]bool
	axes    map[ebiten.GamepadID]map[ebiten.StandardGamepadAxis]float64

	closing    bool
	width      int
	height     int
	scale      float64
	fullscreen bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pressed: map[ebiten.Key]bool{},
		just:    map[ebiten.Key]bool{},
		names:   map[ebiten.GamepadID]string{},
		buttons: map[ebiten.GamepadID]map[ebiten.StandardGamepadButton]bool{},
		axes:    map[ebiten.GamepadID]map[ebiten.StandardGamepadAxis]float64{},
		scale:   1.0,
	}
}

func (b *fakeBackend) IsKeyPressed(k ebiten.Key) bool         { return b.pressed[k] }
func (b *fakeBackend) IsKeyJustPressed(k ebiten.Key) bool     { return b.just[k] }
func (b *fakeBackend) GamepadIDs() []ebiten.GamepadID         { return append([]ebiten.GamepadID(nil), b.pads...) }
func (b *fakeBackend) GamepadName(id ebiten.GamepadID) string { return b.names[id] }
func (b *fakeBackend) IsWindowBeingClosed() bool              { return b.closing }
func (b *fakeBackend) WindowSize() (int, int)                 { return b.width, b.height }
func (b *fakeBackend) DeviceScale() float64                   { return b.scale }
func (b *fakeBackend) IsFullscreen() bool                     { return b.fullscreen }
func (b *fakeBackend) SetFullscreen(on bool)                  { b.fullscreen = on }

func (b *fakeBackend) IsPadPressed(id ebiten.GamepadID, btn ebiten.StandardGamepadButton) bool {
	return b.buttons[id][btn]
}

func (b *fakeBackend) PadAxis(id ebiten.GamepadID, a ebiten.StandardGamepadAxis) float64 {
	return b.axes[id][a]
}

func (b *fakeBackend) press(id ebiten.GamepadID, btn ebiten.StandardGamepadButton) {
	if b.buttons[id] == nil {
		b.buttons[id] = map[ebiten.StandardGamepadButton]bool{}
	}
	b.buttons[id][btn] = true
}

func (b *fakeBackend) tilt(id ebiten.GamepadID, a ebiten.StandardGamepadAxis, v float64) {
	if b.axes[id] == nil {
		b.axes[id] = map[ebiten.StandardGamepadAxis]float64{}
	}
	b.axes[id][a] = v
}
