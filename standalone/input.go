package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/consolehost/devices"
	"github.com/user-none/consolehost/logger"
)

// PortNone disables a controller port.
const PortNone = "None"

// GamepadInput implements vmcore.Input with ebiten's standard gamepad
// layout. Player 1 also reads the keyboard.
type GamepadInput struct {
	be       backend
	mapping  InputMapping
	deadzone float64
	enabled  [maxPlayers]bool
	shared   *SharedInput

	// Gamepad assigned to each port, set by ReloadDevices.
	pads   [maxPlayers]ebiten.GamepadID
	hasPad [maxPlayers]bool
}

// NewGamepadInput creates the input manager. ports names the controller
// type per port; PortNone leaves a port unplugged.
func NewGamepadInput(mapping InputMapping, ports [maxPlayers]string, deadzone float64) *GamepadInput {
	return newGamepadInput(ebitenBackend{}, mapping, ports, deadzone)
}

func newGamepadInput(be backend, mapping InputMapping, ports [maxPlayers]string, deadzone float64) *GamepadInput {
	gi := &GamepadInput{
		be:       be,
		mapping:  mapping,
		deadzone: deadzone,
		shared:   &SharedInput{},
	}
	for i, p := range ports {
		gi.enabled[i] = p != "" && p != PortNone
	}
	return gi
}

// Shared returns the button state read by the core.
func (gi *GamepadInput) Shared() *SharedInput {
	return gi.shared
}

// PollSources reads the keyboard and assigned gamepads into the shared
// button state.
func (gi *GamepadInput) PollSources() {
	for port := 0; port < maxPlayers; port++ {
		var buttons uint32
		if gi.enabled[port] {
			if port == 0 {
				buttons |= gi.pollKeyboard()
			}
			if gi.hasPad[port] {
				buttons |= gi.pollGamepad(gi.pads[port])
			}
		}
		gi.shared.Set(port, buttons)
	}
}

func (gi *GamepadInput) pollKeyboard() uint32 {
	var buttons uint32
	for bit, key := range gi.mapping.Keys {
		if gi.be.IsKeyPressed(key) {
			buttons |= 1 << bit
		}
	}
	return buttons
}

func (gi *GamepadInput) pollGamepad(id ebiten.GamepadID) uint32 {
	var buttons uint32
	for bit, btn := range gi.mapping.Gamepad {
		if gi.be.IsPadPressed(id, btn) {
			buttons |= 1 << bit
		}
	}

	// Left stick doubles as the d-pad
	x := gi.be.PadAxis(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	y := gi.be.PadAxis(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if x < -gi.deadzone {
		buttons |= 1 << ButtonLeft
	}
	if x > gi.deadzone {
		buttons |= 1 << ButtonRight
	}
	if y < -gi.deadzone {
		buttons |= 1 << ButtonUp
	}
	if y > gi.deadzone {
		buttons |= 1 << ButtonDown
	}
	return buttons
}

// ReloadDevices assigns connected gamepads to enabled ports in
// connection order.
func (gi *GamepadInput) ReloadDevices() {
	log := logger.WithFunc("standalone.GamepadInput.ReloadDevices")

	ids := gi.be.GamepadIDs()
	next := 0
	for port := 0; port < maxPlayers; port++ {
		gi.hasPad[port] = false
		if !gi.enabled[port] || next >= len(ids) {
			continue
		}
		gi.pads[port] = ids[next]
		gi.hasPad[port] = true
		log.Info().Int("port", port+1).Str("name", gi.be.GamepadName(ids[next])).Msg("gamepad assigned")
		next++
	}
	log.Debug().Int("connected", len(ids)).Msg("devices reloaded")
}

// Devices lists connected gamepads for a devices.Poller.
func (gi *GamepadInput) Devices() []devices.Device {
	ids := gi.be.GamepadIDs()
	out := make([]devices.Device, 0, len(ids))
	for _, id := range ids {
		out = append(out, devices.Device{ID: int(id), Name: gi.be.GamepadName(id)})
	}
	return out
}
