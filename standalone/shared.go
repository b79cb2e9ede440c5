package standalone

import "sync"

const maxPlayers = 2

// SharedInput holds controller state as button bitmasks written on the
// main goroutine and read by the core from wherever it runs its pads.
type SharedInput struct {
	mu      sync.Mutex
	buttons [maxPlayers]uint32
}

// Set updates button bitmask for a player.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= maxPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the current button bitmasks for all players.
func (si *SharedInput) Read() [maxPlayers]uint32 {
	si.mu.Lock()
	result := si.buttons
	si.mu.Unlock()
	return result
}
