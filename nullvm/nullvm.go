// Package nullvm is a VM core that emulates nothing. It follows the
// session state machine the host expects, which makes it useful for
// headless runs and for exercising the host end to end.
package nullvm

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/discimage"
	"github.com/user-none/consolehost/logger"
)

var (
	// ErrSessionActive is returned by Boot when a session already exists.
	ErrSessionActive = errors.New("session already active")
	// ErrArchive is returned by Boot for archives; they must be extracted first.
	ErrArchive = errors.New("cannot boot from an archive")
)

var serialPattern = regexp.MustCompile(`(?i)\b(S[CL][ACEKPU][ACDMSX])[-_ ]?(\d{3})\.?(\d{2})\b`)

// Option configures a VM.
type Option func(*VM)

// WithHooks sets the lifecycle notification sink.
func WithHooks(h vmcore.Hooks) Option {
	return func(v *VM) {
		v.hooks = h
	}
}

// WithVSync sets a function called after every executed tick, the way a
// real core presents a frame.
func WithVSync(fn func()) Option {
	return func(v *VM) {
		v.vsync = fn
	}
}

// WithResetSteps sets how many ResetStep calls a reset takes.
func WithResetSteps(n int) Option {
	return func(v *VM) {
		if n > 0 {
			v.resetSteps = n
		}
	}
}

// WithTickLimit moves a running session to Stopping after n ticks.
// Zero means no limit.
func WithTickLimit(n uint64) Option {
	return func(v *VM) {
		v.tickLimit = n
	}
}

// Pads is the controller state a VM samples once per tick.
type Pads interface {
	Read() [2]uint32
}

// WithPads sets the controller state sampled by ExecuteTick.
func WithPads(p Pads) Option {
	return func(v *VM) {
		v.pads = p
	}
}

// VM implements vmcore.VM. Like any core it must only be used from the
// host's main goroutine.
type VM struct {
	hooks      vmcore.Hooks
	vsync      func()
	resetSteps int
	tickLimit  uint64
	pads       Pads

	session   bool
	started   bool
	state     vmcore.State
	params    vmcore.BootParams
	ticks     uint64
	resets    int
	resetLeft int
	buttons   [2]uint32
}

// New creates a VM with no session.
func New(opts ...Option) *VM {
	v := &VM{
		hooks:      nopHooks{},
		resetSteps: 1,
		state:      vmcore.StateShutdown,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetHooks replaces the lifecycle notification sink. Use it when the
// hooks come from an object that needs the VM to be constructed first.
func (v *VM) SetHooks(h vmcore.Hooks) {
	if h == nil {
		h = nopHooks{}
	}
	v.hooks = h
}

// SetVSync replaces the per-tick frame callback.
func (v *VM) SetVSync(fn func()) {
	v.vsync = fn
}

// SetPads replaces the controller state source.
func (v *VM) SetPads(p Pads) {
	v.pads = p
}

func (v *VM) State() vmcore.State {
	return v.state
}

func (v *VM) HasActiveSession() bool {
	return v.session
}

// Boot checks the image and starts a paused session.
func (v *VM) Boot(params vmcore.BootParams) error {
	log := logger.WithFunc("nullvm.Boot")

	if v.session {
		return ErrSessionActive
	}

	v.state = vmcore.StateInitializing
	v.hooks.OnVMStarting()

	info, err := gameInfo(params)
	if err != nil {
		v.state = vmcore.StateShutdown
		v.hooks.OnVMDestroyed()
		return err
	}

	v.session = true
	v.started = false
	v.params = params
	v.ticks = 0
	v.resets = 0
	v.buttons = [2]uint32{}
	v.hooks.OnGameChanged(info)

	v.state = vmcore.StatePaused
	v.hooks.OnVMStarted()

	log.Info().
		Str("path", params.Filename).
		Stringer("source", params.Source).
		Bool("fast_boot", params.FastBoot).
		Str("serial", info.Serial).
		Stringer("window", params.Window).
		Msg("session started")
	return nil
}

func gameInfo(params vmcore.BootParams) (vmcore.GameInfo, error) {
	info := vmcore.GameInfo{DiscPath: params.Filename, ELFOverride: params.ELFOverride}
	if params.Source == vmcore.SourceNoDisc {
		info.Name = "BIOS"
		return info, nil
	}

	img, err := discimage.Probe(params.Filename)
	if err != nil {
		return info, fmt.Errorf("nullvm: %w", err)
	}
	if img.Archive {
		return info, fmt.Errorf("nullvm: %w: %s", ErrArchive, img.Path)
	}

	name := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	info.Name = name
	if m := serialPattern.FindStringSubmatch(name); m != nil {
		info.Serial = strings.ToUpper(m[1]) + "-" + m[2] + m[3]
	}
	return info, nil
}

// SetState changes the session state. Requests without a session are
// ignored.
func (v *VM) SetState(state vmcore.State) {
	if !v.session {
		logger.WithFunc("nullvm.SetState").Warn().Stringer("state", state).Msg("no session, ignoring state change")
		return
	}

	prev := v.state
	v.state = state

	switch {
	case state == vmcore.StatePaused && prev != vmcore.StatePaused:
		v.hooks.OnVMPaused()
	case state == vmcore.StateRunning && !v.started:
		// The first run after boot is not a resume.
		v.started = true
	case state == vmcore.StateRunning && prev == vmcore.StatePaused:
		v.hooks.OnVMResumed()
	case state == vmcore.StateResetting:
		v.resetLeft = v.resetSteps
	}
}

// ExecuteTick counts one tick of a running session.
func (v *VM) ExecuteTick() {
	if v.state != vmcore.StateRunning {
		return
	}
	v.ticks++
	if v.pads != nil {
		v.samplePads()
	}
	if v.vsync != nil {
		v.vsync()
	}
	if v.tickLimit > 0 && v.ticks >= v.tickLimit && v.state == vmcore.StateRunning {
		logger.WithFunc("nullvm.ExecuteTick").Info().Uint64("ticks", v.ticks).Msg("tick limit reached")
		v.state = vmcore.StateStopping
	}
}

func (v *VM) samplePads() {
	buttons := v.pads.Read()
	if buttons == v.buttons {
		return
	}
	log := logger.WithFunc("nullvm.ExecuteTick")
	for port := range buttons {
		if buttons[port] != v.buttons[port] {
			log.Debug().Int("port", port).Uint32("buttons", buttons[port]).Msg("pad state changed")
		}
	}
	v.buttons = buttons
}

// ResetStep advances a pending reset. The last step clears the tick count
// and resumes the session.
func (v *VM) ResetStep() {
	if v.state != vmcore.StateResetting {
		return
	}
	v.resetLeft--
	if v.resetLeft > 0 {
		return
	}
	v.ticks = 0
	v.resets++
	v.started = true
	v.state = vmcore.StateRunning
}

// Shutdown ends the session. Resume states are not supported; a request
// for one is logged.
func (v *VM) Shutdown(saveState bool) {
	if !v.session {
		return
	}
	log := logger.WithFunc("nullvm.Shutdown")
	if saveState {
		log.Warn().Msg("resume state requested but not supported")
	}

	v.session = false
	v.state = vmcore.StateShutdown
	v.params = vmcore.BootParams{}
	v.hooks.OnVMDestroyed()
	log.Info().Uint64("ticks", v.ticks).Msg("session destroyed")
}

// Ticks returns the ticks executed since boot or the last reset.
func (v *VM) Ticks() uint64 {
	return v.ticks
}

// Resets returns how many resets completed in this session.
func (v *VM) Resets() int {
	return v.resets
}

// Buttons returns the controller state sampled by the last tick.
func (v *VM) Buttons() [2]uint32 {
	return v.buttons
}

// Params returns the parameters of the live session.
func (v *VM) Params() vmcore.BootParams {
	return v.params
}

type nopHooks struct{}

func (nopHooks) OnVMStarting()                  {}
func (nopHooks) OnVMStarted()                   {}
func (nopHooks) OnVMDestroyed()                 {}
func (nopHooks) OnVMPaused()                    {}
func (nopHooks) OnVMResumed()                   {}
func (nopHooks) OnGameChanged(vmcore.GameInfo) {}
