package host

import (
	"errors"
	"sync"

	vmcore "github.com/user-none/consolehost/api"
)

// recorder keeps an ordered log of collaborator calls
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.list() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeVM struct {
	rec     *recorder
	session bool
	state   vmcore.State
	bootErr error
	booted  []vmcore.BootParams
	saves   []bool
}

func (v *fakeVM) State() vmcore.State    { return v.state }
func (v *fakeVM) HasActiveSession() bool { return v.session }

func (v *fakeVM) Boot(p vmcore.BootParams) error {
	v.rec.add("Boot")
	if v.bootErr != nil {
		return v.bootErr
	}
	v.booted = append(v.booted, p)
	v.session = true
	v.state = vmcore.StatePaused
	return nil
}

func (v *fakeVM) SetState(s vmcore.State) {
	v.rec.add("SetState:" + s.String())
	v.state = s
}

func (v *fakeVM) ExecuteTick() { v.rec.add("ExecuteTick") }
func (v *fakeVM) ResetStep()   { v.rec.add("ResetStep") }

func (v *fakeVM) Shutdown(save bool) {
	v.rec.add("Shutdown")
	v.saves = append(v.saves, save)
	v.session = false
	v.state = vmcore.StateShutdown
}

type fakeInput struct{ rec *recorder }

func (i *fakeInput) PollSources()   { i.rec.add("PollSources") }
func (i *fakeInput) ReloadDevices() { i.rec.add("ReloadDevices") }

type fakePlatform struct{ rec *recorder }

func (p *fakePlatform) PumpWindowEvents()             { p.rec.add("Pump") }
func (p *fakePlatform) WindowInfo() vmcore.WindowInfo { return vmcore.SurfacelessInfo() }

type fakeCallbacks struct {
	rec    *recorder
	errors []string
}

func (c *fakeCallbacks) ReportError(title, message string) {
	c.rec.add("ReportError")
	c.rec.mu.Lock()
	c.errors = append(c.errors, title+": "+message)
	c.rec.mu.Unlock()
}

func (c *fakeCallbacks) ConfirmMessage(title, message string) bool { return true }
func (c *fakeCallbacks) CPUThreadShutdown()                        { c.rec.add("CPUThreadShutdown") }

type fakeLauncher struct {
	rec  *recorder
	uris []string
	err  error
}

func (l *fakeLauncher) Launch(uri string) error {
	l.rec.add("Launch")
	l.uris = append(l.uris, uri)
	return l.err
}

var errBoot = errors.New("bios not found")

type fixture struct {
	rec       *recorder
	vm        *fakeVM
	input     *fakeInput
	platform  *fakePlatform
	callbacks *fakeCallbacks
	launcher  *fakeLauncher
	host      *Host
}

func newFixture(mutate ...func(*Config)) *fixture {
	rec := &recorder{}
	f := &fixture{
		rec:       rec,
		vm:        &fakeVM{rec: rec},
		input:     &fakeInput{rec: rec},
		platform:  &fakePlatform{rec: rec},
		callbacks: &fakeCallbacks{rec: rec},
		launcher:  &fakeLauncher{rec: rec},
	}
	cfg := Config{
		VM:        f.vm,
		Input:     f.input,
		Platform:  f.platform,
		Callbacks: f.callbacks,
		Launcher:  f.launcher,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h, err := New(cfg)
	if err != nil {
		panic(err)
	}
	f.host = h
	return f
}
