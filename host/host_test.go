package host

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/devices"
	"github.com/user-none/consolehost/gamelist"
)

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image"), 0644))
	return path
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestRequestBoot(t *testing.T) {
	f := newFixture(func(c *Config) { c.FastBoot = true })
	path := writeImage(t, "game.iso")

	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: path}))
	// Nothing happens until the main goroutine drains.
	assert.Empty(t, f.rec.list())

	assert.Equal(t, 1, f.host.Queue().DrainAll())
	assert.Equal(t, []string{"Boot", "SetState:Running", "ReloadDevices"}, f.rec.list())
	require.Len(t, f.vm.booted, 1)
	assert.Equal(t, vmcore.BootParams{Filename: path, Source: vmcore.SourceIso, FastBoot: true, Window: vmcore.SurfacelessInfo()}, f.vm.booted[0])
	assert.True(t, f.host.SessionActive())
	assert.Equal(t, vmcore.StateRunning, f.host.SnapshotState())
}

func TestRequestBootSourceOverride(t *testing.T) {
	f := newFixture()
	path := writeImage(t, "game.iso")

	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: path, Source: vmcore.SourceDisc, ELFOverride: "boot.elf"}))
	f.host.Queue().DrainAll()
	require.Len(t, f.vm.booted, 1)
	assert.Equal(t, vmcore.SourceDisc, f.vm.booted[0].Source)
	assert.Equal(t, "boot.elf", f.vm.booted[0].ELFOverride)
}

func TestRequestBootValidation(t *testing.T) {
	f := newFixture()

	assert.ErrorIs(t, f.host.RequestBoot(LaunchRequest{}), ErrEmptyPath)
	assert.Error(t, f.host.RequestBoot(LaunchRequest{Path: filepath.Join(t.TempDir(), "missing.iso")}))
	assert.Equal(t, 0, f.host.Queue().Len())
}

func TestRequestBootRejectedWhileActive(t *testing.T) {
	f := newFixture()
	f.vm.session, f.vm.state = true, vmcore.StateRunning
	NewDriver(f.host, noFatal(t)).Iterate()

	err := f.host.RequestBoot(LaunchRequest{Path: writeImage(t, "game.iso")})
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, 0, f.host.Queue().Len())
}

func TestOnlyOneBootWhenRequestsRace(t *testing.T) {
	f := newFixture()
	path := writeImage(t, "game.iso")

	// Both pass the early check because no iteration has published yet.
	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: path}))
	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: path}))

	f.host.Queue().DrainAll()
	assert.Equal(t, 1, f.rec.count("Boot"))
}

func TestBootFailureIsReported(t *testing.T) {
	f := newFixture()
	f.vm.bootErr = errBoot

	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: writeImage(t, "game.iso")}))
	f.host.Queue().DrainAll()

	assert.Equal(t, []string{"Boot", "ReportError"}, f.rec.list())
	assert.Equal(t, []string{"Boot failed: bios not found"}, f.callbacks.errors)
	assert.False(t, f.host.SessionActive())
	assert.Equal(t, vmcore.StateShutdown, f.vm.state)
}

func TestRequestBootFromArchive(t *testing.T) {
	extract := t.TempDir()
	f := newFixture(func(c *Config) { c.ExtractDir = extract })

	path := filepath.Join(t.TempDir(), "game.zip")
	zf, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(zf)
	fw, err := w.Create("game.iso")
	require.NoError(t, err)
	fw.Write([]byte("disc"))
	require.NoError(t, w.Close())
	require.NoError(t, zf.Close())

	require.NoError(t, f.host.RequestBoot(LaunchRequest{Path: path}))
	require.Eventually(t, func() bool { return f.host.Queue().Len() == 1 }, time.Second, time.Millisecond)

	f.host.Queue().DrainAll()
	require.Len(t, f.vm.booted, 1)
	assert.Equal(t, filepath.Join(extract, "game.iso"), f.vm.booted[0].Filename)
}

func TestRequestBootArchiveWithoutExtractDir(t *testing.T) {
	f := newFixture()
	path := filepath.Join(t.TempDir(), "game.zip")
	require.NoError(t, os.WriteFile(path, []byte{0x50, 0x4B, 0x03, 0x04, 0, 0}, 0644))

	assert.Error(t, f.host.RequestBoot(LaunchRequest{Path: path}))
}

func TestHandleActivation(t *testing.T) {
	f := newFixture()
	path := writeImage(t, "game.iso")

	uri := "consolehost://launch?cmd=xbsx2.exe%20%22" + path + "%22&launchOnExit=frontend%3A%2F%2Fhome"
	require.NoError(t, f.host.HandleActivation(uri))
	assert.Equal(t, "frontend://home", f.host.LaunchOnExit())

	f.host.Queue().DrainAll()
	require.Len(t, f.vm.booted, 1)
	assert.Equal(t, path, f.vm.booted[0].Filename)
}

func TestHandleActivationWhileRunning(t *testing.T) {
	f := newFixture()
	f.vm.session, f.vm.state = true, vmcore.StateRunning
	NewDriver(f.host, noFatal(t)).Iterate()

	path := writeImage(t, "game.iso")
	uri := "consolehost://launch?cmd=%22" + path + "%22&launchOnExit=frontend%3A%2F%2F"
	require.NoError(t, f.host.HandleActivation(uri))
	assert.Equal(t, "frontend://", f.host.LaunchOnExit())
	assert.Equal(t, 0, f.host.Queue().Len())
}

func TestHandleActivationErrors(t *testing.T) {
	f := newFixture()
	assert.Error(t, f.host.HandleActivation("not-a-uri"))
	assert.NoError(t, f.host.HandleActivation("consolehost://launch"))
	assert.Equal(t, 0, f.host.Queue().Len())
}

func TestRequestVMShutdown(t *testing.T) {
	f := newFixture()
	f.vm.session, f.vm.state = true, vmcore.StatePaused

	f.host.RequestVMShutdown(true)
	assert.Equal(t, 0, f.rec.count("Shutdown"))

	f.host.Queue().DrainAll()
	assert.Equal(t, []bool{true}, f.vm.saves)
	assert.False(t, f.host.SessionActive())

	// No session, nothing to do.
	f.host.RequestVMShutdown(false)
	f.host.Queue().DrainAll()
	assert.Len(t, f.vm.saves, 1)
}

func TestRequestTogglePause(t *testing.T) {
	f := newFixture()
	f.vm.session, f.vm.state = true, vmcore.StateRunning

	f.host.RequestTogglePause()
	f.host.Queue().DrainAll()
	assert.Equal(t, vmcore.StatePaused, f.host.SnapshotState())

	f.host.RequestTogglePause()
	f.host.Queue().DrainAll()
	assert.Equal(t, vmcore.StateRunning, f.host.SnapshotState())

	f.vm.state = vmcore.StateResetting
	f.host.RequestTogglePause()
	f.host.Queue().DrainAll()
	assert.Equal(t, []string{"SetState:Paused", "SetState:Running"}, f.rec.list())
}

func TestRequestExitFromAnyGoroutine(t *testing.T) {
	f := newFixture()
	d := NewDriver(f.host)
	d.running.Store(true)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.host.RequestExit()
	}()
	wg.Wait()

	assert.True(t, f.host.ExitRequested())
	assert.False(t, d.Running())
}

func TestOrderedAcrossGoroutines(t *testing.T) {
	f := newFixture()
	var x, y int
	var seen []int

	aDone := make(chan struct{})
	go func() {
		f.host.RunOnCPUThread(func() { x = 1; seen = append(seen, 1) })
		close(aDone)
	}()
	<-aDone
	go func() {
		f.host.RunOnCPUThread(func() { y = 2; seen = append(seen, 2) })
	}()

	require.Eventually(t, func() bool { return f.host.Queue().Len() == 2 }, time.Second, time.Millisecond)
	f.host.Queue().DrainAll()
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestVSyncDrains(t *testing.T) {
	f := newFixture()
	f.host.RunOnCPUThread(func() { f.rec.add("action") })
	f.host.VSync()
	assert.Equal(t, []string{"action"}, f.rec.list())
}

func TestPanickingActionIsReported(t *testing.T) {
	f := newFixture()
	f.host.RunOnCPUThread(func() { panic("boom") })
	f.host.RunOnCPUThread(func() { f.rec.add("after") })

	assert.Equal(t, 2, f.host.Queue().DrainAll())
	assert.Equal(t, []string{"ReportError", "after"}, f.rec.list())
}

// fakeSource lets a test fire hot-plug notifications directly
type fakeSource struct {
	added, removed []func(devices.Device)
}

func (s *fakeSource) OnAdded(fn func(devices.Device))   { s.added = append(s.added, fn) }
func (s *fakeSource) OnRemoved(fn func(devices.Device)) { s.removed = append(s.removed, fn) }

func TestWatchDevices(t *testing.T) {
	f := newFixture()
	src := &fakeSource{}
	f.host.WatchDevices(src)

	for _, fn := range src.added {
		fn(devices.Device{ID: 1})
	}
	for _, fn := range src.removed {
		fn(devices.Device{ID: 1})
	}
	assert.Equal(t, 0, f.rec.count("ReloadDevices"), "reload must wait for the main goroutine")
	assert.Equal(t, 2, f.host.Queue().DrainAll())
	assert.Equal(t, 2, f.rec.count("ReloadDevices"))
}

type recordingHooks struct {
	LogHooks
	rec *recorder
}

func (h recordingHooks) OnVMStarted()   { h.rec.add("OnVMStarted") }
func (h recordingHooks) OnVMDestroyed() { h.rec.add("OnVMDestroyed") }

func TestHooksForwardAndTrackGame(t *testing.T) {
	rec := &recorder{}
	f := newFixture(func(c *Config) { c.Hooks = recordingHooks{rec: rec} })

	hooks := f.host.Hooks()
	hooks.OnVMStarting()
	hooks.OnGameChanged(vmcore.GameInfo{Serial: "SCUS-97113", Name: "Ico", CRC: 0xABCD})
	hooks.OnVMStarted()
	hooks.OnVMPaused()
	hooks.OnVMResumed()
	assert.Equal(t, "SCUS-97113", f.host.CurrentGame().Serial)

	hooks.OnVMDestroyed()
	assert.Equal(t, vmcore.GameInfo{}, f.host.CurrentGame())
	assert.Equal(t, []string{"OnVMStarted", "OnVMDestroyed"}, rec.list())
}

func TestGameListRefreshDelivered(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.iso"), []byte("a"), 0644))

	done := make(chan int, 1)
	f := newFixture(func(c *Config) {
		c.GameList.Dirs = []gamelist.Dir{{Path: root}}
		c.OnGameListRefreshed = func(r gamelist.Result) { done <- r.Entries }
	})

	f.host.RefreshGameListAsync(false)
	f.host.GameList().Wait()
	assert.False(t, f.host.GameList().Scanning())

	select {
	case <-done:
		t.Fatal("completion must not run before the queue is drained")
	default:
	}
	f.host.Queue().DrainAll()
	assert.Equal(t, 1, <-done)

	f.host.CancelGameListRefresh()
}

func TestLogCallbacks(t *testing.T) {
	var c LogCallbacks
	c.ReportError("title", "message")
	assert.True(t, c.ConfirmMessage("title", "question"))
	c.CPUThreadShutdown()

	var h LogHooks
	h.OnGameChanged(vmcore.GameInfo{Name: "Ico", CRC: 1})
}
