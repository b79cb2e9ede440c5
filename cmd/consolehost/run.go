package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/devices"
	"github.com/user-none/consolehost/gamelist"
	"github.com/user-none/consolehost/host"
	"github.com/user-none/consolehost/logger"
	"github.com/user-none/consolehost/nullvm"
	"github.com/user-none/consolehost/rdb"
	"github.com/user-none/consolehost/resources"
	"github.com/user-none/consolehost/settings"
	"github.com/user-none/consolehost/sound"
	"github.com/user-none/consolehost/standalone"
)

const (
	defaultRDB  = "Sony - PlayStation 2.rdb"
	startSound  = "sounds/start.wav"
	windowTitle = "consolehost"
)

func run(ctx context.Context, opts options) error {
	if err := logger.Setup(opts.logLevel, os.Stderr); err != nil {
		return err
	}
	log := logger.WithFunc("main.run")

	base := opts.dataDir
	if base == "" {
		dir, err := settings.DefaultBaseDir(appName)
		if err != nil {
			return err
		}
		base = dir
	}
	folders, err := settings.InitializeCriticalFolders(base)
	if err != nil {
		return err
	}

	store := settings.NewStore(folders)
	if err := store.Initialize(ctx); err != nil {
		return err
	}
	cfg := store.Get()

	res := resources.New(folders.Resources)
	rdbPath := opts.rdbPath
	if rdbPath == "" {
		rdbPath = res.Path(defaultRDB)
	}

	vm := nullvm.New(nullvm.WithTickLimit(opts.ticks))
	hcfg := host.Config{
		VM:         vm,
		Launcher:   standalone.NewExecLauncher(),
		GameList:   gameListConfig(cfg, folders, loadDatabase(rdbPath)),
		ExtractDir: folders.Cache,
		FastBoot:   cfg.Core.FastBoot,
	}

	var (
		platform *standalone.Platform
		input    *standalone.GamepadInput
		notify   *standalone.Notification
	)
	if opts.headless {
		hcfg.Input = headlessInput{}
		hcfg.Platform = headlessPlatform{}
	} else {
		notify = standalone.NewNotification()
		platform = standalone.NewPlatform(standalone.PlatformConfig{
			Hotkeys:         cfg.Hotkeys,
			ConfirmShutdown: cfg.UI.ConfirmShutdown,
			OnShutdown:      func() { saveWindowState(ctx, store, platform) },
		})
		input = standalone.NewGamepadInput(
			standalone.BuildDefaultMapping(platform.Hotkeys()),
			[2]string{cfg.Controllers.Port1, cfg.Controllers.Port2},
			cfg.Controllers.Deadzone,
		)
		vm.SetPads(input.Shared())
		hcfg.Input = input
		hcfg.Platform = platform
		hcfg.Callbacks = platform
		hcfg.OnGameListRefreshed = func(r gamelist.Result) {
			if msg := r.Message(); msg != "" {
				notify.ShowDefault(msg)
			}
		}
	}
	hcfg.Hooks = buildHooks(res, cfg.Sound, notify)

	h, err := host.New(hcfg)
	if err != nil {
		return err
	}
	vm.SetHooks(h.Hooks())
	vm.SetVSync(h.VSync)

	if err := queueLaunch(h, opts); err != nil {
		return err
	}

	driver := host.NewDriver(h)

	if opts.headless {
		log.Info().Str("data_dir", base).Msg("running headless")
		driver.Run(ctx)
		return nil
	}

	platform.Attach(h)

	poller := devices.NewPoller(input.Devices, devices.DefaultPollInterval)
	h.WatchDevices(poller)
	poller.Start(ctx)
	defer poller.Stop()

	go func() {
		<-ctx.Done()
		h.RequestExit()
	}()

	log.Info().Str("data_dir", base).Msg("opening window")
	return standalone.NewShell(h, driver, platform, notify, standalone.NewScreenshotManager(folders.Snapshots)).Run(windowTitle, cfg.UI)
}

type windowState interface {
	WindowState() (width, height int, fullscreen bool)
}

// saveWindowState records the window geometry so the next start reopens
// it the same way. The size is kept from before going fullscreen.
func saveWindowState(ctx context.Context, store *settings.Store, w windowState) {
	width, height, fullscreen := w.WindowState()
	store.Update(func(s *settings.Settings) {
		s.UI.Fullscreen = fullscreen
		if !fullscreen && width > 0 && height > 0 {
			s.UI.WindowWidth = width
			s.UI.WindowHeight = height
		}
	})
	// The run context is usually cancelled by now; the lock wait must not be.
	if err := store.Save(context.WithoutCancel(ctx)); err != nil {
		logger.WithFunc("main.saveWindowState").Error().Err(err).Msg("failed to save settings")
	}
}

// queueLaunch hands the command line boot request to the host. It runs
// before the loop starts, so the boot happens in the first drain.
func queueLaunch(h *host.Host, opts options) error {
	switch {
	case opts.uri != "":
		return h.HandleActivation(opts.uri)
	case opts.boot != "":
		return h.RequestBoot(host.LaunchRequest{Path: opts.boot, ELFOverride: opts.elf})
	case opts.elf != "":
		return h.RequestBoot(host.LaunchRequest{Path: opts.elf, Source: vmcore.SourceELF})
	}
	return nil
}

func gameListConfig(cfg *settings.Settings, folders settings.Folders, db *rdb.RDB) gamelist.Config {
	dirs := make([]gamelist.Dir, 0, len(cfg.Folders.GameDirs))
	for _, d := range cfg.Folders.GameDirs {
		dirs = append(dirs, gamelist.Dir{Path: d, Recursive: true})
	}
	return gamelist.Config{
		Dirs:      dirs,
		Excluded:  []string{folders.Base},
		CachePath: filepath.Join(folders.Settings, gamelist.CacheFile),
		DB:        db,
	}
}

// loadDatabase returns nil when the database is missing; names then come
// from file names.
func loadDatabase(path string) *rdb.RDB {
	log := logger.WithFunc("main.loadDatabase")
	db, err := rdb.LoadRDB(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("no game database")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("failed to load game database")
		}
		return nil
	}
	log.Info().Int("games", db.GameCount()).Msg("game database loaded")
	return db
}

// buildHooks returns the lifecycle hooks for the session. Without a
// notification area they only log.
func buildHooks(res *resources.Dir, cfg settings.SoundSettings, notify *standalone.Notification) vmcore.Hooks {
	var hooks vmcore.Hooks = host.LogHooks{}
	if notify != nil {
		hooks = standalone.NotifyHooks{Notify: notify}
	}
	return startSoundHooks(res, cfg, hooks)
}

// soundHooks plays the start sound when a session starts.
type soundHooks struct {
	vmcore.Hooks
	player *sound.Player
	path   string
}

func (s soundHooks) OnVMStarted() {
	s.Hooks.OnVMStarted()
	if err := s.player.PlayFileAsync(s.path); err != nil {
		logger.WithFunc("main.soundHooks.OnVMStarted").Warn().Err(err).Msg("failed to play start sound")
	}
}

func startSoundHooks(res *resources.Dir, cfg settings.SoundSettings, inner vmcore.Hooks) vmcore.Hooks {
	if !cfg.MenuSounds {
		return inner
	}
	if _, err := res.Timestamp(startSound); err != nil {
		return inner
	}
	return soundHooks{Hooks: inner, player: sound.NewPlayer(cfg.Volume), path: res.Path(startSound)}
}

type headlessInput struct{}

func (headlessInput) PollSources()   {}
func (headlessInput) ReloadDevices() {}

type headlessPlatform struct{}

func (headlessPlatform) PumpWindowEvents()             {}
func (headlessPlatform) WindowInfo() vmcore.WindowInfo { return vmcore.SurfacelessInfo() }
