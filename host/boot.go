package host

import (
	"errors"
	"fmt"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/activation"
	"github.com/user-none/consolehost/discimage"
	"github.com/user-none/consolehost/logger"
)

// LaunchRequest asks the host to boot an image.
type LaunchRequest struct {
	Path string
	// Source overrides the kind detected from Path when not SourceUnknown.
	Source vmcore.SourceKind
	// ELFOverride optionally replaces the executable booted from the disc.
	ELFOverride string
}

// RequestBoot validates req and schedules the boot on the main goroutine.
// Archives are unpacked into the extract folder on a separate goroutine
// first. The request is rejected when a session is already active; the
// check is repeated on the main goroutine before booting.
func (h *Host) RequestBoot(req LaunchRequest) error {
	log := logger.WithFunc("host.RequestBoot")

	if req.Path == "" {
		return ErrEmptyPath
	}
	if h.SessionActive() {
		log.Warn().Str("path", req.Path).Msg("VM already active, ignoring boot request")
		return ErrSessionActive
	}

	img, err := discimage.Probe(req.Path)
	if err != nil {
		return fmt.Errorf("boot %s: %w", req.Path, err)
	}

	params := vmcore.BootParams{
		Filename:    img.Path,
		Source:      img.Source,
		ELFOverride: req.ELFOverride,
		FastBoot:    h.fastBoot,
	}
	if req.Source != vmcore.SourceUnknown {
		params.Source = req.Source
	}

	if !img.Archive {
		log.Info().Str("path", params.Filename).Stringer("source", params.Source).Msg("boot requested")
		h.RunOnCPUThread(func() { h.boot(params) })
		return nil
	}

	if h.extractDir == "" {
		return fmt.Errorf("boot %s: %w: no extract folder configured", req.Path, discimage.ErrUnsupportedFormat)
	}
	go func() {
		out, err := discimage.Extract(img.Path, h.extractDir)
		if err != nil {
			log.Error().Err(err).Str("path", img.Path).Msg("failed to extract image")
			h.callbacks.ReportError("Boot failed", err.Error())
			return
		}
		params.Filename = out
		h.RunOnCPUThread(func() { h.boot(params) })
	}()
	return nil
}

// boot runs on the main goroutine. Failures are reported, never fatal.
func (h *Host) boot(params vmcore.BootParams) {
	log := logger.WithFunc("host.boot")

	if h.vm.HasActiveSession() {
		log.Warn().Str("path", params.Filename).Msg("VM already active, dropping boot")
		return
	}

	params.Window = h.platform.WindowInfo()
	if err := h.vm.Boot(params); err != nil {
		log.Error().Err(err).Str("path", params.Filename).Msg("boot failed")
		h.callbacks.ReportError("Boot failed", err.Error())
		h.publish()
		return
	}

	h.vm.SetState(vmcore.StateRunning)
	h.input.ReloadDevices()
	h.publish()
	log.Info().Str("path", params.Filename).Msg("VM running")
}

// HandleActivation processes a protocol activation URI: it records the
// launch-on-exit target and boots the carried image, if any.
func (h *Host) HandleActivation(uri string) error {
	a, err := activation.Parse(uri)
	if err != nil {
		return err
	}

	if a.LaunchOnExit != "" {
		h.SetLaunchOnExit(a.LaunchOnExit)
	}
	if a.BootPath == "" {
		return nil
	}

	err = h.RequestBoot(LaunchRequest{Path: a.BootPath})
	if errors.Is(err, ErrSessionActive) {
		// Re-activation while a game runs only updates launch-on-exit.
		return nil
	}
	return err
}
