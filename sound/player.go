package sound

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/user-none/consolehost/logger"
)

// pollInterval is how often a finished one-shot player is checked for.
const pollInterval = 20 * time.Millisecond

var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// sharedContext initializes the process-wide oto context on first use.
// oto allows a single context per process.
func sharedContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   OutputSampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
	})
	return otoCtx, otoInitErr
}

// Player plays sound files once, asynchronously.
type Player struct {
	mu      sync.Mutex
	volume  float64
	context func() (*oto.Context, error)
}

// NewPlayer returns a player using the shared audio context. Volume is
// 0-100.
func NewPlayer(volume int) *Player {
	p := &Player{context: sharedContext}
	p.SetVolume(volume)
	return p
}

// SetVolume sets the volume for sounds started after the call.
func (p *Player) SetVolume(volume int) {
	volume = max(0, min(volume, 100))
	p.mu.Lock()
	p.volume = float64(volume) / 100
	p.mu.Unlock()
}

// PlayFileAsync decodes path and starts playing it. It returns once
// playback has begun; the player is closed when the sound ends.
func (p *Player) PlayFileAsync(path string) error {
	pcm, err := DecodeFile(path)
	if err != nil {
		return err
	}
	data := ToStereo48k(pcm)
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := p.context()
	if err != nil {
		return fmt.Errorf("audio not available: %w", err)
	}

	player := ctx.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.volume)
	player.Play()

	go func() {
		for player.IsPlaying() {
			time.Sleep(pollInterval)
		}
		if err := player.Close(); err != nil {
			logger.WithFunc("sound.PlayFileAsync").Warn().Err(err).Str("path", path).Msg("close player")
		}
	}()

	return nil
}
