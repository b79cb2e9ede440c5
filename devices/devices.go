// Package devices reports input device hot-plug events.
package devices

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/user-none/consolehost/logger"
)

// DefaultPollInterval is used by NewPoller when interval is zero.
const DefaultPollInterval = 500 * time.Millisecond

// Device identifies a connected input device.
type Device struct {
	ID   int
	Name string
}

// EventSource notifies subscribers when devices come and go. Callbacks may
// run on any goroutine.
type EventSource interface {
	OnAdded(fn func(Device))
	OnRemoved(fn func(Device))
}

// Poller implements EventSource for platforms that only offer enumeration.
// It compares successive snapshots from Enumerate and reports the
// difference.
type Poller struct {
	enumerate func() []Device
	interval  time.Duration

	mu        sync.Mutex
	onAdded   []func(Device)
	onRemoved []func(Device)
	known     map[int]Device

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. Enumerate is called from the poller goroutine.
func NewPoller(enumerate func() []Device, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		enumerate: enumerate,
		interval:  interval,
		known:     make(map[int]Device),
	}
}

// OnAdded registers fn for device arrivals.
func (p *Poller) OnAdded(fn func(Device)) {
	p.mu.Lock()
	p.onAdded = append(p.onAdded, fn)
	p.mu.Unlock()
}

// OnRemoved registers fn for device removals.
func (p *Poller) OnRemoved(fn func(Device)) {
	p.mu.Lock()
	p.onRemoved = append(p.onRemoved, fn)
	p.mu.Unlock()
}

// Start takes the initial snapshot and begins polling. Devices present at
// Start are not reported as added. Calling Start on a running poller does
// nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.known = index(p.enumerate())
	done := p.done
	p.mu.Unlock()

	go p.loop(ctx, done)
}

// Stop halts polling and waits for the poller goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll compares the current enumeration against the last one and fires
// callbacks for the difference. The poller goroutine calls it on every
// tick; it is exported so callers can force a check.
func (p *Poller) Poll() {
	current := index(p.enumerate())

	p.mu.Lock()
	var added, removed []Device
	for id, d := range current {
		if _, ok := p.known[id]; !ok {
			added = append(added, d)
		}
	}
	for id, d := range p.known {
		if _, ok := current[id]; !ok {
			removed = append(removed, d)
		}
	}
	p.known = current
	onAdded := slices.Clone(p.onAdded)
	onRemoved := slices.Clone(p.onRemoved)
	p.mu.Unlock()

	if len(added) == 0 && len(removed) == 0 {
		return
	}

	log := logger.WithFunc("devices.Poll")
	for _, d := range added {
		log.Debug().Int("id", d.ID).Str("name", d.Name).Msg("device added")
		for _, fn := range onAdded {
			fn(d)
		}
	}
	for _, d := range removed {
		log.Debug().Int("id", d.ID).Str("name", d.Name).Msg("device removed")
		for _, fn := range onRemoved {
			fn(d)
		}
	}
}

func index(list []Device) map[int]Device {
	m := make(map[int]Device, len(list))
	for _, d := range list {
		m[d.ID] = d
	}
	return m
}
