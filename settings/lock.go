package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// fileLock excludes other goroutines through a one-slot channel and other
// processes through flock(2) on a sidecar file.
type fileLock struct {
	path string
	ch   chan struct{}
	fl   *flock.Flock // non-nil while held
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path, ch: make(chan struct{}, 1)}
}

func (l *fileLock) lock(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire settings lock: %w", ctx.Err())
	}

	fl := flock.New(l.path)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		<-l.ch
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("acquire flock %s: %w", l.path, err)
	}
	l.fl = fl
	return nil
}

func (l *fileLock) unlock() error {
	var err error
	if l.fl != nil {
		err = l.fl.Unlock()
		l.fl = nil
	}
	select {
	case <-l.ch:
	default:
	}
	if err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	return nil
}
