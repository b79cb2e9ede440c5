// Package gamelist discovers boot images in the configured directories
// and keeps a cached list of them.
package gamelist

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/user-none/consolehost/discimage"
	"github.com/user-none/consolehost/logger"
	"github.com/user-none/consolehost/rdb"
	"github.com/user-none/consolehost/settings"
)

// CacheFile is the name of the cache written in the settings folder.
const CacheFile = "gamelist.json"

const cacheVersion = 1

// DefaultWorkers bounds concurrent image hashing when Config.Workers is 0.
const DefaultWorkers = 2

// Dir is a directory to scan
type Dir struct {
	Path      string
	Recursive bool
}

// Config describes where to look and where to cache.
type Config struct {
	Dirs      []Dir
	Excluded  []string
	CachePath string
	// DB is optional; without it names come from file names.
	DB      *rdb.RDB
	Workers int
}

// Result describes a finished refresh
type Result struct {
	Entries   int
	New       int
	Errors    []error
	Cancelled bool
}

// Message renders the result for a status line.
func (r Result) Message() string {
	switch {
	case r.Cancelled:
		return ""
	case len(r.Errors) > 0:
		return r.Errors[0].Error()
	case r.New > 0:
		return fmt.Sprintf("Found %d new games", r.New)
	}
	return "Game list up to date"
}

type cacheDoc struct {
	Version int      `json:"version"`
	Entries []*Entry `json:"entries"`
}

// Refresher rebuilds the game list on a background goroutine. Completion
// is handed to post, which must run the function on the main goroutine.
type Refresher struct {
	cfg        Config
	post       func(func())
	onComplete func(Result)

	scanning atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	entries []*Entry
}

// New creates a refresher. onComplete may be nil.
func New(cfg Config, post func(func()), onComplete func(Result)) *Refresher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Refresher{cfg: cfg, post: post, onComplete: onComplete}
}

// Scanning reports whether a refresh is in progress.
func (r *Refresher) Scanning() bool {
	return r.scanning.Load()
}

// Entries returns the most recent list, sorted by display name.
func (r *Refresher) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Entry(nil), r.entries...)
}

// Refresh starts a background refresh. It returns false without doing
// anything when one is already running. With invalidate set the cache is
// ignored and every image is hashed again.
func (r *Refresher) Refresh(invalidate bool) bool {
	if !r.scanning.CompareAndSwap(false, true) {
		logger.WithFunc("gamelist.Refresh").Debug().Msg("refresh already in progress")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		res := r.run(ctx, invalidate)

		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		r.scanning.Store(false)

		if r.onComplete != nil {
			r.post(func() { r.onComplete(res) })
		}
	}()
	return true
}

// Cancel stops a running refresh. Entries already hashed are kept.
func (r *Refresher) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current refresh goroutine, if any, has finished.
func (r *Refresher) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Refresher) run(ctx context.Context, invalidate bool) Result {
	log := logger.WithFunc("gamelist.run")

	var res Result
	cached := map[string]*Entry{}
	if !invalidate {
		cached = r.loadCache()
	}

	var files []string
	for _, dir := range r.cfg.Dirs {
		found, err := r.scanDirectory(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			res.Errors = append(res.Errors, err)
			continue
		}
		files = append(files, found...)
	}

	var (
		mu      sync.Mutex
		entries []*Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			e, fresh, err := r.processImage(gctx, path, cached[path])
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Debug().Err(err).Str("path", path).Msg("skipping file")
				return nil
			}
			mu.Lock()
			entries = append(entries, e)
			if fresh {
				res.New++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		res.Errors = append(res.Errors, err)
	}
	res.Cancelled = ctx.Err() != nil

	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].DisplayName), strings.ToLower(entries[j].DisplayName)
		if a != b {
			return a < b
		}
		return entries[i].Path < entries[j].Path
	})
	res.Entries = len(entries)

	if !res.Cancelled {
		r.mu.Lock()
		r.entries = entries
		r.mu.Unlock()
		r.saveCache(entries)
	}

	log.Info().
		Int("entries", res.Entries).
		Int("new", res.New).
		Int("errors", len(res.Errors)).
		Bool("cancelled", res.Cancelled).
		Msg("game list refresh finished")
	return res
}

// scanDirectory walks a directory looking for image files
func (r *Refresher) scanDirectory(ctx context.Context, dir Dir) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if r.isExcluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir.Path && !dir.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isCandidate(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", dir.Path, err)
	}
	return files, nil
}

func (r *Refresher) isExcluded(path string) bool {
	for _, ex := range r.cfg.Excluded {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

var archiveExtensions = []string{".zip", ".7z", ".rar"}

// isCandidate accepts images and the archive formats that may hold one.
func isCandidate(name string) bool {
	lower := strings.ToLower(name)
	for _, list := range [][]string{discimage.ImageExtensions, archiveExtensions} {
		for _, ext := range list {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}
	return false
}

// processImage returns a cached entry when the file is unchanged, and
// otherwise probes and hashes it. fresh is set for files not in the cache.
func (r *Refresher) processImage(ctx context.Context, path string, cached *Entry) (*Entry, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if cached != nil && cached.Size == fi.Size() && cached.ModTime == fi.ModTime().Unix() {
		return cached, false, nil
	}

	img, err := discimage.Probe(path)
	if err != nil {
		return nil, false, err
	}

	crc, err := hashFile(ctx, path)
	if err != nil {
		return nil, false, err
	}

	e := &Entry{
		Path:    path,
		CRC32:   fmt.Sprintf("%08x", crc),
		Size:    fi.Size(),
		ModTime: fi.ModTime().Unix(),
		Source:  img.Source,
		Archive: img.Archive,
		Serial:  serialFromName(img.Name),
	}

	if db := r.cfg.DB; db != nil {
		game := db.FindBySerial(e.Serial)
		if game == nil {
			game = db.FindByCRC32(crc)
		}
		e.applyGame(game)
	}
	if e.Name == "" {
		e.Name = strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	}
	if e.DisplayName == "" {
		e.DisplayName = cleanDisplayName(img.Name)
	}
	if e.Region == "" {
		e.Region = rdb.GetRegionFromSerial(e.Serial)
	}
	if e.Region == "" {
		e.Region = rdb.GetRegionFromName(img.Name)
	}

	return e, cached == nil, nil
}

// ctxReader aborts long reads when the refresh is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func hashFile(ctx context.Context, path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, ctxReader{ctx: ctx, r: f}); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func (r *Refresher) loadCache() map[string]*Entry {
	out := map[string]*Entry{}
	if r.cfg.CachePath == "" {
		return out
	}

	var doc cacheDoc
	if err := settings.ReadJSON(r.cfg.CachePath, &doc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithFunc("gamelist.loadCache").Warn().Err(err).Msg("ignoring unreadable cache")
		}
		return out
	}
	if doc.Version != cacheVersion {
		return out
	}
	for _, e := range doc.Entries {
		if e != nil {
			out[e.Path] = e
		}
	}
	return out
}

func (r *Refresher) saveCache(entries []*Entry) {
	if r.cfg.CachePath == "" {
		return
	}
	doc := cacheDoc{Version: cacheVersion, Entries: entries}
	if err := settings.AtomicWriteJSON(r.cfg.CachePath, doc); err != nil {
		logger.WithFunc("gamelist.saveCache").Error().Err(err).Msg("failed to save game list cache")
	}
}
