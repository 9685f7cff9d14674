package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

const saveFileSuffix = ".sav"

// Monitor watches the save directory for new archives and feeds them to a
// parse pool. Filesystem notifications trigger scans immediately; a ticker
// backs them up on platforms and network mounts where fsnotify misses
// events. Both paths go through one rate limiter so a burst of events costs
// at most one scan per polling interval.
//
// Saves are tracked by modification time, so a save the game overwrites in
// place (ironman mode reuses one file) is picked up again on every rewrite.
type Monitor struct {
	cfg     *config.Config
	pool    *Pool
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	root    string
	runID   string

	mu          sync.Mutex
	seen        map[string]time.Time
	encountered int
}

// NewMonitor builds a monitor over paths.save_file_path. Campaign
// subdirectories existing at startup are watched immediately; directories
// created later are added as their create events arrive.
func NewMonitor(cfg *config.Config) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating filesystem watcher")
	}
	m := &Monitor{
		cfg:     cfg,
		watcher: watcher,
		root:    cfg.Paths.SaveFilePath,
		runID:   uuid.New().String(),
		seen:    make(map[string]time.Time),
	}
	m.limiter = rate.NewLimiter(rate.Every(m.pollInterval()), 1)
	if err := m.watchTree(); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching save directory %s", m.root)
	}
	m.pool = NewPool(cfg)
	return m, nil
}

// Snapshots delivers parsed saves in file timestamp order. The channel
// closes after Run returns.
func (m *Monitor) Snapshots() <-chan Result {
	return m.pool.Results()
}

// MarkExistingProcessed records every save currently on disk as handled, so
// the monitor only imports saves written after this call. The walk marks
// files as a side effect of listing them; the list itself is discarded.
func (m *Monitor) MarkExistingProcessed() error {
	files, err := m.newSaveFiles()
	if err != nil {
		return err
	}
	logger.Infow("ignoring existing save archives",
		"run_id", m.runID,
		"count", len(files))
	return nil
}

// Run scans for saves until the context is cancelled. It owns the watcher
// and the parse pool: when it returns, the Snapshots channel drains and
// closes.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.pollInterval()
	logger.Infow("save monitor started",
		"run_id", m.runID,
		"path", m.root,
		"poll_interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer m.pool.Close()
	defer m.watcher.Close()

	m.scan()
	for {
		select {
		case <-ctx.Done():
			logger.Infow("save monitor stopped", "run_id", m.runID)
			return nil
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			m.handleEvent(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("filesystem watcher error",
				"run_id", m.runID,
				"error", err)
		case <-ticker.C:
			m.maybeScan()
		}
	}
}

func (m *Monitor) pollInterval() time.Duration {
	secs := m.cfg.Monitor.PollingIntervalSeconds
	if secs <= 0 {
		secs = 0.5
	}
	return time.Duration(secs * float64(time.Second))
}

func (m *Monitor) watchTree() error {
	return filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return m.watcher.Add(path)
		}
		return nil
	})
}

func (m *Monitor) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == 0 && ev.Op&fsnotify.Write == 0 {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		// A new campaign directory. Watch it and pick up any saves the game
		// already wrote into it.
		if err := m.watcher.Add(ev.Name); err != nil {
			logger.Warnw("cannot watch new campaign directory",
				"run_id", m.runID,
				"path", ev.Name,
				"error", err)
		}
		m.maybeScan()
		return
	}
	if strings.HasSuffix(ev.Name, saveFileSuffix) {
		m.maybeScan()
	}
}

func (m *Monitor) maybeScan() {
	if m.limiter.Allow() {
		m.scan()
	}
}

func (m *Monitor) scan() {
	files, err := m.newSaveFiles()
	if err != nil {
		logger.Warnw("save directory scan failed",
			"run_id", m.runID,
			"error", err)
		return
	}
	files = filterByName(files, m.cfg.Import.SaveNameFilter)
	m.mu.Lock()
	files = applySkipSaves(files, m.cfg.Import.SkipSaves, &m.encountered)
	m.mu.Unlock()
	for _, f := range files {
		logger.Infow("new save archive",
			"run_id", m.runID,
			"path", f)
		m.pool.Submit(f)
	}
}

// newSaveFiles walks the save directory and returns the archives not seen
// before, or rewritten since, in modification time order. Returned files
// are marked seen even when a later filter drops them.
func (m *Monitor) newSaveFiles() ([]string, error) {
	found, err := walkSaves(m.root)
	if err != nil {
		return nil, err
	}
	fresh := found[:0]
	m.mu.Lock()
	for _, f := range found {
		if prev, ok := m.seen[f.path]; ok && !f.mod.After(prev) {
			continue
		}
		m.seen[f.path] = f.mod
		fresh = append(fresh, f)
	}
	m.mu.Unlock()
	return sortedPaths(fresh), nil
}

// CollectSaveFiles lists the save archives under root in modification time
// order, oldest first.
func CollectSaveFiles(root string) ([]string, error) {
	found, err := walkSaves(root)
	if err != nil {
		return nil, err
	}
	return sortedPaths(found), nil
}

// Batch parses the given save archives, and everything inside the given
// directories, in timestamp order with the configured filters applied. It
// returns the ordered result stream and the number of archives it will
// deliver.
func Batch(cfg *config.Config, paths []string) (<-chan Result, int, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "stat %s", p)
		}
		if info.IsDir() {
			inDir, err := CollectSaveFiles(p)
			if err != nil {
				return nil, 0, err
			}
			files = append(files, inDir...)
		} else {
			files = append(files, p)
		}
	}
	files = filterByName(files, cfg.Import.SaveNameFilter)
	encountered := 0
	files = applySkipSaves(files, cfg.Import.SkipSaves, &encountered)

	pool := NewPool(cfg)
	go func() {
		for _, f := range files {
			pool.Submit(f)
		}
		pool.Close()
	}()
	return pool.Results(), len(files), nil
}

type saveFile struct {
	path string
	mod  time.Time
}

func walkSaves(root string) ([]saveFile, error) {
	var found []saveFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), saveFileSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// The game rotates saves while we walk; a vanished file is fine.
			return nil
		}
		found = append(found, saveFile{path: path, mod: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func sortedPaths(files []saveFile) []string {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].mod.Equal(files[j].mod) {
			return files[i].mod.Before(files[j].mod)
		}
		return files[i].path < files[j].path
	})
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths
}

// filterByName keeps saves whose filename contains the filter string,
// case-insensitive. An empty filter keeps everything.
func filterByName(files []string, filter string) []string {
	if filter == "" {
		return files
	}
	needle := strings.ToLower(filter)
	var out []string
	for _, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), saveFileSuffix)
		if strings.Contains(strings.ToLower(stem), needle) {
			out = append(out, f)
		}
	}
	if len(out) != len(files) {
		logger.Infow("applied save name filter",
			"filter", filter,
			"kept", len(out),
			"dropped", len(files)-len(out))
	}
	return out
}

// applySkipSaves keeps every (skip+1)-th save. The counter persists across
// scans so the thinning stays even over a whole session rather than
// restarting in every batch.
func applySkipSaves(files []string, skip int, encountered *int) []string {
	if skip <= 0 || len(files) == 0 {
		return files
	}
	var out []string
	for _, f := range files {
		*encountered++
		if *encountered%(skip+1) == 0 {
			out = append(out, f)
		}
	}
	return out
}
