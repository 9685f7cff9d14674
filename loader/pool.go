package loader

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

// Result is one finished parse, successful or not.
type Result struct {
	Path       string
	SeriesName string
	Snapshot   *Snapshot
	Err        error
}

const (
	orderedQueueSize      = 256
	memoryRecheckInterval = 500 * time.Millisecond
)

// Pool parses save archives on a fixed set of workers. Results come back on
// Results in submission order regardless of which worker finishes first, so
// one consumer can import snapshots for a series strictly oldest-first.
type Pool struct {
	jobs         chan *parseJob
	ordered      chan *parseJob
	results      chan Result
	workers      sync.WaitGroup
	minFreeMB    int
	checkVersion bool
}

type parseJob struct {
	path string
	done chan Result
}

// NewPool starts the parse workers configured by import.threads.
func NewPool(cfg *config.Config) *Pool {
	threads := cfg.Import.Threads
	if threads < 1 {
		threads = 1
	}
	p := &Pool{
		jobs:         make(chan *parseJob),
		ordered:      make(chan *parseJob, orderedQueueSize),
		results:      make(chan Result),
		minFreeMB:    cfg.Import.MinFreeMemoryMB,
		checkVersion: cfg.Monitor.CheckVersion,
	}
	for i := 0; i < threads; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	go p.collect()
	return p
}

// Submit queues one save archive for parsing. It blocks while the ordered
// handback queue is full.
func (p *Pool) Submit(path string) {
	job := &parseJob{path: path, done: make(chan Result, 1)}
	p.ordered <- job
	p.jobs <- job
}

// Results delivers parses in submission order. The channel closes after
// Close has been called and every submitted archive has been handed back.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting new work and waits for the workers to drain.
func (p *Pool) Close() {
	close(p.jobs)
	p.workers.Wait()
	close(p.ordered)
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for job := range p.jobs {
		p.waitForMemory()
		job.done <- p.parse(job.path)
	}
}

// collect releases results strictly from the head of the submission queue;
// a completion further back waits until everything before it is delivered.
func (p *Pool) collect() {
	for job := range p.ordered {
		p.results <- <-job.done
	}
	close(p.results)
}

func (p *Pool) parse(path string) Result {
	res := Result{Path: path, SeriesName: SeriesName(path)}
	start := time.Now()
	snapshot, err := LoadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	if p.checkVersion {
		if err := CheckVersion(snapshot.Version); err != nil {
			res.Err = err
			return res
		}
	}
	logger.Infow("parsed save archive",
		"path", path,
		"series", snapshot.SeriesName,
		"date", snapshot.Date,
		"duration", time.Since(start).String())
	res.Snapshot = snapshot
	return res
}

// waitForMemory delays a parse while available system memory is below the
// configured floor. A large galaxy's gamestate tree can run to hundreds of
// megabytes, so dispatching into a tight memory situation trades one slow
// parse for a swapping host.
func (p *Pool) waitForMemory() {
	if p.minFreeMB <= 0 {
		return
	}
	threshold := uint64(p.minFreeMB) * 1024 * 1024
	warned := false
	for {
		stats, err := mem.VirtualMemory()
		if err != nil || stats.Available >= threshold {
			return
		}
		if !warned {
			logger.Warnw("available memory below threshold, delaying parse",
				"available_mb", stats.Available/1024/1024,
				"threshold_mb", p.minFreeMB)
			warned = true
		}
		time.Sleep(memoryRecheckInterval)
	}
}
