/*
Package watch detects external edits to the workbook file.

PURPOSE:
  External programs (Excel, LibreOffice, sync clients) modify the workbook
  without telling us. The poller compares the file's modification time on a
  fixed interval and fires a callback when it changed, so the owner can
  invalidate the repository cache and refresh whatever is on screen.

WHY POLLING:
  Deliberately a timer, not a filesystem-event subscription. Some editors
  and sync clients (OneDrive in particular) do not emit OS-level change
  notifications reliably; a periodic stat always catches up. The interval
  is a tunable constant, not a backoff schedule.

USAGE:
  p := watch.NewPoller(store.Path(), watch.DefaultInterval, func() {
      store.Invalidate()
  })
  p.Start()
  defer p.Stop()
*/
package watch

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultInterval is how often the file is checked when the caller does not
// choose an interval.
const DefaultInterval = 2 * time.Second

// Poller watches one file's mtime from a background goroutine.
type Poller struct {
	Path     string
	Interval time.Duration
	OnChange func()

	ticker    *time.Ticker
	stop      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	lastMTime time.Time
}

// NewPoller creates a poller. interval <= 0 falls back to DefaultInterval.
func NewPoller(path string, interval time.Duration, onChange func()) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		Path:     path,
		Interval: interval,
		OnChange: onChange,
		stop:     make(chan struct{}),
	}
}

// Start begins polling. The first check runs immediately so a file that
// changed while the process was down is picked up at startup.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true
	p.ticker = time.NewTicker(p.Interval)
	p.wg.Add(1)

	go p.run()

	slog.Info("watch_started", "path", p.Path, "interval", p.Interval)
}

// Stop halts polling and waits for the goroutine to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.started = false
	p.ticker.Stop()
	close(p.stop)
	p.wg.Wait()

	slog.Info("watch_stopped", "path", p.Path)
}

func (p *Poller) run() {
	defer p.wg.Done()

	p.check()

	for {
		select {
		case <-p.ticker.C:
			p.check()
		case <-p.stop:
			return
		}
	}
}

// check stats the file and fires OnChange when the mtime moved. A missing
// file is not a change: the repository surfaces that on its own reads.
func (p *Poller) check() {
	info, err := os.Stat(p.Path)
	if err != nil {
		return
	}
	mtime := info.ModTime()
	if mtime.Equal(p.lastMTime) {
		return
	}
	first := p.lastMTime.IsZero()
	p.lastMTime = mtime
	if first {
		// Baseline reading; nothing to refresh yet.
		return
	}

	slog.Info("workbook_changed", "path", p.Path, "mtime", mtime)
	if p.OnChange != nil {
		p.OnChange()
	}
}
