package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watcher keeps a Reader's cached view fresh by refreshing it on a fixed
// interval. It is the propagation mechanism between the authoritative store
// and the cached view; the interval is the upper bound on how stale a read
// through Reader.Current can be.
type Watcher struct {
	reader   *Reader
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.Logger
}

// NewWatcher creates a watcher for the given reader. It does not start
// refreshing until Start is called.
func NewWatcher(reader *Reader, interval time.Duration, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		reader:   reader,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}
}

// Start launches the refresh loop in its own goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("state watcher started", zap.Duration("interval", w.interval))
		for {
			select {
			case <-ticker.C:
				w.reader.Refresh()
			case <-w.ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts down the refresh loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
	w.log.Info("state watcher stopped")
}
