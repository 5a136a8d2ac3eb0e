package state

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
)

// Reader maintains a locally cached view of cluster state. The cache trails
// the authoritative store: it only advances when Refresh pulls a newer
// snapshot, either explicitly or through a background Watcher. Components
// that need read-your-write visibility after a mutation must wait for the
// cache to converge rather than assume it.
type Reader struct {
	mu      sync.RWMutex
	store   *Store
	current *cluster.State
	log     *zap.Logger
}

// NewReader creates a reader primed with the store's current snapshot.
func NewReader(store *Store, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		store:   store,
		current: store.Snapshot(),
		log:     log,
	}
}

// Current returns the cached view without consulting the store.
func (r *Reader) Current() *cluster.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Refresh pulls a fresh snapshot if the store has advanced past the cached
// version, and returns the (possibly updated) view.
func (r *Reader) Refresh() *cluster.State {
	storeVersion := r.store.Version()

	r.mu.Lock()
	defer r.mu.Unlock()
	if storeVersion > r.current.Version {
		r.current = r.store.Snapshot()
		r.log.Debug("cluster state view refreshed", zap.Int64("version", r.current.Version))
	}
	return r.current
}
