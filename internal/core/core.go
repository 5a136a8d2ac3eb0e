// Package core implements the node-side registry of provisioned cores. A
// core is the physical instance of one shard replica hosted on this node,
// with a small in-memory key/value store behind it.
package core

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
)

var (
	// ErrCoreExists is returned when creating a core whose name is taken.
	ErrCoreExists = errors.New("core already exists")
	// ErrCoreNotFound is returned when addressing an unknown core.
	ErrCoreNotFound = errors.New("core not found")
	// ErrKeyNotFound is returned when a key doesn't exist in a core.
	ErrKeyNotFound = errors.New("key not found")
)

// Core is one replica instance hosted on this node.
type Core struct {
	Name       string
	Collection string
	Shard      string
	Type       cluster.ReplicaType

	mu   sync.RWMutex
	data map[string][]byte

	gets uint64
	puts uint64
	dels uint64
}

// Info is the externally visible description of a core.
type Info struct {
	Name       string              `json:"name"`
	Collection string              `json:"collection"`
	Shard      string              `json:"shard"`
	Type       cluster.ReplicaType `json:"type"`
	Keys       int                 `json:"keys"`
	Gets       uint64              `json:"gets"`
	Puts       uint64              `json:"puts"`
	Deletes    uint64              `json:"deletes"`
}

// Get retrieves a value by key. Returns a copy so callers can't mutate the
// stored bytes.
func (c *Core) Get(key string) ([]byte, error) {
	atomic.AddUint64(&c.gets, 1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a copy of value under key, overwriting any existing value.
func (c *Core) Put(key string, value []byte) {
	atomic.AddUint64(&c.puts, 1)
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = stored
}

// Delete removes a key. Deleting a missing key is a no-op.
func (c *Core) Delete(key string) {
	atomic.AddUint64(&c.dels, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Info returns the core's description and counters.
func (c *Core) Info() Info {
	c.mu.RLock()
	keys := len(c.data)
	c.mu.RUnlock()

	return Info{
		Name:       c.Name,
		Collection: c.Collection,
		Shard:      c.Shard,
		Type:       c.Type,
		Keys:       keys,
		Gets:       atomic.LoadUint64(&c.gets),
		Puts:       atomic.LoadUint64(&c.puts),
		Deletes:    atomic.LoadUint64(&c.dels),
	}
}

// Registry tracks the cores hosted on this node. All methods are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	cores map[string]*Core
	log   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		cores: make(map[string]*Core),
		log:   log,
	}
}

// Create provisions a new core. The name must be unused on this node.
func (r *Registry) Create(name, collection, shard string, t cluster.ReplicaType) (*Core, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cores[name]; ok {
		return nil, ErrCoreExists
	}
	c := &Core{
		Name:       name,
		Collection: collection,
		Shard:      shard,
		Type:       t,
		data:       make(map[string][]byte),
	}
	r.cores[name] = c
	r.log.Info("core created",
		zap.String("core", name),
		zap.String("collection", collection),
		zap.String("shard", shard),
		zap.String("type", string(t)))
	return c, nil
}

// Delete tears a core down, discarding its data.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cores[name]; !ok {
		return ErrCoreNotFound
	}
	delete(r.cores, name)
	r.log.Info("core deleted", zap.String("core", name))
	return nil
}

// Get returns the named core, if present.
func (r *Registry) Get(name string) (*Core, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cores[name]
	return c, ok
}

// List returns descriptions of all cores, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	cores := make([]*Core, 0, len(r.cores))
	for _, c := range r.cores {
		cores = append(cores, c)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(cores))
	for _, c := range cores {
		infos = append(infos, c.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
