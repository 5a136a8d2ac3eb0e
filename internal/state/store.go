// Package state holds the authoritative cluster metadata store, the locally
// cached reader view that trails it, and the overseer queue that applies
// asynchronously submitted mutations. See doc.go for the package overview.
package state

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
)

// Sentinel errors returned by store mutations. Callers classify them into
// their own error taxonomy with errors.Is.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrShardNotFound      = errors.New("shard not found")
	ErrShardExists        = errors.New("shard already exists")
	ErrReplicaExists      = errors.New("replica already exists")
)

// CreateShardCommand is the structured form of a shard-create mutation,
// addressed by the real (alias-resolved) collection name.
type CreateShardCommand struct {
	Collection string `json:"collection"`
	Shard      string `json:"shard"`
}

// Store is the authoritative cluster-state store. Every mutation is applied
// atomically under an exclusive lock and bumps the state version; Snapshot
// hands out deep copies so readers never observe a partially applied change.
//
// In a multi-process deployment this seat is taken by a consensus-backed
// store; the mutation surface below is the abstraction boundary.
type Store struct {
	mu      sync.RWMutex
	current cluster.State
	log     *zap.Logger
}

// NewStore creates an empty store at version 0.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		current: cluster.State{
			Collections: make(map[string]*cluster.Collection),
			Aliases:     make(map[string]string),
		},
		log: log,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *cluster.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Version returns the current state version.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Version
}

// CreateCollection registers a new, empty collection with the given replica
// defaults.
func (s *Store) CreateCollection(name string, defaults cluster.ReplicaDefaults) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current.Collections[name]; ok {
		return ErrCollectionExists
	}
	s.current.Collections[name] = &cluster.Collection{
		Name:     name,
		Shards:   make(map[string]cluster.Shard),
		Defaults: defaults,
	}
	s.current.Version++
	s.log.Info("collection created", zap.String("collection", name))
	return nil
}

// CreateShard registers a new shard under an existing collection. A race
// between two sagas on the same shard id loses here with ErrShardExists
// rather than silently succeeding twice.
func (s *Store) CreateShard(cmd CreateShardCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.current.Collections[cmd.Collection]
	if !ok {
		return ErrCollectionNotFound
	}
	if _, ok := coll.Shards[cmd.Shard]; ok {
		return ErrShardExists
	}
	coll.Shards[cmd.Shard] = cluster.Shard{
		Name:     cmd.Shard,
		State:    cluster.ShardStateActive,
		Replicas: make(map[string]cluster.Replica),
	}
	s.current.Version++
	s.log.Info("shard created",
		zap.String("collection", cmd.Collection),
		zap.String("shard", cmd.Shard))
	return nil
}

// DeleteShard removes a shard and all replica metadata recorded under it.
func (s *Store) DeleteShard(collection, shard string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.current.Collections[collection]
	if !ok {
		return ErrCollectionNotFound
	}
	if _, ok := coll.Shards[shard]; !ok {
		return ErrShardNotFound
	}
	delete(coll.Shards, shard)
	s.current.Version++
	s.log.Info("shard deleted",
		zap.String("collection", collection),
		zap.String("shard", shard))
	return nil
}

// AddReplica records a provisioned replica under an existing shard.
func (s *Store) AddReplica(collection, shard string, r cluster.Replica) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.current.Collections[collection]
	if !ok {
		return ErrCollectionNotFound
	}
	sh, ok := coll.Shards[shard]
	if !ok {
		return ErrShardNotFound
	}
	if _, ok := sh.Replicas[r.Name]; ok {
		return ErrReplicaExists
	}
	sh.Replicas[r.Name] = r
	s.current.Version++
	return nil
}

// SetAlias points alias at target. An existing alias is overwritten.
func (s *Store) SetAlias(alias, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Aliases[alias] = target
	s.current.Version++
}

// AddLiveNode registers a node, replacing any previous entry with the same ID.
func (s *Store) AddLiveNode(n cluster.NodeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current.LiveNodes {
		if s.current.LiveNodes[i].ID == n.ID {
			s.current.LiveNodes[i] = n
			s.current.Version++
			return
		}
	}
	s.current.LiveNodes = append(s.current.LiveNodes, n)
	s.current.Version++
	s.log.Info("node registered", zap.String("node", n.ID), zap.String("addr", n.Addr))
}

// RemoveLiveNode deregisters a node. Removing an unknown node is a no-op.
func (s *Store) RemoveLiveNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current.LiveNodes {
		if s.current.LiveNodes[i].ID == id {
			s.current.LiveNodes = append(s.current.LiveNodes[:i], s.current.LiveNodes[i+1:]...)
			s.current.Version++
			return
		}
	}
}
