package cluster

import "sort"

// ReplicaType classifies how a replica participates in a shard.
type ReplicaType string

const (
	// ReplicaTypeNRT indexes locally and is leader-eligible.
	ReplicaTypeNRT ReplicaType = "NRT"
	// ReplicaTypeTLOG replicates the transaction log and is leader-eligible.
	ReplicaTypeTLOG ReplicaType = "TLOG"
	// ReplicaTypePULL replicates the index only and never leads.
	ReplicaTypePULL ReplicaType = "PULL"
)

// ReplicaState is the lifecycle state of a single replica.
type ReplicaState string

const (
	ReplicaStateActive     ReplicaState = "active"
	ReplicaStateDown       ReplicaState = "down"
	ReplicaStateRecovering ReplicaState = "recovering"
)

// ShardState is the lifecycle state of a shard.
type ShardState string

const (
	ShardStateActive       ShardState = "active"
	ShardStateInactive     ShardState = "inactive"
	ShardStateConstruction ShardState = "construction"
)

// Replica is one physical copy of a shard hosted on a node.
type Replica struct {
	Name  string       `json:"name"`
	Node  string       `json:"node"`
	Type  ReplicaType  `json:"type"`
	State ReplicaState `json:"state"`
}

// Shard is a logical partition of a collection's data.
type Shard struct {
	Name     string             `json:"name"`
	State    ShardState         `json:"state"`
	Replicas map[string]Replica `json:"replicas"`
}

// ReplicaDefaults carries a collection's per-type replica count defaults.
// A nil field means the collection has no default for that type.
type ReplicaDefaults struct {
	NRT               *int `json:"nrtReplicas,omitempty"`
	TLog              *int `json:"tlogReplicas,omitempty"`
	Pull              *int `json:"pullReplicas,omitempty"`
	ReplicationFactor *int `json:"replicationFactor,omitempty"`
}

// Collection is a named, sharded collection as recorded in cluster metadata.
type Collection struct {
	Name     string           `json:"name"`
	Shards   map[string]Shard `json:"shards"`
	Defaults ReplicaDefaults  `json:"defaults"`
}

// Shard returns the named shard, if present.
func (c *Collection) Shard(name string) (Shard, bool) {
	sh, ok := c.Shards[name]
	return sh, ok
}

// SortedShardNames returns the collection's shard names in lexical order,
// for deterministic iteration.
func (c *Collection) SortedShardNames() []string {
	names := make([]string, 0, len(c.Shards))
	for name := range c.Shards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeInfo identifies a data node in the cluster.
type NodeInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// State is an immutable, versioned view of collection -> shard -> replica
// metadata plus alias and live-node bookkeeping. Consumers never mutate a
// State; the authoritative store hands out deep copies, and the version
// advances with every mutation applied there.
type State struct {
	Version     int64                  `json:"version"`
	Collections map[string]*Collection `json:"collections"`
	Aliases     map[string]string      `json:"aliases"`
	LiveNodes   []NodeInfo             `json:"liveNodes"`
}

// Collection returns the named collection, if present.
func (s *State) Collection(name string) (*Collection, bool) {
	c, ok := s.Collections[name]
	return c, ok
}

// HasShard reports whether the named shard exists under the named collection.
func (s *State) HasShard(collection, shard string) bool {
	c, ok := s.Collections[collection]
	if !ok {
		return false
	}
	_, ok = c.Shards[shard]
	return ok
}

// LiveNode returns the live node with the given ID, if present.
func (s *State) LiveNode(id string) (NodeInfo, bool) {
	for _, n := range s.LiveNodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeInfo{}, false
}

// Clone returns a deep copy. The copy shares nothing with the receiver, so
// it can be handed to readers while the original keeps changing.
func (s *State) Clone() *State {
	out := &State{
		Version:     s.Version,
		Collections: make(map[string]*Collection, len(s.Collections)),
		Aliases:     make(map[string]string, len(s.Aliases)),
		LiveNodes:   append([]NodeInfo(nil), s.LiveNodes...),
	}
	for name, c := range s.Collections {
		out.Collections[name] = c.clone()
	}
	for alias, target := range s.Aliases {
		out.Aliases[alias] = target
	}
	return out
}

func (c *Collection) clone() *Collection {
	out := &Collection{
		Name:     c.Name,
		Shards:   make(map[string]Shard, len(c.Shards)),
		Defaults: c.Defaults.clone(),
	}
	for name, sh := range c.Shards {
		out.Shards[name] = sh.clone()
	}
	return out
}

func (sh Shard) clone() Shard {
	out := Shard{
		Name:     sh.Name,
		State:    sh.State,
		Replicas: make(map[string]Replica, len(sh.Replicas)),
	}
	for name, r := range sh.Replicas {
		out.Replicas[name] = r
	}
	return out
}

func (d ReplicaDefaults) clone() ReplicaDefaults {
	return ReplicaDefaults{
		NRT:               copyInt(d.NRT),
		TLog:              copyInt(d.TLog),
		Pull:              copyInt(d.Pull),
		ReplicationFactor: copyInt(d.ReplicationFactor),
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
