package collections

import (
	"fmt"

	"github.com/dreamware/strata/internal/cluster"
)

// ReplicaCount holds the effective per-type replica counts for one shard.
type ReplicaCount struct {
	NRT  int
	TLog int
	Pull int
}

// Get returns the count for the given replica type.
func (c ReplicaCount) Get(t cluster.ReplicaType) int {
	switch t {
	case cluster.ReplicaTypeNRT:
		return c.NRT
	case cluster.ReplicaTypeTLOG:
		return c.TLog
	case cluster.ReplicaTypePULL:
		return c.Pull
	default:
		return 0
	}
}

// Total returns the total number of replicas across all types.
func (c ReplicaCount) Total() int {
	return c.NRT + c.TLog + c.Pull
}

func (c ReplicaCount) String() string {
	return fmt.Sprintf("nrt=%d tlog=%d pull=%d", c.NRT, c.TLog, c.Pull)
}

// Validate rejects count combinations that violate policy: no count may be
// negative, and a shard must have at least one leader-eligible (NRT or
// TLOG) replica.
func (c ReplicaCount) Validate() error {
	if c.NRT < 0 || c.TLog < 0 || c.Pull < 0 {
		return &ReplicaCountValidationError{Counts: c, Reason: "replica counts must not be negative"}
	}
	if c.NRT+c.TLog == 0 {
		return &ReplicaCountValidationError{Counts: c, Reason: "at least one NRT or TLOG replica is required"}
	}
	return nil
}

// ResolveReplicaCounts computes the effective per-type counts for a new
// shard. Precedence per type: request override, then the legacy
// replicationFactor spelling (NRT only), then the collection's default,
// then the collection's legacy default (NRT only), then the global default
// (1 NRT, 0 TLOG, 0 PULL).
func ResolveReplicaCounts(req *CreateShardRequest, coll *cluster.Collection) ReplicaCount {
	return ReplicaCount{
		NRT:  firstOf(1, req.NRTReplicas, req.ReplicationFactor, coll.Defaults.NRT, coll.Defaults.ReplicationFactor),
		TLog: firstOf(0, req.TLogReplicas, coll.Defaults.TLog),
		Pull: firstOf(0, req.PullReplicas, coll.Defaults.Pull),
	}
}

func firstOf(def int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return def
}
