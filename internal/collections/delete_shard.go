package collections

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

// CoreDeleter tears down a single provisioned core on a node. Core deletion
// during shard removal is best effort; metadata removal is what decides
// success.
type CoreDeleter interface {
	DeleteCore(ctx context.Context, nodeID, coreName string) error
}

// DeleteShardCmd removes a shard: cores already provisioned on nodes are
// torn down best effort, then the shard's metadata (including replica
// entries) is removed from the authoritative store. Outcomes are recorded in
// the caller's result object, so when this runs as a rollback the caller
// sees the rollback's entries alongside anything placement wrote.
type DeleteShardCmd struct {
	Log   *zap.Logger
	Store *state.Store
	Cores CoreDeleter // optional; nil skips physical core teardown
}

func (c *DeleteShardCmd) DeleteShard(ctx context.Context, st *cluster.State, req DeleteShardRequest, res *Result) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	if coll, ok := st.Collection(req.Collection); ok {
		if sh, ok := coll.Shard(req.Shard); ok && c.Cores != nil {
			for _, name := range sortedReplicaNames(sh) {
				r := sh.Replicas[name]
				if err := c.Cores.DeleteCore(ctx, r.Node, r.Name); err != nil {
					log.Warn("failed to delete core during shard removal",
						zap.String("core", r.Name),
						zap.String("node", r.Node),
						zap.Error(err))
					res.AddFailure(r.Name, err.Error())
				}
			}
		}
	}

	if err := c.Store.DeleteShard(req.Collection, req.Shard); err != nil {
		return errors.Wrapf(err, "delete shard %s/%s", req.Collection, req.Shard)
	}
	res.AddSuccess(req.Shard, "shard deleted")
	log.Info("shard removed",
		zap.String("collection", req.Collection),
		zap.String("shard", req.Shard))
	return nil
}

func sortedReplicaNames(sh cluster.Shard) []string {
	names := make([]string, 0, len(sh.Replicas))
	for name := range sh.Replicas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
