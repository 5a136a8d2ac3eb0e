package collections

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

// PlacementCommand provisions the resolved replicas for a new shard. It
// partitions per-node outcomes into the result's success and failure
// sections and returns an error only for whole-command failures; an
// AssignmentError marks failures the caller is expected to compensate for.
type PlacementCommand interface {
	AddReplicas(ctx context.Context, st *cluster.State, req AddReplicasRequest, res *Result) error
}

// ShardDeleter removes a shard's metadata and any replicas already created
// for it. The orchestrator invokes it only as a compensating rollback.
type ShardDeleter interface {
	DeleteShard(ctx context.Context, st *cluster.State, req DeleteShardRequest, res *Result) error
}

// CreateShardCmd orchestrates adding a new shard to an existing collection:
// it registers the shard in cluster metadata, waits for that mutation to
// converge into the cached view, delegates replica provisioning to the
// placement command, merges the placement outcome into the caller's result,
// and rolls the shard back if placement fails at the assignment level.
//
// One CreateShardCmd serves many concurrent invocations; it holds no state
// across calls and no lock across the saga.
type CreateShardCmd struct {
	log         *zap.Logger
	aliases     AliasResolver
	updater     StateUpdater
	reader      *state.Reader
	placement   PlacementCommand
	deleter     ShardDeleter
	waitTimeout time.Duration
}

// NewCreateShardCmd wires an orchestrator. waitTimeout <= 0 selects
// DefaultShardWaitTimeout.
func NewCreateShardCmd(log *zap.Logger, aliases AliasResolver, updater StateUpdater, reader *state.Reader, placement PlacementCommand, deleter ShardDeleter, waitTimeout time.Duration) *CreateShardCmd {
	if log == nil {
		log = zap.NewNop()
	}
	if waitTimeout <= 0 {
		waitTimeout = DefaultShardWaitTimeout
	}
	return &CreateShardCmd{
		log:         log,
		aliases:     aliases,
		updater:     updater,
		reader:      reader,
		placement:   placement,
		deleter:     deleter,
		waitTimeout: waitTimeout,
	}
}

// Run executes the shard-create saga against the given cluster-state view,
// populating res by side effect. Errors raised before the metadata mutation
// leave no trace in cluster state; errors raised after it leave the shard
// registered unless compensation triggers.
func (c *CreateShardCmd) Run(ctx context.Context, st *cluster.State, req *CreateShardRequest, res *Result) (err error) {
	defer func() {
		if err != nil {
			createShardTotal.WithLabelValues(ErrorKind(err)).Inc()
		} else {
			createShardTotal.WithLabelValues("success").Inc()
		}
	}()

	if req.Collection == "" || req.Shard == "" {
		return &BadRequestError{Reason: "'collection' and 'shard' are required parameters"}
	}

	log := c.log.With(zap.String("collection", req.Collection), zap.String("shard", req.Shard))
	log.Info("create shard invoked")

	collectionName := req.Collection
	if req.FollowAliases {
		resolved, rerr := c.aliases.ResolveSimpleAlias(req.Collection)
		if rerr != nil {
			return rerr
		}
		collectionName = resolved
	}

	coll, ok := st.Collection(collectionName)
	if !ok {
		return &ClusterStateMutationError{Collection: collectionName, Shard: req.Shard, Err: state.ErrCollectionNotFound}
	}

	counts := ResolveReplicaCounts(req, coll)
	if verr := counts.Validate(); verr != nil {
		return verr
	}

	// The distributed variant consumes the structured command below (resolved
	// name); the queued variant forwards the raw request, whose collection
	// name may still be an alias. Unclear how the queued path behaves in that
	// case; preserved as-is pending upstream resolution.
	cmd := state.CreateShardCommand{Collection: collectionName, Shard: req.Shard}
	if merr := c.updater.Mutate(ctx, req, cmd); merr != nil {
		return merr
	}

	// The mutation is not guaranteed to be visible in the cached view yet;
	// re-synchronize before placement reads shard attributes.
	fresh, werr := WaitForShard(ctx, c.reader, collectionName, req.Shard, c.waitTimeout)
	if werr != nil {
		return werr
	}

	sub := AddReplicasRequest{
		Collection:        collectionName,
		Shard:             req.Shard,
		Counts:            counts,
		CreateNodeSet:     req.CreateNodeSet,
		WaitForFinalState: req.WaitForFinalState,
		Async:             req.Async,
		Props:             req.Props,
	}

	child := &Result{}
	if perr := c.placement.AddReplicas(ctx, fresh, sub, child); perr != nil {
		var assignErr *AssignmentError
		if errors.As(perr, &assignErr) {
			// Clean up the shard we just registered. Rollback outcomes land in
			// the caller's result object; if the delete itself fails, that
			// failure propagates instead of the assignment error.
			log.Warn("replica assignment failed, rolling back shard", zap.Error(perr))
			del := DeleteShardRequest{Collection: collectionName, Shard: req.Shard, Async: req.Async}
			if derr := c.deleter.DeleteShard(ctx, fresh, del, res); derr != nil {
				return &CompensationError{Collection: collectionName, Shard: req.Shard, Err: derr, Original: assignErr}
			}
			return perr
		}
		return perr
	}
	MergeChild(res, child)

	log.Info("finished create shard", zap.String("resolvedCollection", collectionName))
	return nil
}
