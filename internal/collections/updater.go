package collections

import (
	"context"

	"github.com/dreamware/strata/internal/state"
)

// StateUpdater registers a new shard in cluster metadata. Implementations
// receive both the raw inbound request and the structured command built from
// the resolved collection name; which one is consulted depends on the
// variant. Neither variant guarantees that the mutation is immediately
// visible to cached readers; callers must wait for convergence.
//
// The variant is selected once per cluster operating mode at startup; the
// orchestrator is agnostic to which one is active.
type StateUpdater interface {
	Mutate(ctx context.Context, raw *CreateShardRequest, cmd state.CreateShardCommand) error
}

// DistributedUpdater applies the structured command synchronously and
// atomically against the authoritative store. This path addresses the
// collection by its resolved name.
type DistributedUpdater struct {
	Store *state.Store
}

func (u *DistributedUpdater) Mutate(ctx context.Context, raw *CreateShardRequest, cmd state.CreateShardCommand) error {
	if err := u.Store.CreateShard(cmd); err != nil {
		return &ClusterStateMutationError{Collection: cmd.Collection, Shard: cmd.Shard, Err: err}
	}
	return nil
}

// QueuedUpdater hands the raw inbound request to the overseer for
// asynchronous processing. The forwarded message carries the collection name
// exactly as received, which may still be an alias; whether this path
// behaves correctly under aliasing is unresolved upstream and preserved
// as-is.
type QueuedUpdater struct {
	Overseer *state.Overseer
}

func (u *QueuedUpdater) Mutate(ctx context.Context, raw *CreateShardRequest, cmd state.CreateShardCommand) error {
	msg := state.QueuedMessage{Collection: raw.Collection, Shard: raw.Shard}
	if err := u.Overseer.Offer(ctx, msg); err != nil {
		return &ClusterStateMutationError{Collection: raw.Collection, Shard: raw.Shard, Err: err}
	}
	return nil
}
