package collections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

func TestDistributedUpdater(t *testing.T) {
	t.Run("applies structured command synchronously", func(t *testing.T) {
		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
		u := &DistributedUpdater{Store: store}

		raw := &CreateShardRequest{Collection: "a1", Shard: "s1"} // alias in the raw message
		cmd := state.CreateShardCommand{Collection: "c1", Shard: "s1"}
		require.NoError(t, u.Mutate(context.Background(), raw, cmd))

		// The distributed path addresses the resolved name, never the alias.
		assert.True(t, store.Snapshot().HasShard("c1", "s1"))
		assert.False(t, store.Snapshot().HasShard("a1", "s1"))
	})

	t.Run("store rejection becomes a mutation error", func(t *testing.T) {
		store := state.NewStore(nil)
		u := &DistributedUpdater{Store: store}

		cmd := state.CreateShardCommand{Collection: "ghost", Shard: "s1"}
		err := u.Mutate(context.Background(), &CreateShardRequest{Collection: "ghost", Shard: "s1"}, cmd)

		var merr *ClusterStateMutationError
		require.ErrorAs(t, err, &merr)
		assert.ErrorIs(t, err, state.ErrCollectionNotFound)
	})
}

func TestQueuedUpdater(t *testing.T) {
	t.Run("forwards the raw message", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("a1", cluster.ReplicaDefaults{}))
		overseer := state.NewOverseer(store, 4, nil)
		overseer.Start()
		defer overseer.Stop()

		u := &QueuedUpdater{Overseer: overseer}
		raw := &CreateShardRequest{Collection: "a1", Shard: "s1"}
		cmd := state.CreateShardCommand{Collection: "c1", Shard: "s1"}
		require.NoError(t, u.Mutate(context.Background(), raw, cmd))

		// The queued path forwards the raw (possibly alias) name, not the
		// structured command's resolved one.
		require.Eventually(t, func() bool {
			return store.Snapshot().HasShard("a1", "s1")
		}, time.Second, time.Millisecond)
		assert.False(t, store.Snapshot().HasShard("c1", "s1"))
	})

	t.Run("stopped overseer rejects the mutation", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		store := state.NewStore(nil)
		overseer := state.NewOverseer(store, 4, nil)
		overseer.Start()
		overseer.Stop()

		u := &QueuedUpdater{Overseer: overseer}
		err := u.Mutate(context.Background(),
			&CreateShardRequest{Collection: "c1", Shard: "s1"},
			state.CreateShardCommand{Collection: "c1", Shard: "s1"})

		var merr *ClusterStateMutationError
		require.ErrorAs(t, err, &merr)
		assert.ErrorIs(t, err, state.ErrOverseerStopped)
	})
}
