package collections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

func TestWaitForShard(t *testing.T) {
	t.Run("returns once the shard becomes visible", func(t *testing.T) {
		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
		reader := state.NewReader(store, nil)

		// Apply the mutation after a propagation delay.
		go func() {
			time.Sleep(250 * time.Millisecond)
			_ = store.CreateShard(state.CreateShardCommand{Collection: "c1", Shard: "s1"})
		}()

		st, err := WaitForShard(context.Background(), reader, "c1", "s1", 5*time.Second)
		require.NoError(t, err)
		assert.True(t, st.HasShard("c1", "s1"))
	})

	t.Run("immediate visibility", func(t *testing.T) {
		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
		require.NoError(t, store.CreateShard(state.CreateShardCommand{Collection: "c1", Shard: "s1"}))
		reader := state.NewReader(store, nil)

		start := time.Now()
		st, err := WaitForShard(context.Background(), reader, "c1", "s1", 5*time.Second)
		require.NoError(t, err)
		assert.True(t, st.HasShard("c1", "s1"))
		assert.Less(t, time.Since(start), time.Second, "first sample should succeed without polling")
	})

	t.Run("times out when the shard never appears", func(t *testing.T) {
		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
		reader := state.NewReader(store, nil)

		_, err := WaitForShard(context.Background(), reader, "c1", "s1", 150*time.Millisecond)

		var terr *ConvergenceTimeoutError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "c1", terr.Collection)
		assert.Equal(t, "s1", terr.Shard)
	})

	t.Run("caller cancellation bounds the wait", func(t *testing.T) {
		store := state.NewStore(nil)
		require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
		reader := state.NewReader(store, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		_, err := WaitForShard(ctx, reader, "c1", "s1", time.Minute)
		require.Error(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}
