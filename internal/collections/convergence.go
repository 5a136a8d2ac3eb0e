package collections

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

// DefaultShardWaitTimeout bounds how long a saga waits for a shard-create
// mutation to become visible in the cached cluster-state view.
const DefaultShardWaitTimeout = 30 * time.Second

// shardWaitPollInterval is how often the cached view is re-sampled while
// waiting.
const shardWaitPollInterval = 100 * time.Millisecond

var errShardNotVisible = errors.New("shard not yet visible")

// WaitForShard blocks until the locally cached cluster-state view reflects
// the named shard under the named collection, then returns that snapshot.
// Each sample refreshes the cached view from the store, so convergence does
// not depend on a background watcher being scheduled in time. Returns a
// ConvergenceTimeoutError if the bound is exceeded.
//
// This exists because neither mutation path guarantees immediate visibility:
// the distributed path applies to the store but not the cache, and the
// queued path has not necessarily been processed at all yet. Placement reads
// shard and collection attributes, so it must run against a view that
// contains the new shard.
func WaitForShard(ctx context.Context, reader *state.Reader, collection, shard string, timeout time.Duration) (*cluster.State, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var found *cluster.State
	sample := func() error {
		st := reader.Refresh()
		if !st.HasShard(collection, shard) {
			return errShardNotVisible
		}
		found = st
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(shardWaitPollInterval), waitCtx)
	if err := backoff.Retry(sample, policy); err != nil {
		convergenceWaitSeconds.Observe(time.Since(start).Seconds())
		return nil, &ConvergenceTimeoutError{Collection: collection, Shard: shard, Timeout: timeout}
	}
	convergenceWaitSeconds.Observe(time.Since(start).Seconds())
	return found, nil
}
