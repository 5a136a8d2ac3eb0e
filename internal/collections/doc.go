// Package collections implements the collection-management command layer,
// centered on the shard-create saga.
//
// CreateShardCmd is the saga controller. One invocation runs these steps in
// order, each a potential failure point:
//
//  1. validate required fields (collection, shard)
//  2. optionally resolve the collection alias to its real name
//  3. resolve effective per-type replica counts and validate them
//  4. register the shard in cluster metadata via a StateUpdater
//  5. wait for the mutation to converge into the cached state view
//  6. delegate replica provisioning to the PlacementCommand
//  7. merge the placement outcome into the caller's Result
//  8. on an AssignmentError, roll the shard back via the ShardDeleter and
//     re-raise the assignment failure
//
// Two StateUpdater variants exist, selected once per cluster operating mode:
// DistributedUpdater applies a structured command synchronously against the
// store, QueuedUpdater enqueues the raw message for the overseer. Neither
// guarantees immediate visibility to cached readers, which is why step 5
// exists at all.
//
// Failure semantics worth knowing:
//
//   - Only AssignmentError triggers compensation. Any other placement
//     failure propagates unchanged and leaves the shard's metadata in place.
//   - If the compensating delete itself fails, a CompensationError
//     propagates instead of the assignment failure. The assignment error
//     stays reachable through CompensationError.Original.
//   - Per-node placement failures are not errors: they surface as entries in
//     the result's failure section while the call completes normally.
//
// The caller owns the Result object and may share it across sibling
// commands; everything written here is append-only per section.
package collections
