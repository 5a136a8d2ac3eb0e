// Package state implements cluster-state storage and propagation for the
// strata control plane.
//
// Three pieces cooperate:
//
//   - Store is the authoritative, versioned metadata store. Mutations
//     (collection/shard/replica/alias/live-node changes) apply atomically
//     and bump the version; Snapshot hands out deep copies.
//
//   - Reader is a locally cached view of that state. It deliberately trails
//     the store: a mutation is not visible through a Reader until the cache
//     is refreshed, either explicitly via Refresh or periodically by a
//     Watcher. This models the propagation delay of a real coordination
//     service, and is why shard-creation waits for convergence before
//     placing replicas.
//
//   - Overseer is the queued mutation path: callers enqueue raw shard-create
//     messages and a single worker applies them in order. Errors on this
//     path surface to submitters only indirectly, as convergence timeouts.
//
// The Store stands in for a consensus-backed store in a multi-process
// deployment; its mutation methods are the abstraction boundary and nothing
// above this package reaches into state directly.
package state
