package collections

import (
	"fmt"
	"time"
)

// BadRequestError reports a request missing required fields. It is raised
// before any mutation is attempted.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return "bad request: " + e.Reason
}

// AliasResolutionError reports an alias that cannot be resolved to a single
// real collection name.
type AliasResolutionError struct {
	Alias  string
	Reason string
}

func (e *AliasResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve alias %q: %s", e.Alias, e.Reason)
}

// ReplicaCountValidationError reports resolved replica counts that violate
// policy.
type ReplicaCountValidationError struct {
	Counts ReplicaCount
	Reason string
}

func (e *ReplicaCountValidationError) Error() string {
	return fmt.Sprintf("invalid replica counts %s: %s", e.Counts, e.Reason)
}

// ClusterStateMutationError reports a cluster-state mutation rejected by the
// store, e.g. a duplicate shard or a missing collection.
type ClusterStateMutationError struct {
	Collection string
	Shard      string
	Err        error
}

func (e *ClusterStateMutationError) Error() string {
	return fmt.Sprintf("cluster state mutation rejected for %s/%s: %v", e.Collection, e.Shard, e.Err)
}

func (e *ClusterStateMutationError) Unwrap() error { return e.Err }

// ConvergenceTimeoutError reports that the locally cached cluster-state view
// never reflected a mutation within the wait bound.
type ConvergenceTimeoutError struct {
	Collection string
	Shard      string
	Timeout    time.Duration
}

func (e *ConvergenceTimeoutError) Error() string {
	return fmt.Sprintf("shard %s/%s not visible in cluster state after %s", e.Collection, e.Shard, e.Timeout)
}

// AssignmentError reports a placement failure specifically classified as an
// assignment failure (no viable nodes, exhausted candidates). It is the only
// placement failure that triggers compensation.
type AssignmentError struct {
	Collection string
	Shard      string
	Reason     string
	Err        error
}

func (e *AssignmentError) Error() string {
	msg := fmt.Sprintf("cannot assign replicas for %s/%s: %s", e.Collection, e.Shard, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssignmentError) Unwrap() error { return e.Err }

// PlacementError reports a placement failure of any other kind. It does NOT
// trigger compensation; the shard's metadata is left in place.
type PlacementError struct {
	Collection string
	Shard      string
	Err        error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("replica placement failed for %s/%s: %v", e.Collection, e.Shard, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// CompensationError reports that the compensating shard delete itself
// failed. The compensation failure is what propagates to the caller, which
// hides the assignment failure that triggered the rollback; Original keeps
// that error reachable so the loss is observable rather than silent.
type CompensationError struct {
	Collection string
	Shard      string
	Err        error
	Original   *AssignmentError
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("rollback of shard %s/%s failed: %v (original assignment failure: %v)",
		e.Collection, e.Shard, e.Err, e.Original)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// ErrorKind names the taxonomy bucket an error belongs to, for metrics and
// HTTP status mapping. Unknown errors report "internal".
func ErrorKind(err error) string {
	switch err.(type) {
	case *BadRequestError:
		return "bad_request"
	case *AliasResolutionError:
		return "alias_resolution"
	case *ReplicaCountValidationError:
		return "replica_count_validation"
	case *ClusterStateMutationError:
		return "cluster_state_mutation"
	case *ConvergenceTimeoutError:
		return "convergence_timeout"
	case *AssignmentError:
		return "assignment"
	case *PlacementError:
		return "placement"
	case *CompensationError:
		return "compensation"
	default:
		return "internal"
	}
}
