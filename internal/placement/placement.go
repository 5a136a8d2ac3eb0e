// Package placement provisions shard replicas across data nodes over HTTP.
package placement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/collections"
	"github.com/dreamware/strata/internal/state"
)

// CoreCreateRequest is the body posted to a node's /admin/cores endpoint.
type CoreCreateRequest struct {
	Name              string              `json:"name"`
	Collection        string              `json:"collection"`
	Shard             string              `json:"shard"`
	Type              cluster.ReplicaType `json:"type"`
	WaitForFinalState bool                `json:"waitForFinalState,omitempty"`
	Async             string              `json:"async,omitempty"`
	Props             map[string]string   `json:"props,omitempty"`
}

// Command places replicas for a shard: it selects candidate nodes, spreads
// the requested counts across them round-robin, creates the cores on the
// nodes in parallel, and registers successful cores in the authoritative
// store. Per-node outcomes are partitioned into the result's success and
// failure sections; only assignment-level problems (no viable nodes) abort
// the command with an AssignmentError.
type Command struct {
	Log    *zap.Logger
	Store  *state.Store
	Reader *state.Reader
}

type assignment struct {
	Node     cluster.NodeInfo
	CoreName string
	Type     cluster.ReplicaType
}

// AddReplicas implements collections.PlacementCommand.
func (c *Command) AddReplicas(ctx context.Context, st *cluster.State, req collections.AddReplicasRequest, res *collections.Result) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	candidates := selectNodes(st, req.CreateNodeSet)
	if len(candidates) == 0 {
		return &collections.AssignmentError{
			Collection: req.Collection,
			Shard:      req.Shard,
			Reason:     "no live nodes satisfy createNodeSet",
		}
	}

	plan := buildAssignments(candidates, req)
	log.Info("placing replicas",
		zap.String("collection", req.Collection),
		zap.String("shard", req.Shard),
		zap.Int("replicas", len(plan)),
		zap.Int("candidateNodes", len(candidates)))

	outcomes := make([]error, len(plan))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range plan {
		g.Go(func() error {
			err := c.createCore(gctx, a, req)
			mu.Lock()
			outcomes[i] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Record outcomes in plan order so result sections are deterministic.
	for i, a := range plan {
		if outcomes[i] != nil {
			log.Warn("core creation failed",
				zap.String("core", a.CoreName),
				zap.String("node", a.Node.ID),
				zap.Error(outcomes[i]))
			res.AddFailure(a.Node.ID, fmt.Sprintf("create core %s: %v", a.CoreName, outcomes[i]))
			continue
		}
		replica := cluster.Replica{
			Name:  a.CoreName,
			Node:  a.Node.ID,
			Type:  a.Type,
			State: cluster.ReplicaStateActive,
		}
		if err := c.Store.AddReplica(req.Collection, req.Shard, replica); err != nil {
			res.AddFailure(a.Node.ID, fmt.Sprintf("register core %s: %v", a.CoreName, err))
			continue
		}
		res.AddSuccess(a.Node.ID, fmt.Sprintf("created core %s", a.CoreName))
	}
	return nil
}

// DeleteCore implements collections.CoreDeleter. It looks the node up in the
// cached cluster view; a node that has since dropped out of the cluster is
// an error the caller can record.
func (c *Command) DeleteCore(ctx context.Context, nodeID, coreName string) error {
	node, ok := c.Reader.Current().LiveNode(nodeID)
	if !ok {
		return errors.Errorf("node %s is not live", nodeID)
	}
	url := cluster.BaseURL(node.Addr) + "/admin/cores/" + coreName
	if err := cluster.Delete(ctx, url); err != nil {
		return errors.Wrapf(err, "delete core %s on node %s", coreName, nodeID)
	}
	return nil
}

func (c *Command) createCore(ctx context.Context, a assignment, req collections.AddReplicasRequest) error {
	body := CoreCreateRequest{
		Name:              a.CoreName,
		Collection:        req.Collection,
		Shard:             req.Shard,
		Type:              a.Type,
		WaitForFinalState: req.WaitForFinalState,
		Async:             req.Async,
		Props:             req.Props,
	}
	url := cluster.BaseURL(a.Node.Addr) + "/admin/cores"
	return cluster.PostJSON(ctx, url, body, nil)
}

// selectNodes returns candidate nodes in deterministic order. A non-empty
// createNodeSet restricts candidates to the listed node IDs, preserving the
// set's order; otherwise all live nodes qualify, sorted by ID.
func selectNodes(st *cluster.State, createNodeSet string) []cluster.NodeInfo {
	if createNodeSet == "" {
		nodes := append([]cluster.NodeInfo(nil), st.LiveNodes...)
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
		return nodes
	}

	var nodes []cluster.NodeInfo
	for _, id := range strings.Split(createNodeSet, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if n, ok := st.LiveNode(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// buildAssignments spreads the per-type counts across candidates round-robin
// and names each core after its collection, shard, and type.
func buildAssignments(candidates []cluster.NodeInfo, req collections.AddReplicasRequest) []assignment {
	var plan []assignment
	next := 0
	place := func(t cluster.ReplicaType, count int) {
		for i := 0; i < count; i++ {
			node := candidates[next%len(candidates)]
			next++
			plan = append(plan, assignment{
				Node:     node,
				CoreName: coreName(req.Collection, req.Shard, t, i+1),
				Type:     t,
			})
		}
	}
	place(cluster.ReplicaTypeNRT, req.Counts.NRT)
	place(cluster.ReplicaTypeTLOG, req.Counts.TLog)
	place(cluster.ReplicaTypePULL, req.Counts.Pull)
	return plan
}

func coreName(collection, shard string, t cluster.ReplicaType, seq int) string {
	suffix := "n"
	switch t {
	case cluster.ReplicaTypeTLOG:
		suffix = "t"
	case cluster.ReplicaTypePULL:
		suffix = "p"
	}
	return fmt.Sprintf("%s_%s_replica_%s%d", collection, shard, suffix, seq)
}
