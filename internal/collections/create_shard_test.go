package collections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/state"
)

// recordingUpdater applies the structured command to the store (unless told
// to fail or skip) and records everything it was handed.
type recordingUpdater struct {
	store    *state.Store
	fail     error
	skip     bool // accept the mutation but never apply it
	calls    int
	rawNames []string
	cmds     []state.CreateShardCommand
}

func (u *recordingUpdater) Mutate(ctx context.Context, raw *CreateShardRequest, cmd state.CreateShardCommand) error {
	u.calls++
	u.rawNames = append(u.rawNames, raw.Collection)
	u.cmds = append(u.cmds, cmd)
	if u.fail != nil {
		return u.fail
	}
	if u.skip {
		return nil
	}
	if err := u.store.CreateShard(cmd); err != nil {
		return &ClusterStateMutationError{Collection: cmd.Collection, Shard: cmd.Shard, Err: err}
	}
	return nil
}

type fakePlacer struct {
	err   error
	write func(res *Result)
	calls int
	got   AddReplicasRequest
}

func (p *fakePlacer) AddReplicas(ctx context.Context, st *cluster.State, req AddReplicasRequest, res *Result) error {
	p.calls++
	p.got = req
	if p.write != nil {
		p.write(res)
	}
	return p.err
}

type fakeDeleter struct {
	err   error
	calls int
	got   DeleteShardRequest
}

func (d *fakeDeleter) DeleteShard(ctx context.Context, st *cluster.State, req DeleteShardRequest, res *Result) error {
	d.calls++
	d.got = req
	if d.err != nil {
		return d.err
	}
	res.AddSuccess(req.Shard, "shard deleted")
	return nil
}

type saga struct {
	store   *state.Store
	reader  *state.Reader
	updater *recordingUpdater
	placer  *fakePlacer
	deleter *fakeDeleter
	cmd     *CreateShardCmd
}

func newSaga(t *testing.T) *saga {
	t.Helper()
	store := state.NewStore(nil)
	require.NoError(t, store.CreateCollection("c1", cluster.ReplicaDefaults{}))
	store.SetAlias("a1", "c1")
	store.AddLiveNode(cluster.NodeInfo{ID: "node-1", Addr: "http://localhost:1"})

	reader := state.NewReader(store, nil)
	updater := &recordingUpdater{store: store}
	placer := &fakePlacer{}
	deleter := &fakeDeleter{}
	cmd := NewCreateShardCmd(nil, &ReaderAliases{Reader: reader}, updater, reader, placer, deleter, time.Second)
	return &saga{store: store, reader: reader, updater: updater, placer: placer, deleter: deleter, cmd: cmd}
}

func (s *saga) run(t *testing.T, req *CreateShardRequest, res *Result) error {
	t.Helper()
	return s.cmd.Run(context.Background(), s.reader.Refresh(), req, res)
}

func TestCreateShardHappyPath(t *testing.T) {
	s := newSaga(t)
	s.placer.write = func(res *Result) {
		res.AddSuccess("node-1", "created core c1_s1_replica_n1")
	}

	res := &Result{}
	req := &CreateShardRequest{Collection: "c1", Shard: "s1"}
	require.NoError(t, s.run(t, req, res))

	// Placement outcome merged into the caller's result.
	require.NotNil(t, res.Success)
	assert.Equal(t, 1, res.Success.Len())
	assert.Nil(t, res.Failure)

	// Shard registered, exactly one mutation.
	assert.True(t, s.store.Snapshot().HasShard("c1", "s1"))
	assert.Equal(t, 1, s.updater.calls)

	// Sub-request carries the resolved counts and identifiers.
	assert.Equal(t, "c1", s.placer.got.Collection)
	assert.Equal(t, "s1", s.placer.got.Shard)
	assert.Equal(t, ReplicaCount{NRT: 1}, s.placer.got.Counts)

	assert.Equal(t, 0, s.deleter.calls)
}

func TestCreateShardRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		req  CreateShardRequest
	}{
		{name: "missing shard", req: CreateShardRequest{Collection: "c1"}},
		{name: "missing collection", req: CreateShardRequest{Shard: "s1"}},
		{name: "missing both", req: CreateShardRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSaga(t)
			err := s.run(t, &tt.req, &Result{})

			var badReq *BadRequestError
			require.ErrorAs(t, err, &badReq)
			// Fail-fast: no mutation may have been attempted.
			assert.Equal(t, 0, s.updater.calls)
			assert.Equal(t, 0, s.placer.calls)
		})
	}
}

func TestCreateShardFollowAliases(t *testing.T) {
	t.Run("alias resolved for structured command, raw message untouched", func(t *testing.T) {
		s := newSaga(t)
		req := &CreateShardRequest{Collection: "a1", Shard: "s1", FollowAliases: true}
		require.NoError(t, s.run(t, req, &Result{}))

		// The structured command (distributed path) sees the real name while
		// the raw message (queued path) still carries the alias.
		require.Len(t, s.updater.cmds, 1)
		assert.Equal(t, "c1", s.updater.cmds[0].Collection)
		assert.Equal(t, []string{"a1"}, s.updater.rawNames)

		// Convergence and placement both use the resolved name.
		assert.Equal(t, "c1", s.placer.got.Collection)
		assert.True(t, s.store.Snapshot().HasShard("c1", "s1"))
	})

	t.Run("alias ignored without followAliases", func(t *testing.T) {
		s := newSaga(t)
		req := &CreateShardRequest{Collection: "a1", Shard: "s1"}
		err := s.run(t, req, &Result{})

		// "a1" is not a collection, so lookup fails before any mutation.
		var merr *ClusterStateMutationError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, 0, s.updater.calls)
	})

	t.Run("multi-target alias fails resolution", func(t *testing.T) {
		s := newSaga(t)
		s.store.SetAlias("multi", "c1,c2")
		s.reader.Refresh()

		req := &CreateShardRequest{Collection: "multi", Shard: "s1", FollowAliases: true}
		err := s.run(t, req, &Result{})

		var aerr *AliasResolutionError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, 0, s.updater.calls)
	})
}

func TestCreateShardCollectionNotFound(t *testing.T) {
	s := newSaga(t)
	req := &CreateShardRequest{Collection: "ghost", Shard: "s1"}
	err := s.run(t, req, &Result{})

	var merr *ClusterStateMutationError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, state.ErrCollectionNotFound)
	assert.Equal(t, 0, s.updater.calls)
}

func TestCreateShardReplicaCountValidation(t *testing.T) {
	s := newSaga(t)
	req := &CreateShardRequest{Collection: "c1", Shard: "s1", NRTReplicas: intp(-1)}
	err := s.run(t, req, &Result{})

	var verr *ReplicaCountValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, s.updater.calls)
	assert.Equal(t, 0, s.placer.calls)
}

func TestCreateShardMutationRejected(t *testing.T) {
	s := newSaga(t)
	require.NoError(t, s.store.CreateShard(state.CreateShardCommand{Collection: "c1", Shard: "s1"}))

	req := &CreateShardRequest{Collection: "c1", Shard: "s1"}
	err := s.run(t, req, &Result{})

	var merr *ClusterStateMutationError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, state.ErrShardExists)
	assert.Equal(t, 0, s.placer.calls)
}

func TestCreateShardConvergenceTimeout(t *testing.T) {
	s := newSaga(t)
	s.updater.skip = true // mutation accepted but never becomes visible
	s.cmd = NewCreateShardCmd(nil, &ReaderAliases{Reader: s.reader}, s.updater, s.reader, s.placer, s.deleter, 150*time.Millisecond)

	req := &CreateShardRequest{Collection: "c1", Shard: "s1"}
	err := s.run(t, req, &Result{})

	var terr *ConvergenceTimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "c1", terr.Collection)
	assert.Equal(t, 0, s.placer.calls)
}

func TestCreateShardAssignmentFailureCompensates(t *testing.T) {
	s := newSaga(t)
	assignErr := &AssignmentError{Collection: "c1", Shard: "s1", Reason: "no live nodes satisfy createNodeSet"}
	s.placer.err = assignErr

	res := &Result{}
	req := &CreateShardRequest{Collection: "a1", Shard: "s1", FollowAliases: true, Async: "track-42"}
	err := s.run(t, req, res)

	// The original assignment error is what the caller sees.
	require.ErrorIs(t, err, error(assignErr))

	// Exactly one compensating delete, addressed by the resolved name and
	// carrying the async token through.
	require.Equal(t, 1, s.deleter.calls)
	assert.Equal(t, DeleteShardRequest{Collection: "c1", Shard: "s1", Async: "track-42"}, s.deleter.got)

	// Rollback outcome is visible in the caller's result object.
	require.NotNil(t, res.Success)
	v, ok := res.Success.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "shard deleted", v)
}

func TestCreateShardCompensationFailurePropagates(t *testing.T) {
	s := newSaga(t)
	assignErr := &AssignmentError{Collection: "c1", Shard: "s1", Reason: "exhausted candidates"}
	s.placer.err = assignErr
	s.deleter.err = errors.New("store unreachable")

	req := &CreateShardRequest{Collection: "c1", Shard: "s1"}
	err := s.run(t, req, &Result{})

	// The compensation failure masks the assignment error on the main path,
	// but the original stays reachable.
	var cerr *CompensationError
	require.ErrorAs(t, err, &cerr)
	assert.Same(t, assignErr, cerr.Original)
	assert.ErrorContains(t, err, "store unreachable")
	assert.ErrorContains(t, err, "exhausted candidates")
}

func TestCreateShardNonAssignmentFailureSkipsCompensation(t *testing.T) {
	s := newSaga(t)
	placeErr := &PlacementError{Collection: "c1", Shard: "s9", Err: errors.New("node hung up")}
	s.placer.err = placeErr
	s.placer.write = func(res *Result) {
		res.AddSuccess("node-1", "created before failure")
	}

	res := &Result{}
	req := &CreateShardRequest{Collection: "c1", Shard: "s9"}
	err := s.run(t, req, res)

	// The error propagates unchanged and no compensation runs.
	require.ErrorIs(t, err, error(placeErr))
	assert.Equal(t, 0, s.deleter.calls)

	// The shard's metadata stays in cluster state.
	assert.True(t, s.store.Snapshot().HasShard("c1", "s9"))

	// The child result is not merged on failure.
	assert.Nil(t, res.Success)
}

func TestCreateShardSubRequestInheritance(t *testing.T) {
	s := newSaga(t)
	req := &CreateShardRequest{
		Collection:        "c1",
		Shard:             "s1",
		TLogReplicas:      intp(2),
		PullReplicas:      intp(1),
		CreateNodeSet:     "node-1,node-2",
		WaitForFinalState: true,
		Async:             "req-7",
		Props:             map[string]string{"ulog.dir": "/var/ulog"},
	}
	require.NoError(t, s.run(t, req, &Result{}))

	got := s.placer.got
	assert.Equal(t, ReplicaCount{NRT: 1, TLog: 2, Pull: 1}, got.Counts)
	assert.Equal(t, "node-1,node-2", got.CreateNodeSet)
	assert.True(t, got.WaitForFinalState)
	assert.Equal(t, "req-7", got.Async)
	assert.Equal(t, map[string]string{"ulog.dir": "/var/ulog"}, got.Props)
}
