package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/collections"
	"github.com/dreamware/strata/internal/state"
)

type server struct {
	log     *zap.Logger
	store   *state.Store
	reader  *state.Reader
	create  *collections.CreateShardCmd
	deleter *collections.DeleteShardCmd
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Node.ID == "" || req.Node.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}
	s.store.AddLiveNode(req.Node)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	st := s.reader.Refresh()
	nodes := append([]cluster.NodeInfo(nil), st.LiveNodes...)
	slices.SortFunc(nodes, func(a, b cluster.NodeInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	writeJSON(w, http.StatusOK, struct {
		Nodes []cluster.NodeInfo `json:"nodes"`
	}{Nodes: nodes})
}

func (s *server) handleClusterState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reader.Refresh())
}

func (s *server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string                  `json:"name"`
		Defaults cluster.ReplicaDefaults `json:"defaults"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "'name' is required", http.StatusBadRequest)
		return
	}
	if err := s.store.CreateCollection(req.Name, req.Defaults); err != nil {
		if errors.Is(err, state.ErrCollectionExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *server) handleSetAlias(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Alias      string `json:"alias"`
		Collection string `json:"collection"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Alias == "" || req.Collection == "" {
		http.Error(w, "'alias' and 'collection' are required", http.StatusBadRequest)
		return
	}
	s.store.SetAlias(req.Alias, req.Collection)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCreateShard(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := s.log.With(zap.String("requestId", requestID))

	var req collections.CreateShardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	// The path segment is authoritative for the collection name (it may be
	// an alias; the saga resolves it when followAliases is set).
	req.Collection = r.PathValue("collection")

	res := &collections.Result{}
	err := s.create.Run(r.Context(), s.reader.Refresh(), &req, res)
	if err != nil {
		log.Warn("create shard failed",
			zap.String("collection", req.Collection),
			zap.String("shard", req.Shard),
			zap.String("kind", collections.ErrorKind(err)),
			zap.Error(err))
		writeJSON(w, statusFor(err), errorResponse{
			Error:     err.Error(),
			Kind:      collections.ErrorKind(err),
			RequestID: requestID,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleDeleteShard(w http.ResponseWriter, r *http.Request) {
	req := collections.DeleteShardRequest{
		Collection: r.PathValue("collection"),
		Shard:      r.PathValue("shard"),
		Async:      r.URL.Query().Get("async"),
	}

	res := &collections.Result{}
	if err := s.deleter.DeleteShard(r.Context(), s.reader.Refresh(), req, res); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, state.ErrCollectionNotFound) || errors.Is(err, state.ErrShardNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps the saga error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch collections.ErrorKind(err) {
	case "bad_request", "alias_resolution", "replica_count_validation":
		return http.StatusBadRequest
	case "cluster_state_mutation":
		return http.StatusConflict
	case "convergence_timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
