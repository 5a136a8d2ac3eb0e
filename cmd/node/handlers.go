package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/core"
	"github.com/dreamware/strata/internal/placement"
)

type server struct {
	log      *zap.Logger
	registry *core.Registry
}

func (s *server) handleListCores(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Cores []core.Info `json:"cores"`
	}{Cores: s.registry.List()})
}

func (s *server) handleCreateCore(w http.ResponseWriter, r *http.Request) {
	var req placement.CoreCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Collection == "" || req.Shard == "" {
		http.Error(w, "'name', 'collection' and 'shard' are required", http.StatusBadRequest)
		return
	}
	c, err := s.registry.Create(req.Name, req.Collection, req.Shard, req.Type)
	if err != nil {
		if errors.Is(err, core.ErrCoreExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c.Info())
}

func (s *server) handleDeleteCore(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.registry.Delete(name); err != nil {
		if errors.Is(err, core.ErrCoreNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) lookupCore(w http.ResponseWriter, r *http.Request) (*core.Core, bool) {
	c, ok := s.registry.Get(r.PathValue("core"))
	if !ok {
		http.Error(w, "core not found", http.StatusNotFound)
		return nil, false
	}
	return c, true
}

func (s *server) handleDataGet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupCore(w, r)
	if !ok {
		return
	}
	value, err := c.Get(r.PathValue("key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

func (s *server) handleDataPut(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupCore(w, r)
	if !ok {
		return
	}
	value, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	c.Put(r.PathValue("key"), value)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDataDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupCore(w, r)
	if !ok {
		return
	}
	c.Delete(r.PathValue("key"))
	w.WriteHeader(http.StatusNoContent)
}
