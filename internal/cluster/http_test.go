package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
		}))
		defer srv.Close()

		var out map[string]string
		err := PostJSON(context.Background(), srv.URL, map[string]string{"msg": "hi"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "hi", out["echo"])
	})

	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusConflict)
		}))
		defer srv.Close()

		err := PostJSON(context.Background(), srv.URL, map[string]string{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
	})
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(NodeInfo{ID: "node-1", Addr: "a"})
	}))
	defer srv.Close()

	var out NodeInfo
	require.NoError(t, GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "node-1", out.ID)
}

func TestDelete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()
		assert.NoError(t, Delete(context.Background(), srv.URL))
	})

	t.Run("404 is idempotent success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		}))
		defer srv.Close()
		assert.NoError(t, Delete(context.Background(), srv.URL))
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		assert.Error(t, Delete(context.Background(), srv.URL))
	})
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "bare host port", addr: "localhost:8081", want: "http://localhost:8081"},
		{name: "http url", addr: "http://localhost:8081", want: "http://localhost:8081"},
		{name: "https url", addr: "https://node.example.com", want: "https://node.example.com"},
		{name: "trailing slash trimmed", addr: "http://localhost:8081/", want: "http://localhost:8081"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseURL(tt.addr))
		})
	}
}
