// Command node runs a strata data node: it registers itself with the
// coordinator and serves core administration plus per-core data access.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/cluster"
	"github.com/dreamware/strata/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	addr        string
	advertise   string
	id          string
	coordinator string
}

func newRootCmd() *cobra.Command {
	var cfg config
	cmd := &cobra.Command{
		Use:           "node",
		Short:         "strata data-node daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.addr, "addr", getenv("NODE_ADDR", ":8081"), "listen address")
	cmd.Flags().StringVar(&cfg.advertise, "advertise", getenv("NODE_ADVERTISE", ""),
		"address advertised to the coordinator (defaults to the listen address)")
	cmd.Flags().StringVar(&cfg.id, "id", getenv("NODE_ID", ""), "node ID (generated when empty)")
	cmd.Flags().StringVar(&cfg.coordinator, "coordinator", getenv("COORDINATOR_URL", "http://localhost:8080"),
		"coordinator base URL")
	return cmd
}

func run(cfg config) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if cfg.id == "" {
		cfg.id = "node-" + uuid.NewString()[:8]
	}
	if cfg.advertise == "" {
		cfg.advertise = cfg.addr
	}
	log = log.With(zap.String("node", cfg.id))

	registry := core.NewRegistry(log.Named("cores"))
	srv := &server{log: log.Named("api"), registry: registry}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/cores", srv.handleListCores)
	mux.HandleFunc("POST /admin/cores", srv.handleCreateCore)
	mux.HandleFunc("DELETE /admin/cores/{name}", srv.handleDeleteCore)
	mux.HandleFunc("GET /cores/{core}/data/{key}", srv.handleDataGet)
	mux.HandleFunc("PUT /cores/{core}/data/{key}", srv.handleDataPut)
	mux.HandleFunc("DELETE /cores/{core}/data/{key}", srv.handleDataDelete)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              cfg.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("node listening", zap.String("addr", cfg.addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registerWithCoordinator(ctx, log, cfg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-stop:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info("node stopped")
	return nil
}

// registerWithCoordinator announces this node, retrying with exponential
// backoff until the coordinator accepts the registration or ctx is canceled.
func registerWithCoordinator(ctx context.Context, log *zap.Logger, cfg config) {
	req := cluster.RegisterRequest{
		Node: cluster.NodeInfo{ID: cfg.id, Addr: cfg.advertise},
	}
	attempt := func() error {
		return cluster.PostJSON(ctx, cluster.BaseURL(cfg.coordinator)+"/register", req, nil)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0 // retry until canceled
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		log.Warn("registration abandoned", zap.Error(err))
		return
	}
	log.Info("registered with coordinator", zap.String("coordinator", cfg.coordinator))
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
