// Command coordinator runs the strata control-plane daemon: it owns the
// authoritative cluster-state store, serves the collections admin API, and
// orchestrates shard creation across registered data nodes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/strata/internal/collections"
	"github.com/dreamware/strata/internal/placement"
	"github.com/dreamware/strata/internal/state"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	addr          string
	mode          string
	watchInterval time.Duration
	waitTimeout   time.Duration
	queueDepth    int
}

func newRootCmd() *cobra.Command {
	var cfg config
	cmd := &cobra.Command{
		Use:           "coordinator",
		Short:         "strata control-plane daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.addr, "addr", getenv("COORDINATOR_ADDR", ":8080"), "listen address")
	cmd.Flags().StringVar(&cfg.mode, "mode", getenv("COORDINATOR_MODE", "distributed"),
		"cluster-state update mode: distributed or queued")
	cmd.Flags().DurationVar(&cfg.watchInterval, "watch-interval", 250*time.Millisecond,
		"how often the cached cluster-state view is refreshed")
	cmd.Flags().DurationVar(&cfg.waitTimeout, "wait-timeout", collections.DefaultShardWaitTimeout,
		"how long shard creation waits for the mutation to converge")
	cmd.Flags().IntVar(&cfg.queueDepth, "queue-depth", 128, "overseer queue depth (queued mode)")
	return cmd
}

func run(cfg config) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	store := state.NewStore(log.Named("store"))
	reader := state.NewReader(store, log.Named("reader"))
	watcher := state.NewWatcher(reader, cfg.watchInterval, log.Named("watcher"))
	watcher.Start()
	defer watcher.Stop()

	// The mutation strategy is selected once per operating mode; everything
	// downstream is agnostic to which variant is active.
	var updater collections.StateUpdater
	switch cfg.mode {
	case "distributed":
		updater = &collections.DistributedUpdater{Store: store}
	case "queued":
		overseer := state.NewOverseer(store, cfg.queueDepth, log.Named("overseer"))
		overseer.Start()
		defer overseer.Stop()
		updater = &collections.QueuedUpdater{Overseer: overseer}
	default:
		return fmt.Errorf("unknown cluster mode %q (want distributed or queued)", cfg.mode)
	}

	placer := &placement.Command{Log: log.Named("placement"), Store: store, Reader: reader}
	deleter := &collections.DeleteShardCmd{Log: log.Named("deleteshard"), Store: store, Cores: placer}
	create := collections.NewCreateShardCmd(
		log.Named("createshard"),
		&collections.ReaderAliases{Reader: reader},
		updater, reader, placer, deleter, cfg.waitTimeout)

	srv := &server{
		log:     log.Named("api"),
		store:   store,
		reader:  reader,
		create:  create,
		deleter: deleter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", srv.handleRegister)
	mux.HandleFunc("GET /nodes", srv.handleListNodes)
	mux.HandleFunc("GET /cluster", srv.handleClusterState)
	mux.HandleFunc("POST /collections", srv.handleCreateCollection)
	mux.HandleFunc("POST /aliases", srv.handleSetAlias)
	mux.HandleFunc("POST /collections/{collection}/shards", srv.handleCreateShard)
	mux.HandleFunc("DELETE /collections/{collection}/shards/{shard}", srv.handleDeleteShard)
	mux.Handle("GET /metrics", promhttp.Handler())
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
		log.Info("coordinator listening", zap.String("addr", cfg.addr), zap.String("mode", cfg.mode))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info("coordinator stopped")
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
