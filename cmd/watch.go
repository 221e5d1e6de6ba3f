// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luthersystems/perlmro/analysis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	indexGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perlmro_index_generation",
		Help: "Generation of the workspace index",
	})
	indexFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perlmro_index_files",
		Help: "Files held by the workspace index",
	})
)

// WatchCommand creates the "watch" cobra command.
func WatchCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	cmd := &cobra.Command{
		Use:   "watch [flags]",
		Short: "Keep the workspace index current as files change",
		Long: `Index the workspace and keep the index current as files change.

Each change to the index is logged with its generation.  With --metrics-addr
the cache and index metrics are served at /metrics in the Prometheus format
and the index state at /health.  Stop with Ctrl-C.

Examples:
  perlmro watch -v
  perlmro watch --metrics-addr=localhost:9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.release()
			return runWatch(ctx, ws)
		},
	}
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics at this address.")
	cmd.Flags().Duration("debounce", 0, "Quiet period before applying file changes.")
	if err := viper.BindPFlag("metrics.addr", cmd.Flags().Lookup("metrics-addr")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("watch.debounce", cmd.Flags().Lookup("debounce")); err != nil {
		panic(err)
	}
	return cmd
}

func runWatch(ctx context.Context, ws *workspace) error {
	var ln net.Listener
	if addr := ws.settings.MetricsAddr; addr != "" {
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return err
		}
	}
	w, err := analysis.NewWatcher(ws.Index, ws.settings.Roots, ws.settings.scanOptions(ws.log), ws.settings.Debounce)
	if err != nil {
		if ln != nil {
			_ = ln.Close()
		}
		return err
	}
	observeIndex(ws.Index)
	unsubscribe := ws.Index.Subscribe(func(gen uint64) {
		observeIndex(ws.Index)
		ws.log.WithFields(logrus.Fields{
			"generation": gen,
			"files":      len(ws.Index.Files()),
		}).Info("index updated")
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	if ln != nil {
		srv := newMetricsServer(ws.Index)
		ws.log.WithField("addr", ln.Addr().String()).Info("metrics server starting")
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	ws.log.WithField("roots", ws.settings.Roots).Info("watching workspace")
	return g.Wait()
}

func observeIndex(idx *analysis.Index) {
	indexGeneration.Set(float64(idx.Generation()))
	indexFiles.Set(float64(len(idx.Files())))
}

// newMetricsServer serves the Prometheus metrics and the index state.
func newMetricsServer(idx *analysis.Index) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status     string `json:"status"`
			Generation uint64 `json:"generation"`
			Files      int    `json:"files"`
		}{"up", idx.Generation(), len(idx.Files())})
	})
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func init() {
	rootCmd.AddCommand(WatchCommand())
}
