package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/metrics"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

const shutdownGrace = 5 * time.Second

// snapshotSource is the part of the agent the HTTP handlers read.
type snapshotSource interface {
	Current() snapshot.Snapshot
	Online() bool
}

// serveCommand polls on the configured intervals and serves metrics until
// interrupted. A listen failure stops the poller too.
func serveCommand(ctx context.Context, addr string, out io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.MetricsAddr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ag := newAgent(cfg)
	defer ag.Close()

	exporter := metrics.New()
	exporter.TrackPool(ag.PoolStats)
	unsubscribe := ag.Subscribe(exporter.Observe)
	defer unsubscribe()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServeMux(ag, exporter.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ag.Run(gctx)
	})
	g.Go(func() error {
		fmt.Fprintf(out, "%s Serving %s metrics on %s\n", ui.SymbolOnline, cfg.Host, addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't listen on "+addr,
				"Pick a free address with --addr or metrics_addr in the config")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newServeMux routes /metrics, /snapshot and /healthz.
func newServeMux(src snapshotSource, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = WriteJSONSuccess(w, src.Current())
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !src.Online() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "offline")
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}
