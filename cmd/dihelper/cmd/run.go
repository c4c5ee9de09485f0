package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GoCodeAlone/dihelper"
	"github.com/GoCodeAlone/dihelper/introspect"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errWatchWithoutConfig = errors.New("--watch requires --config")

// NewRunCommand creates the run command
func NewRunCommand(opts *globalOptions) *cobra.Command {
	var (
		listen string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the container until interrupted",
		Long: `Initialize the reference beans, start their run schedules and block until
SIGINT or SIGTERM, then close the beans. With --listen the beans, their run
history and Prometheus metrics are served over HTTP. With --watch the beans
are closed and rebuilt whenever the config file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && opts.configPath == "" {
				return errWatchWithoutConfig
			}

			zl, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			r := newRunner(opts, zl)
			if listen != "" {
				stop := r.serve(listen)
				defer stop()
			}

			if watch {
				return r.runWatching(cmd.Context())
			}

			p, err := r.provider()
			if err != nil {
				return err
			}
			return p.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address of the introspection HTTP server, e.g. :8080")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild the beans when the config file changes")

	return cmd
}

// runner owns what outlives a single provider: the logger, the metrics and
// the HTTP handler pointing at the current provider.
type runner struct {
	opts       *globalOptions
	zl         *zap.Logger
	metrics    *introspect.MetricsObserver
	handler    atomic.Pointer[http.Handler]
	generation atomic.Int32
}

func newRunner(opts *globalOptions, zl *zap.Logger) *runner {
	return &runner{
		opts:    opts,
		zl:      zl,
		metrics: introspect.NewMetricsObserver("dihelper"),
	}
}

// provider builds a provider from the current config and points the HTTP
// handler at it.
func (r *runner) provider() (*dihelper.BeanProvider, error) {
	p, err := r.opts.newProvider(r.zl, dihelper.WithObservers(r.metrics))
	if err != nil {
		return nil, err
	}

	h := introspect.NewHandler(p,
		introspect.WithMetrics(r.metrics),
		introspect.WithLogger(dihelper.NewZapLogger(r.zl)),
	)
	r.handler.Store(&h)
	r.generation.Add(1)
	return p, nil
}

func (r *runner) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h := r.handler.Load()
	if h == nil {
		http.Error(w, "Container not built yet", http.StatusServiceUnavailable)
		return
	}
	(*h).ServeHTTP(w, req)
}

// serve starts the introspection server and returns its stop function.
func (r *runner) serve(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		r.zl.Info("Introspection server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.zl.Error("Introspection server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// runWatching runs the beans until SIGINT, SIGTERM or ctx is done, and
// rebuilds them on every config change. A config that fails to load keeps
// the current beans running.
func (r *runner) runWatching(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := watchConfig(ctx, r.opts.configPath, r.zl)
	if err != nil {
		return err
	}

	p, err := r.provider()
	if err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			r.zl.Info("Shutting down")
			return r.shutdown(ctx, p)
		case <-changes:
		}

		next, err := r.provider()
		if err != nil {
			r.zl.Error("Config change rejected, keeping current beans", zap.Error(err))
			continue
		}

		r.zl.Info("Config changed, restarting beans", zap.Int32("generation", r.generation.Load()))
		if err := r.shutdown(ctx, p); err != nil {
			r.zl.Warn("Shutdown before restart reported errors", zap.Error(err))
		}

		p = next
		if err := p.Init(ctx); err != nil {
			return err
		}
	}
}

func (r *runner) shutdown(ctx context.Context, p *dihelper.BeanProvider) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.ShutdownTimeout())
	defer cancel()
	return p.Shutdown(ctx)
}
