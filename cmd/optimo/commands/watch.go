package commands

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/optimo/internal/async"
	"github.com/joseph-ayodele/optimo/internal/ingest"
	"github.com/joseph-ayodele/optimo/internal/server"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		initialScan bool
		debounce    time.Duration
		adminAddr   string
		grpcAddr    string
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Process documents as they appear in watched directories",
		Long: `Watch directories recursively and process every supported file that is
created or written, one document per batch. A failing document is logged and
the watcher keeps going.

While watching, the admin HTTP listener serves /healthz and /metrics and the
gRPC listener serves grpc.health.v1. Pass "off" as an address to disable it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return newPrinter(cmd).Failure(err)
			}
			if adminAddr != "" {
				a.cfg.Server.AdminAddr = adminAddr
			}
			if grpcAddr != "" {
				a.cfg.Server.GRPCAddr = grpcAddr
			}
			return runWatch(cmd.Context(), a, args, initialScan, debounce)
		},
	}
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "also process files already present")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "coalesce bursts of events for the same file")
	cmd.Flags().StringVar(&adminAddr, "admin-addr", "", "admin HTTP listen address (default from config, \":9090\")")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC health listen address (default from config, \":8080\")")
	return cmd
}

func runWatch(parent context.Context, a *app, roots []string, initialScan bool, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := a.buildEnv(ctx)
	if err != nil {
		return a.out.Failure(err)
	}
	defer rt.Close()

	queue := async.NewProcessorQueue(rt.orch.Batch, a.logger,
		async.WithQueueWorkers(a.cfg.Pipeline.MaxConcurrentDocuments),
		async.WithQueueCapacity(a.cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(a.cfg.Pipeline.DocumentTimeout),
	)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Pipeline.DocumentTimeout)
		defer cancel()
		queue.Shutdown(sctx)
	}()

	g, gctx := errgroup.WithContext(ctx)

	events, errs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
		Roots:       roots,
		InitialScan: initialScan,
		Debounce:    debounce,
		Logger:      a.logger,
	})
	if err != nil {
		return a.out.Failure(err)
	}

	if addr := a.cfg.Server.AdminAddr; addr != "off" {
		admin := server.NewAdminServer(addr, server.NewAdminRouter(rt.probes, a.logger), a.logger)
		g.Go(func() error { return admin.Run(gctx) })
	}
	if addr := a.cfg.Server.GRPCAddr; addr != "off" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return a.out.Failure(err)
		}
		hs := server.NewHealthServer(rt.probes, 10*time.Second, a.logger)
		g.Go(func() error { return hs.Serve(gctx, lis) })
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case path, ok := <-events:
				if !ok {
					return nil
				}
				if err := queue.Enqueue(gctx, async.Job{Path: path}); err != nil {
					a.logger.Warn("file not queued", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				a.logger.Warn("watcher reported an error", "error", err)
			}
		}
	})

	a.out.Step("watching %d director(ies); Ctrl-C to stop", len(roots))
	if err := g.Wait(); err != nil {
		return a.out.Failure(err)
	}
	a.out.Success("watcher stopped")
	return nil
}
