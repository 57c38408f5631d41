package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported for the pipeline.
const ServiceName = "optimo.Pipeline"

// HealthServer exposes grpc.health.v1 for the watch daemon. Its status follows
// the probes, re-evaluated every interval.
type HealthServer struct {
	grpc     *grpc.Server
	health   *health.Server
	probes   map[string]Probe
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthServer(probes map[string]Probe, interval time.Duration, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	// Reflection for grpcurl
	reflection.Register(gs)

	return &HealthServer{grpc: gs, health: hs, probes: probes, interval: interval, logger: logger}
}

// Check evaluates every probe once and publishes the result.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, probe := range h.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := probe(pctx)
		cancel()
		if err != nil {
			h.logger.Warn("health probe failed", "probe", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve runs on lis until ctx is done.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	h.Check(ctx)

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("gRPC health serving", "addr", lis.Addr().String())
		errCh <- h.grpc.Serve(lis)
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			h.Check(ctx)
		case <-ctx.Done():
			h.health.Shutdown()
			h.grpc.GracefulStop()
			h.logger.Info("gRPC health stopped")
			return nil
		}
	}
}
