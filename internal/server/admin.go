package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/optimo/internal/metrics"
)

const probeTimeout = 2 * time.Second

// NewAdminRouter serves /healthz (every probe must pass) and /metrics.
func NewAdminRouter(probes map[string]Probe, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", healthzHandler(probes, logger))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthzHandler(probes map[string]Probe, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		code := http.StatusOK
		for _, name := range names {
			if err := probes[name](ctx); err != nil {
				logger.Warn("health probe failed", "probe", name, "error", err)
				resp.Checks[name] = err.Error()
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// AdminServer runs the admin router until its context ends.
type AdminServer struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewAdminServer(addr string, handler http.Handler, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (a *AdminServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("admin HTTP serving", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("admin HTTP shutdown failed", "error", err)
		return err
	}
	a.logger.Info("admin HTTP stopped")
	return nil
}
