package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/optimo/internal/common"
)

func okProbe(context.Context) error { return nil }

func TestAdminRouter_Healthz(t *testing.T) {
	h := NewAdminRouter(map[string]Probe{"store": okProbe}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["store"])
}

func TestAdminRouter_HealthzFailingProbe(t *testing.T) {
	h := NewAdminRouter(map[string]Probe{
		"store": okProbe,
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestAdminRouter_Metrics(t *testing.T) {
	h := NewAdminRouter(nil, nil)

	// One request first so the HTTP metrics have a sample.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "optimo_http_requests_total")
}

func TestHealthServer(t *testing.T) {
	var down atomic.Bool
	hs := NewHealthServer(map[string]Probe{
		"store": func(context.Context) error {
			if down.Load() {
				return errors.New("down")
			}
			return nil
		},
	}, time.Hour, nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hs.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	down.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, hs.Check(context.Background()))
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop")
	}
}

func TestConnectDB_SQLite(t *testing.T) {
	ctx := context.Background()
	db, decisions, err := ConnectDB(ctx, common.StoreConfig{
		DSN:         filepath.Join(t.TempDir(), "optimo.sqlite"),
		DialTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	defer CloseDB(db, slogDiscard())

	n, err := decisions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://optimo:xxxxx@db:5432/optimo", redactDSN("postgres://optimo:secret@db:5432/optimo"))
	assert.Equal(t, "/var/lib/optimo.sqlite", redactDSN("/var/lib/optimo.sqlite"))
}

func slogDiscard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
