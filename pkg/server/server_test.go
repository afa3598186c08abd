package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cxlRay/druid/pkg/config"
	"github.com/cxlRay/druid/pkg/emitter"
)

const testMap = `
query/count:
  type: count
  dimensions: [service, region]
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEmitter(t *testing.T) *emitter.Emitter {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metrics.yaml")
	if err := os.WriteFile(path, []byte(testMap), 0o644); err != nil {
		t.Fatalf("failed to write test map: %v", err)
	}

	cfg := config.NewDefault()
	cfg.Strategy = config.StrategyExporter
	cfg.MetricMapPath = path

	em, err := emitter.New(cfg, discardLogger())
	if err != nil {
		t.Fatalf("emitter.New failed: %v", err)
	}
	return em
}

func TestIngestServer_SingleEvent(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	body := `{"metric":"query/count","service":"broker","host":"node1","value":2,"userDims":{"region":"us-east"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	dc := em.Registry().GetByName("query/count", "broker")
	if got := testutil.ToFloat64(dc.Counter.WithLabelValues("broker", "us_east")); got != 2 {
		t.Errorf("expected counter 2 after ingest, got %v", got)
	}
}

func TestIngestServer_EventArray(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	body := `[
		{"metric":"query/count","service":"broker","value":1,"userDims":{"region":"us-east"}},
		{"metric":"query/count","service":"broker","value":1,"userDims":{"region":"us-east"}},
		{"metric":"no/such/metric","service":"broker","value":1}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"accepted":3`) {
		t.Errorf("expected 3 accepted events, got %s", rec.Body.String())
	}

	dc := em.Registry().GetByName("query/count", "broker")
	if got := testutil.ToFloat64(dc.Counter.WithLabelValues("broker", "us_east")); got != 2 {
		t.Errorf("expected counter 2, got %v", got)
	}
}

func TestIngestServer_MalformedPayload(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed payload, got %d", rec.Code)
	}
}

func TestIngestServer_MethodNotAllowed(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}

func TestIngestServer_Health(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIngestServer_RequestIDHeader(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer(":0", time.Second, em, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a generated request ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "fixed-id" {
		t.Errorf("expected inbound request ID to be kept, got %q", got)
	}
}

func TestExporterServer_Metrics(t *testing.T) {
	em := newTestEmitter(t)
	em.Emit(emitter.Event{
		Metric:   "query/count",
		Service:  "broker",
		Value:    5,
		UserDims: map[string]any{"region": "us-east"},
	})

	srv := NewExporterServer(":0", time.Second, em.Gatherer(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "druid_query_count") {
		t.Errorf("expected exposition to contain druid_query_count, got:\n%s", body)
	}
	if !strings.Contains(body, `region="us_east"`) {
		t.Errorf("expected sanitized region label in exposition, got:\n%s", body)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	em := newTestEmitter(t)
	srv := NewIngestServer("127.0.0.1:0", time.Second, em, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}

	if srv.IsRunning() {
		t.Error("expected server to be stopped")
	}
}
