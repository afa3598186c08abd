package emitter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newRecordingGateway(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := r.Body.Read(buf)
			body.Write(buf[:n])
			if err != nil {
				break
			}
		}
		mu.Lock()
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   body.String(),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestGatewayPusher_Push(t *testing.T) {
	srv, recorded := newRecordingGateway(t, http.StatusOK)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "druid_test_total",
		Help: "test",
	})
	reg.MustRegister(counter)
	counter.Add(4)

	p := NewGatewayPusher(srv.URL, reg, time.Second)
	if err := p.Push("node1"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	reqs := recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].method != http.MethodPut {
		t.Errorf("expected PUT, got %s", reqs[0].method)
	}
	if reqs[0].path != "/metrics/job/node1" {
		t.Errorf("expected job group path, got %q", reqs[0].path)
	}
	if !strings.Contains(reqs[0].body, "druid_test_total") {
		t.Error("expected pushed body to carry the registry snapshot")
	}
}

func TestGatewayPusher_PushFailure(t *testing.T) {
	srv, _ := newRecordingGateway(t, http.StatusInternalServerError)

	p := NewGatewayPusher(srv.URL, prometheus.NewRegistry(), time.Second)
	if err := p.Push("node1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestGatewayPusher_Delete(t *testing.T) {
	srv, recorded := newRecordingGateway(t, http.StatusAccepted)

	p := NewGatewayPusher(srv.URL, prometheus.NewRegistry(), time.Second)
	if err := p.Delete("node1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	reqs := recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].method != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", reqs[0].method)
	}
	if reqs[0].path != "/metrics/job/node1" {
		t.Errorf("expected job group path, got %q", reqs[0].path)
	}
}

func TestGatewayPusher_UnreachableGateway(t *testing.T) {
	// Reserved TEST-NET address; connection should fail fast.
	p := NewGatewayPusher("192.0.2.1:9091", prometheus.NewRegistry(), 200*time.Millisecond)
	if err := p.Push("node1"); err == nil {
		t.Fatal("expected error for unreachable gateway")
	}
}
