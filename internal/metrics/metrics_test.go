package metrics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goosetrack/goosetrack-api/internal/health"
	"github.com/goosetrack/goosetrack-api/internal/metrics"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func newServer(err error) *http.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := health.NewChecker("mongo", pinger{err: err}, logger, prometheus.NewRegistry())
	return metrics.NewServer(":0", checker)
}

func TestServer_HealthEndpoints(t *testing.T) {
	up := newServer(nil)
	if w := get(up.Handler, "/livez"); w.Code != http.StatusOK {
		t.Fatalf("livez status = %d", w.Code)
	}
	if w := get(up.Handler, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", w.Code)
	}

	down := newServer(errors.New("no primary"))
	if w := get(down.Handler, "/livez"); w.Code != http.StatusOK {
		t.Fatalf("livez must not depend on the store, got %d", w.Code)
	}
	w := get(down.Handler, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"down"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestServer_ExposesMetrics(t *testing.T) {
	w := get(newServer(nil).Handler, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatal("default collectors missing")
	}
}
