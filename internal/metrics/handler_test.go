package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prashantbhardwaj30/architek-app/internal/model"
)

// scrape は/metricsエンドポイントを呼び出してレスポンス本文を返す。
func scrape(t *testing.T, handler http.Handler) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// TestSetupMetricsRoute_ExposesRegisteredMetrics は登録済みメトリクスが
// /metricsで公開されることを検証する。
func TestSetupMetricsRoute_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAdmissionAllowed(model.TierFree)
	c.RecordAdmissionDenied(model.TierFree)
	c.RecordGenerationFailure()

	handler := SetupMetricsRoute(reg)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	status, body := scrape(t, handler)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}

	for _, name := range []string{
		"architek_admission_allowed_total",
		"architek_admission_denied_total",
		"architek_generation_fail_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("response should contain %s metric", name)
		}
	}

	if !strings.Contains(body, `tier="free"`) {
		t.Error("admission counters should carry the tier label")
	}
}

// TestSetupMetricsRoute_EmptyRegistry はメトリクス未登録でも200が返ることを検証する。
func TestSetupMetricsRoute_EmptyRegistry(t *testing.T) {
	handler := SetupMetricsRoute(prometheus.NewRegistry())

	status, _ := scrape(t, handler)
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
}
