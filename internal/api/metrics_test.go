package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/samcharles93/transl8/internal/logger"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRecordRequests(t *testing.T) {
	t.Parallel()
	server := NewServer(NewTranslationService(testModel(t), DefaultLimits()), NewTranslationStore(4), logger.Discard())
	e := echo.New()
	server.Register(e)
	m := server.Metrics()

	rec := doJSON(t, e, http.MethodPost, "/v1/translate", `{"src":[[4,3,2],[5,7,0]],"pad_id":0,"max_len":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("translate: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodPost, "/v1/translate", `{"src":[[42]]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range id: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodPost, "/v1/logits", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		endpoint string
		outcome  string
		want     float64
	}{
		{"translate", "ok", 1},
		{"translate", "invalid", 1},
		{"logits", "invalid", 1},
		{"logits", "ok", 0},
	}
	for _, tt := range tests {
		if got := counterValue(t, m.RequestsTotal, tt.endpoint, tt.outcome); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.endpoint, tt.outcome, got, tt.want)
		}
	}
	if got := histogramCount(t, m.RequestDuration, "translate"); got != 2 {
		t.Errorf("translate duration samples = %d, want 2", got)
	}
	if got := counterValue(t, m.TokensTotal, "input"); got != 6 {
		t.Errorf("input tokens = %v, want 6", got)
	}
	if got := counterValue(t, m.TokensTotal, "output"); got < 1 || got > 6 {
		t.Errorf("output tokens = %v, want between 1 and 6", got)
	}

	rec = doJSON(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`transl8_requests_total{endpoint="translate",outcome="ok"} 1`,
		"transl8_stored_translations 1",
		"transl8_request_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}
