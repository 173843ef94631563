package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLedgerOp(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveLedgerOp("deposit", "ok", 3*time.Millisecond)
	m.ObserveLedgerOp("deposit", "ok", time.Millisecond)
	m.ObserveLedgerOp("fund_survey", "insufficient_funds", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ledgerOps.WithLabelValues("deposit", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ledgerOps.WithLabelValues("fund_survey", "insufficient_funds")), 0)

	m.AddMoved("commission", 20_000)
	m.AddMoved("commission", 0)
	assert.InDelta(t, 20_000, testutil.ToFloat64(m.ledgerMoved.WithLabelValues("commission")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveLedgerOp("deposit", "ok", time.Millisecond)
	m.AddMoved("deposit", 1)
}

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()

	r := chi.NewRouter()
	r.Use(m.InstrumentHandler)
	r.Get("/api/surveys/{surveyId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surveys/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(
		m.httpRequests.WithLabelValues("GET", "/api/surveys/{surveyId}", "418")), 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "surveyledger_http_requests_total"))
}
