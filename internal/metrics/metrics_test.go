package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAI(t *testing.T) {
	m := New()
	start := time.Now()

	m.ObserveAI(OpExtract, "gemini", start, nil)
	m.ObserveAI(OpExtract, "gemini", start, errors.New("boom"))
	m.ObserveAI(OpGenerate, "local", start, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(OpExtract, "gemini", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(OpExtract, "gemini", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(OpGenerate, "local", OutcomeSuccess)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveAI(OpExtract, "gemini", time.Now(), nil) })
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAI(OpGenerate, "gemini", time.Now(), nil)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pantrypal_ai_requests_total")
}
