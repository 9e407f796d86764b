package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuth("app", "success")
	c.RecordAuth("app", "success")
	c.RecordAuth("google", "failure")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("app", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("google", "failure")))
}

func TestCollector_UploadsAndSearches(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpload(3)
	c.RecordSearch(5)
	c.RecordSearch(0)
	c.RecordUsageEvent("recorded")
	c.RecordBreakerState("google", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploads))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.searches))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.usageEvents.WithLabelValues("recorded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.breakerState.WithLabelValues("google")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUpload(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Result().Body)
	assert.Contains(t, string(body), "imt_images_uploaded_total 1")
}
