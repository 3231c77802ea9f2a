package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersMove(t *testing.T) {
	before := testutil.ToFloat64(cacheResults.WithLabelValues("hit"))
	IncCacheHit()
	assert.Equal(t, before+1, testutil.ToFloat64(cacheResults.WithLabelValues("hit")))

	IncRefresh(false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(refreshes.WithLabelValues("error")), 1.0)

	ObserveIndexBuild(42, 0.01)
	assert.Equal(t, 42.0, testutil.ToFloat64(indexItems))
}

func TestMetricsHandlerSmoke(t *testing.T) {
	ObserveHTTP("GET", "/metadata", 200, 0.001)
	ObserveFetch("https", 0.02)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "stac_coverage_http_requests_total")
	assert.Contains(t, body, "stac_coverage_fetch_duration_seconds")
}
