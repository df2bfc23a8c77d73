package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// sampleCount returns how many observations the histogram series with exactly these labels holds
func sampleCount(t *testing.T, name string, labels map[string]string) uint64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			return m.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestMiddlewareLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	matched := map[string]string{"method": "GET", "route": "/items/:id", "status": "204"}
	unmatched := map[string]string{"method": "GET", "route": "unmatched", "status": "404"}
	beforeMatched := sampleCount(t, "shopfront_http_request_duration_seconds", matched)
	beforeUnmatched := sampleCount(t, "shopfront_http_request_duration_seconds", unmatched)

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, beforeMatched+2, sampleCount(t, "shopfront_http_request_duration_seconds", matched))
	require.Equal(t, beforeUnmatched+1, sampleCount(t, "shopfront_http_request_duration_seconds", unmatched))
}

func TestObserveUpstreamTransportFailure(t *testing.T) {
	failed := map[string]string{"method": "GET", "endpoint": "products.list", "status": "error"}
	ok := map[string]string{"method": "GET", "endpoint": "products.list", "status": "200"}
	beforeFailed := sampleCount(t, "shopfront_backend_request_duration_seconds", failed)
	beforeOK := sampleCount(t, "shopfront_backend_request_duration_seconds", ok)

	ObserveUpstream(http.MethodGet, "products.list", 0, time.Now())
	ObserveUpstream(http.MethodGet, "products.list", http.StatusOK, time.Now())

	require.Equal(t, beforeFailed+1, sampleCount(t, "shopfront_backend_request_duration_seconds", failed))
	require.Equal(t, beforeOK+1, sampleCount(t, "shopfront_backend_request_duration_seconds", ok))
}
