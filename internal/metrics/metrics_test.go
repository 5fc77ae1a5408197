package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/metrics"
)

func TestGinMiddlewareRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(metrics.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ping", "2xx"))
	assert.GreaterOrEqual(t, before, float64(1))
}

func TestRecordSchedulerLagSetsGauge(t *testing.T) {
	metrics.RecordSchedulerLag(3 * time.Second)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.SchedulerLagSeconds))
}
