package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/domain/ledger"
)

func TestMetrics_LedgerObserver(t *testing.T) {
	m := New()

	m.MovementAppended(ledger.EventBatchReceipt)
	m.MovementAppended(ledger.EventBatchReceipt)
	m.MovementDeduplicated(ledger.EventBatchReceipt)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movementsAppended.WithLabelValues("batch_receipt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movementsDeduplicated.WithLabelValues("batch_receipt")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.movementsAppended.WithLabelValues("job_issue")))
}

func TestMetrics_GinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/products/:id/quantity", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/v1/products/a/quantity", "/api/v1/products/b/quantity"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/products/:id/quantity", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "partsledger_http_requests_total"))
}

func TestMetrics_Outbox(t *testing.T) {
	m := New()
	m.OutboxRelayed(3)
	m.OutboxFailed()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.outboxRelayed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxFailed))
}
