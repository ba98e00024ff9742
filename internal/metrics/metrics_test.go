package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pipe-rack-manager/internal/live"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ live.Observer = (*Metrics)(nil)

func TestCollectionLabel(t *testing.T) {
	assert.Equal(t, "units", collection("units"))
	assert.Equal(t, "pipeRacks", collection("units/550/pipeRacks"))
}

func TestObserverCounts(t *testing.T) {
	m := New()

	m.BindingOpened("units/550/pipeRacks")
	m.BindingOpened("units/560/pipeRacks")
	m.BindingClosed("units/550/pipeRacks")
	m.SnapshotDelivered("units", 3)
	m.SnapshotFailed("users")
	m.WriteFailed("create unit")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BindingsActive.WithLabelValues("pipeRacks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsDelivered.WithLabelValues("units")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotFailures.WithLabelValues("users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteFailures.WithLabelValues("create unit")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "piperacks_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
