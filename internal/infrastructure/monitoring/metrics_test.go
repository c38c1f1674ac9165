package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	defer a.Close()
	b := NewMetrics()
	defer b.Close()

	a.SessionStarted()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.SessionsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.SessionsTotal))
}

func TestSessionLifecycle(t *testing.T) {
	m := NewMetrics()
	defer m.Close()

	m.SessionStarted()
	m.SessionStarted()
	m.SessionClosed("process_exited", 3*time.Second)
	m.SessionSpawnFailed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SpawnFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionCloses.WithLabelValues("process_exited")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.SessionsActive)
	assert.Equal(t, int64(2), snap.SessionsTotal)
	assert.Equal(t, int64(1), snap.SpawnFailures)
}

func TestBytesRelayed(t *testing.T) {
	m := NewMetrics()
	defer m.Close()

	m.BytesRelayed("output", 100)
	m.BytesRelayed("output", 50)
	m.BytesRelayed("input", 3)
	m.BytesRelayed("input", 0)

	assert.Equal(t, float64(150), testutil.ToFloat64(m.RelayBytes.WithLabelValues("output")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RelayBytes.WithLabelValues("input")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.BytesIn)
	assert.Equal(t, int64(150), snap.BytesOut)
}

func TestMessageReceived(t *testing.T) {
	m := NewMetrics()
	defer m.Close()

	m.MessageReceived("input")
	m.MessageReceived("input")
	m.MessageReceived("resize")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.WSMessages.WithLabelValues("inbound", "input")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WSMessages.WithLabelValues("inbound", "resize")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	defer m.Close()
	m.SessionStarted()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "webterm_sessions_total 1")
	assert.Contains(t, body, "webterm_sessions_active 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMetrics()
	defer m.Close()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, path := range []string{"/health", "/health", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", unmatchedPath, "404")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), `webterm_http_requests_total{method="GET",path="/health",status="200"} 2`))
}

func TestCloseIdempotent(t *testing.T) {
	m := NewMetrics()
	m.Close()
	m.Close()
}
