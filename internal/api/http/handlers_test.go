package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/domain/session"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

type idleEndpoint struct{}

func (idleEndpoint) Send([]byte) error        { return nil }
func (idleEndpoint) Receive() ([]byte, error) { return nil, errors.New("idle") }
func (idleEndpoint) Close() error             { return nil }
func (idleEndpoint) RemoteAddr() string       { return "198.51.100.7:4000" }

var noSpawn = session.SpawnerFunc(func(context.Context) (session.Terminal, error) {
	return nil, errors.New("not used")
})

func setupRouter(t *testing.T) (*gin.Engine, *session.Registry, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := session.NewRegistry()
	metrics := monitoring.NewMetrics()
	t.Cleanup(metrics.Close)

	h := NewHandlers(reg, metrics)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/api/sessions", h.ListSessions)
	router.GET("/api/sessions/:id", h.GetSession)
	router.GET("/metrics/json", h.Stats)
	return router, reg, metrics
}

func addSession(t *testing.T, reg *session.Registry) *session.Session {
	t.Helper()
	s := session.New(id.NewSessionID(), idleEndpoint{}, noSpawn, session.Options{})
	release, err := reg.Acquire(s)
	require.NoError(t, err)
	t.Cleanup(release)
	return s
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	router, reg, _ := setupRouter(t)

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","sessions":0}`, w.Body.String())

	addSession(t, reg)
	addSession(t, reg)

	w = get(router, "/health")
	assert.JSONEq(t, `{"status":"healthy","sessions":2}`, w.Body.String())
}

func TestListSessions(t *testing.T) {
	router, reg, _ := setupRouter(t)
	first := addSession(t, reg)
	second := addSession(t, reg)

	w := get(router, "/api/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []session.Info `json:"sessions"`
		Count    int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, first.ID(), body.Sessions[0].ID)
	assert.Equal(t, second.ID(), body.Sessions[1].ID)
	assert.Equal(t, "198.51.100.7:4000", body.Sessions[0].RemoteAddr)
	assert.Equal(t, "starting", body.Sessions[0].State)
}

func TestGetSession(t *testing.T) {
	router, reg, _ := setupRouter(t)
	s := addSession(t, reg)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/api/sessions/" + s.ID().String(), http.StatusOK},
		{"unknown", "/api/sessions/" + id.NewSessionID().String(), http.StatusNotFound},
		{"malformed", "/api/sessions/not-an-id", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	var info session.Info
	require.NoError(t, json.Unmarshal(get(router, "/api/sessions/"+s.ID().String()).Body.Bytes(), &info))
	assert.Equal(t, s.ID(), info.ID)
}

func TestStats(t *testing.T) {
	router, _, metrics := setupRouter(t)
	metrics.SessionStarted()
	metrics.BytesRelayed(session.DirectionOutput, 42)

	w := get(router, "/metrics/json")
	require.Equal(t, http.StatusOK, w.Code)

	var snap monitoring.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.SessionsActive)
	assert.Equal(t, int64(42), snap.BytesOut)
}
