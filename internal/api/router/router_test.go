package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsaleh/spabook/internal/bookings"
	"github.com/nsaleh/spabook/internal/catalog"
	"github.com/nsaleh/spabook/internal/http/handlers"
	"github.com/nsaleh/spabook/internal/realtime"
	"github.com/nsaleh/spabook/internal/schedule"
	"github.com/nsaleh/spabook/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.New("error")
	repo := bookings.NewRepository(mock)
	snapshots := bookings.NewSnapshotStore(client, time.Minute)
	hub := realtime.NewHub(logger)
	svc := bookings.NewService(repo, schedule.DefaultWindow(), snapshots, hub, nil, logger)
	catalogStore := catalog.NewStore(client)

	return New(Config{
		Bookings:           handlers.NewHandler(svc, catalogStore, logger),
		Catalog:            catalog.NewHandler(catalogStore, logger),
		Hub:                hub,
		Logger:             logger,
		CORSAllowedOrigins: []string{"https://spa.example.com"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestRouter(t)

	// Bad input reaches the handlers, so these must not 404 or 405.
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/availability"},
		{http.MethodGet, "/availability/check"},
		{http.MethodPost, "/bookings"},
		{http.MethodGet, "/bookings"},
		{http.MethodPost, "/bookings/not-a-uuid/approve"},
		{http.MethodPost, "/bookings/not-a-uuid/reject"},
		{http.MethodGet, "/catalog/services"},
		{http.MethodGet, "/metrics"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCORSHeaders(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/bookings", nil)
	req.Header.Set("Origin", "https://spa.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://spa.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
