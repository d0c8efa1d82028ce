package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsaleh/spabook/pkg/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestEmptyCatalogReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	services, err := store.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, services)

	for _, svc := range services {
		assert.NoError(t, svc.Validate(), "default service %q must be valid", svc.ID)
	}
}

func TestReplaceAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	services := []Service{{
		ID:   "hot-stone",
		Name: "Hot Stone Massage",
		DurationOptions: []DurationOption{
			{Value: "1 hr", Minutes: 60, PriceCents: 20000},
		},
	}}
	require.NoError(t, store.Replace(ctx, services))

	got, err := store.Get(ctx, "hot-stone")
	require.NoError(t, err)
	assert.Equal(t, "Hot Stone Massage", got.Name)

	_, err = store.Get(ctx, "massage")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceRejectsMismatchedOption(t *testing.T) {
	store := newTestStore(t)

	err := store.Replace(context.Background(), []Service{{
		ID:   "bad",
		Name: "Bad",
		DurationOptions: []DurationOption{
			{Value: "1 hr", Minutes: 90, PriceCents: 1000}, // "1 hr" is 60, not 90
		},
	}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceOption(t *testing.T) {
	svc := DefaultServices()[0]

	opt, ok := svc.Option(60)
	require.True(t, ok)
	assert.Equal(t, "1 hr", opt.Value)

	_, ok = svc.Option(75)
	assert.False(t, ok)
}

func TestHandlerListAndGet(t *testing.T) {
	store := newTestStore(t)
	handler := NewHandler(store, logging.New("error"))
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/services")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/services/massage")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/services/nope")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestHandlerReplaceRejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	handler := NewHandler(store, logging.New("error"))
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	body := `[{"id":"bad","name":"Bad","duration_options":[{"value":"sometime","minutes":30}]}]`
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/services", strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
