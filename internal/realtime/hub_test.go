package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsaleh/spabook/pkg/logging"
)

func dialHub(t *testing.T, srv *httptest.Server, date string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?date=" + date
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, date string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(date) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers for %s, have %d", want, date, hub.SubscriberCount(date))
}

func TestHubBroadcastsToDateSubscribers(t *testing.T) {
	hub := NewHub(logging.New("error"))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dialHub(t, srv, "2026-09-01")
	other := dialHub(t, srv, "2026-09-02")
	waitForSubscribers(t, hub, "2026-09-01", 1)
	waitForSubscribers(t, hub, "2026-09-02", 1)

	hub.BookingsChanged("2026-09-01")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, Event{Type: "bookings_changed", Date: "2026-09-01"}, event)

	// The other date's subscriber hears nothing.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var unexpected Event
	err := other.ReadJSON(&unexpected)
	assert.Error(t, err, "subscriber of another date should time out")
}

func TestHubRequiresDate(t *testing.T) {
	hub := NewHub(logging.New("error"))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubRemovesClosedSubscribers(t *testing.T) {
	hub := NewHub(logging.New("error"))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dialHub(t, srv, "2026-09-01")
	waitForSubscribers(t, hub, "2026-09-01", 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, "2026-09-01", 0)

	// Broadcasting to a date with no subscribers is a no-op.
	hub.BookingsChanged("2026-09-01")
}
