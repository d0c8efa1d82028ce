// Package realtime pushes booking-change notifications to connected
// clients. The hub carries no schedule state: it only tells subscribers
// that a date's booking set changed so they re-fetch availability.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nsaleh/spabook/pkg/logging"
)

const writeTimeout = 5 * time.Second

// Event is the message broadcast to subscribers of a date.
type Event struct {
	Type string `json:"type"` // "bookings_changed"
	Date string `json:"date"`
}

// Hub tracks websocket subscribers per date and fans out change events.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{} // date -> connections
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes per connection
}

// NewHub creates a hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// The availability feed is public read-only data; origin
			// filtering happens in the CORS middleware for the REST surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// HandleWebSocket upgrades the connection and subscribes it to the date in
// the query string. The connection stays open until the client closes it.
// GET /ws/availability?date=YYYY-MM-DD
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, `{"error": "date required"}`, http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn}
	h.add(date, sub)
	h.logger.Debug("availability subscriber connected", "date", date)

	// Drain the connection; clients send nothing meaningful, the read
	// unblocks on close.
	go func() {
		defer func() {
			h.remove(date, sub)
			_ = conn.Close()
			h.logger.Debug("availability subscriber disconnected", "date", date)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BookingsChanged notifies every subscriber of the date. Implements the
// bookings.ChangeNotifier interface.
func (h *Hub) BookingsChanged(date string) {
	event := Event{Type: "bookings_changed", Date: date}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers[date]))
	for sub := range h.subscribers[date] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.send(event); err != nil {
			h.logger.Warn("dropping unreachable subscriber", "date", date, "error", err)
			h.remove(date, sub)
			_ = sub.conn.Close()
		}
	}
}

// SubscriberCount reports how many connections watch a date.
func (h *Hub) SubscriberCount(date string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[date])
}

func (s *subscriber) send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(event)
}

func (h *Hub) add(date string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[date] == nil {
		h.subscribers[date] = make(map[*subscriber]struct{})
	}
	h.subscribers[date][sub] = struct{}{}
}

func (h *Hub) remove(date string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[date], sub)
	if len(h.subscribers[date]) == 0 {
		delete(h.subscribers, date)
	}
}
