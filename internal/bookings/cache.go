package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore caches computed day schedules in Redis. Every snapshot of a
// date lives in one hash keyed by date (field = requested duration), so an
// invalidation after a booking write is a single DEL.
type SnapshotStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnapshotStore creates a snapshot cache with the given TTL.
func NewSnapshotStore(redisClient *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{redis: redisClient, ttl: ttl}
}

func (s *SnapshotStore) key(date string) string {
	return "availability:" + date
}

// Get returns the cached schedule for a date/duration pair, or ok=false on
// a miss. Cache errors degrade to a miss — availability must keep working
// when Redis is down.
func (s *SnapshotStore) Get(ctx context.Context, date string, durationMinutes int) (*DaySchedule, bool) {
	if s == nil || s.redis == nil {
		return nil, false
	}
	data, err := s.redis.HGet(ctx, s.key(date), strconv.Itoa(durationMinutes)).Bytes()
	if err != nil {
		return nil, false
	}
	var snap DaySchedule
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// Set stores a computed schedule and refreshes the date's TTL.
func (s *SnapshotStore) Set(ctx context.Context, snap *DaySchedule) error {
	if s == nil || s.redis == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("bookings: marshal snapshot: %w", err)
	}
	key := s.key(snap.Date)
	if err := s.redis.HSet(ctx, key, strconv.Itoa(snap.DurationMinutes), data).Err(); err != nil {
		return fmt.Errorf("bookings: cache snapshot: %w", err)
	}
	if err := s.redis.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("bookings: snapshot ttl: %w", err)
	}
	return nil
}

// InvalidateDate drops every cached snapshot of a date. Called on each
// booking change notification for that date.
func (s *SnapshotStore) InvalidateDate(ctx context.Context, date string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(date)).Err(); err != nil {
		return fmt.Errorf("bookings: invalidate snapshot: %w", err)
	}
	return nil
}
