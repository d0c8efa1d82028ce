// Package catalog manages the bookable services and their duration options.
// Durations everywhere else in the system are canonical minute values taken
// from this catalog, never invented by callers.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nsaleh/spabook/internal/schedule"
)

// ErrNotFound is returned when a service id is not in the catalog.
var ErrNotFound = errors.New("catalog: service not found")

// ErrInvalid wraps validation failures so the HTTP layer can map them to a
// client error.
var ErrInvalid = errors.New("catalog: invalid")

// DurationOption is one selectable duration for a service. Value is the
// display string stored with bookings ("1 hr", "30 mins"); Minutes is its
// canonical decoded value.
type DurationOption struct {
	Value      string `json:"value"`
	Minutes    int    `json:"minutes"`
	PriceCents int    `json:"price_cents"`
}

// Service is one bookable offering.
type Service struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	DurationOptions []DurationOption `json:"duration_options"`
}

// Validate checks that every duration option's display string decodes to
// its canonical minute value, so the availability codec and the catalog can
// never disagree.
func (s *Service) Validate() error {
	if s.ID == "" || s.Name == "" {
		return fmt.Errorf("%w: service id and name required", ErrInvalid)
	}
	if len(s.DurationOptions) == 0 {
		return fmt.Errorf("%w: service %q needs at least one duration option", ErrInvalid, s.ID)
	}
	for _, opt := range s.DurationOptions {
		minutes, err := schedule.ParseDuration(opt.Value)
		if err != nil {
			return fmt.Errorf("%w: service %q option %q: %v", ErrInvalid, s.ID, opt.Value, err)
		}
		if minutes != opt.Minutes {
			return fmt.Errorf("%w: service %q option %q decodes to %d minutes, not %d", ErrInvalid, s.ID, opt.Value, minutes, opt.Minutes)
		}
		if opt.Minutes <= 0 {
			return fmt.Errorf("%w: service %q option %q must be positive", ErrInvalid, s.ID, opt.Value)
		}
	}
	return nil
}

// Option returns the duration option matching the given minutes.
func (s *Service) Option(minutes int) (DurationOption, bool) {
	for _, opt := range s.DurationOptions {
		if opt.Minutes == minutes {
			return opt, true
		}
	}
	return DurationOption{}, false
}

// DefaultServices seeds a new deployment with the standard menu.
func DefaultServices() []Service {
	return []Service{
		{
			ID:   "massage",
			Name: "Massage",
			DurationOptions: []DurationOption{
				{Value: "30 mins", Minutes: 30, PriceCents: 9000},
				{Value: "1 hr", Minutes: 60, PriceCents: 15000},
				{Value: "1.5 hr", Minutes: 90, PriceCents: 21000},
			},
		},
		{
			ID:   "facial",
			Name: "Facial Treatment",
			DurationOptions: []DurationOption{
				{Value: "45 mins", Minutes: 45, PriceCents: 12000},
				{Value: "1 hr", Minutes: 60, PriceCents: 16000},
			},
		},
		{
			ID:   "hammam",
			Name: "Moroccan Bath",
			DurationOptions: []DurationOption{
				{Value: "1 hr", Minutes: 60, PriceCents: 18000},
				{Value: "2 hr", Minutes: 120, PriceCents: 30000},
			},
		},
	}
}

// Store provides persistence for the service catalog.
type Store struct {
	redis *redis.Client
}

// NewStore creates a catalog store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key() string {
	return "catalog:services"
}

// List returns all services. An empty catalog returns the default menu so a
// fresh deployment is immediately bookable.
func (s *Store) List(ctx context.Context) ([]Service, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return DefaultServices(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}
	var services []Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return services, nil
}

// Get returns one service by id.
func (s *Store) Get(ctx context.Context, id string) (*Service, error) {
	services, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].ID == id {
			return &services[i], nil
		}
	}
	return nil, ErrNotFound
}

// Replace validates and stores the full catalog.
func (s *Store) Replace(ctx context.Context, services []Service) error {
	for i := range services {
		if err := services[i].Validate(); err != nil {
			return err
		}
	}
	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("catalog: save: %w", err)
	}
	return nil
}
