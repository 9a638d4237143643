// Package distance wraps the routing-distance API. Failures never abort
// a booking: an unreachable service scores a partner as infinitely far.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"urbane/globals"
	"urbane/store"
)

// Unreachable is the distance assigned when the routing service cannot
// answer.
var Unreachable = math.Inf(1)

// TokenSource hands out routing-API tokens from the rotating pool in
// the configurations document, refreshing on expiry instead of caching
// one token for the process lifetime.
type TokenSource struct {
	store store.Store
	ttl   time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(st store.Store, ttl time.Duration) *TokenSource {
	return &TokenSource{store: st, ttl: ttl}
}

// Token returns a cached token until it expires, then draws a fresh one
// from the active pool.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expires) {
		return ts.token, nil
	}

	cfg, err := ts.store.DistanceConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("distance config: %w", err)
	}
	if !cfg.Status && !cfg.MapboxStatus {
		return "", fmt.Errorf("distance API disabled")
	}

	active := cfg.MapboxTokens[:0:0]
	for _, t := range cfg.MapboxTokens {
		if t.Active {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return "", fmt.Errorf("no active distance API token")
	}

	ts.token = active[rand.Intn(len(active))].Token
	ts.expires = time.Now().Add(ts.ttl)
	return ts.token, nil
}

// Service resolves driving distance between a partner and a booking
// location.
type Service struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  *TokenSource
	Store   store.Store
}

func New(st store.Store) *Service {
	base := os.Getenv("DISTANCE_API_URL")
	if base == "" {
		base = "https://api.mapbox.com/directions/v5/mapbox/driving"
	}
	return &Service{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
		Tokens:  NewTokenSource(st, 5*time.Minute),
		Store:   st,
	}
}

type routesResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Between returns the driving distance in meters from the partner
// location to the booking location, or Unreachable on any failure.
func (s *Service) Between(ctx context.Context, partnerLat, partnerLng, lat, lng float64) float64 {
	if partnerLat == 0 && partnerLng == 0 {
		return Unreachable
	}

	token, err := s.Tokens.Token(ctx)
	if err != nil {
		log.Printf("distance: token unavailable: %v", err)
		return Unreachable
	}

	url := fmt.Sprintf("%s/%f,%f;%f,%f?access_token=%s&overview=false",
		s.BaseURL, partnerLng, partnerLat, lng, lat, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unreachable
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return Unreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unreachable
	}

	var data routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || len(data.Routes) == 0 {
		return Unreachable
	}

	// hit counters are bookkeeping, never on the request path
	go func() {
		if err := s.Store.BumpDistanceHits(globals.Ctx); err != nil {
			log.Printf("distance: hit counter update failed: %v", err)
		}
	}()

	return data.Routes[0].Distance
}
