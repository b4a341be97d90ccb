// Package geocode resolves coordinates to human readable place names using
// a Nominatim style reverse geocoding service
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	logger "log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fallbackCities are used when the geocoding service cannot be reached
var fallbackCities = []string{
	"Chicago, IL", "Houston, TX", "Phoenix, AZ", "Philadelphia, PA", "San Antonio, TX",
	"San Diego, CA", "Dallas, TX", "San Jose, CA", "Austin, TX", "Jacksonville, FL",
	"Fort Worth, TX", "Columbus, OH", "Charlotte, NC", "Indianapolis, IN", "San Francisco, CA",
	"Seattle, WA", "Denver, CO", "Boston, MA", "Nashville, TN", "Portland, OR",
	"Las Vegas, NV", "Detroit, MI", "Memphis, TN", "Louisville, KY", "Milwaukee, WI",
}

const nameCacheSize = 256

// Config holds the required properties to use the geocoding service
type Config struct {
	// BaseURL of the Nominatim style service
	BaseURL string
	// CacheDir receives one JSON file per cache key
	CacheDir string
	// UserAgent sent with every request per the Nominatim usage policy
	UserAgent string
	// Timeout bounds each reverse lookup
	Timeout time.Duration
	// MinRequestInterval enforces the service's rate limit. Nominatim asks
	// for at most 1 request per second.
	MinRequestInterval time.Duration
}

// Resolver performs reverse geocoding lookups with an in-memory LRU in
// front of a best-effort disk cache. Lookups never fail: any error falls
// back to a random city name.
type Resolver struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client

	nameCache *lru.Cache[string, string]

	// mu guards rnd and the request throttle
	mu          sync.Mutex
	rnd         *rand.Rand
	lastRequest time.Time
}

// NewResolver creates a Resolver. rnd supplies fallback city selection so
// callers can seed it for reproducible output.
func NewResolver(log *logger.Logger, cfg Config, rnd *rand.Rand) (*Resolver, error) {
	nameCache, err := lru.New[string, string](nameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating geocode name cache: %w", err)
	}
	if cfg.CacheDir != "" {
		if err = os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			log.Printf("geocode: unable to create cache directory %s, continuing without disk cache: %v",
				cfg.CacheDir, err)
		}
	}
	return &Resolver{
		log:        log,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		nameCache:  nameCache,
		rnd:        rnd,
	}, nil
}

// LocationName resolves latitude and longitude to a place name
func (r *Resolver) LocationName(ctx context.Context, lat, lon float64) string {
	key := cacheKey(lat, lon)
	if name, ok := r.nameCache.Get(key); ok {
		return name
	}
	if name, ok := r.readCacheFile(key); ok {
		r.nameCache.Add(key, name)
		return name
	}

	name := r.lookup(ctx, lat, lon)
	r.nameCache.Add(key, name)
	r.writeCacheFile(key, name)
	return name
}

// cacheKey rounds coordinates to 5 decimal places, about one meter of
// precision, so nearby lookups share an entry
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.5f_%.5f", lat, lon)
}

// cachedName is the on-disk cache file format
type cachedName struct {
	Name string `json:"name"`
}

// readCacheFile attempts to load a previously cached name. Failures are
// treated as a cache miss.
func (r *Resolver) readCacheFile(key string) (string, bool) {
	if r.cfg.CacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(r.cfg.CacheDir, key+".json"))
	if err != nil {
		return "", false
	}
	var cached cachedName
	if err = json.Unmarshal(data, &cached); err != nil || cached.Name == "" {
		return "", false
	}
	return cached.Name, true
}

// writeCacheFile persists a resolved name. Best effort: concurrent writers
// to the same key race but values are reproducible, so last writer wins.
func (r *Resolver) writeCacheFile(key string, name string) {
	if r.cfg.CacheDir == "" {
		return
	}
	data, err := json.Marshal(cachedName{Name: name})
	if err != nil {
		return
	}
	if err = os.WriteFile(filepath.Join(r.cfg.CacheDir, key+".json"), data, 0o644); err != nil {
		r.log.Printf("geocode: unable to write cache file for %s: %v", key, err)
	}
}

// reverseResponse is the subset of the Nominatim reverse response we use
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		Road    string `json:"road"`
		State   string `json:"state"`
	} `json:"address"`
}

// lookup performs the reverse geocoding request, honoring the throttle.
// Any failure logs a warning and returns a random fallback city.
func (r *Resolver) lookup(ctx context.Context, lat, lon float64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	fallback := fallbackCities[r.rnd.Intn(len(fallbackCities))]

	if wait := r.cfg.MinRequestInterval - time.Since(r.lastRequest); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return fallback
		}
	}
	r.lastRequest = time.Now()

	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json", r.cfg.BaseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.log.Printf("geocode: unable to build reverse request: %v", err)
		return fallback
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Printf("geocode: error getting location name: %v", err)
		return fallback
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var reverse reverseResponse
	if err = json.NewDecoder(resp.Body).Decode(&reverse); err != nil {
		r.log.Printf("geocode: error decoding reverse response: %v", err)
		return fallback
	}
	return buildLocationName(reverse, fallback)
}

// buildLocationName constructs a place name from whichever address parts
// are available, preferring city over town over village, then county and
// road, then the full display name
func buildLocationName(reverse reverseResponse, fallback string) string {
	addr := reverse.Address
	settlement := addr.City
	if settlement == "" {
		settlement = addr.Town
	}
	if settlement == "" {
		settlement = addr.Village
	}
	switch {
	case settlement != "" && addr.State != "":
		return settlement + ", " + addr.State
	case settlement != "":
		return settlement
	case addr.County != "" && addr.State != "":
		return addr.County + ", " + addr.State
	case addr.Road != "" && addr.State != "":
		return addr.Road + ", " + addr.State
	case reverse.DisplayName != "":
		return reverse.DisplayName
	}
	return fallback
}
