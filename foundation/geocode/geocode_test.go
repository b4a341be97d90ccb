package geocode

import (
	"context"
	"encoding/json"
	"io"
	logger "log"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, "", 0)
}

func makeTestResolver(t *testing.T, cfg Config) *Resolver {
	t.Helper()
	resolver, err := NewResolver(testLogger(), cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewResolver() unexpected error: %v", err)
	}
	return resolver
}

func Test_cacheKey(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"rounds to five decimals", 34.052235, -118.243683, "34.05224_-118.24368"},
		{"nearby points share a key", 34.052236, -118.243684, "34.05224_-118.24368"},
		{"zero", 0, 0, "0.00000_0.00000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheKey(tt.lat, tt.lon); got != tt.want {
				t.Errorf("cacheKey(%v, %v) = %q, want %q", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func Test_buildLocationName(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "city and state",
			response: `{"address":{"city":"Springfield","state":"Illinois"}}`,
			want:     "Springfield, Illinois",
		},
		{
			name:     "town stands in for city",
			response: `{"address":{"town":"Barstow","state":"California"}}`,
			want:     "Barstow, California",
		},
		{
			name:     "settlement without a state",
			response: `{"address":{"village":"Amboy"}}`,
			want:     "Amboy",
		},
		{
			name:     "county and state",
			response: `{"address":{"county":"San Bernardino County","state":"California"}}`,
			want:     "San Bernardino County, California",
		},
		{
			name:     "road and state",
			response: `{"address":{"road":"Route 66","state":"California"}}`,
			want:     "Route 66, California",
		},
		{
			name:     "display name as a last resort",
			response: `{"display_name":"Mojave National Preserve","address":{}}`,
			want:     "Mojave National Preserve",
		},
		{
			name:     "nothing usable falls back",
			response: `{}`,
			want:     "Dallas, TX",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reverse reverseResponse
			if err := json.Unmarshal([]byte(tt.response), &reverse); err != nil {
				t.Fatalf("unmarshaling fixture: %v", err)
			}
			if got := buildLocationName(reverse, "Dallas, TX"); got != tt.want {
				t.Errorf("buildLocationName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_Resolver_LocationName(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.Header.Get("User-Agent"); got != "tripcast-test/1.0" {
			t.Errorf("User-Agent = %q, want tripcast-test/1.0", got)
		}
		_, _ = w.Write([]byte(`{"address":{"city":"Springfield","state":"Illinois"}}`))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	resolver := makeTestResolver(t, Config{
		BaseURL:   server.URL,
		CacheDir:  cacheDir,
		UserAgent: "tripcast-test/1.0",
		Timeout:   time.Second,
	})

	name := resolver.LocationName(context.Background(), 39.8, -89.65)
	if name != "Springfield, Illinois" {
		t.Fatalf("LocationName() = %q, want %q", name, "Springfield, Illinois")
	}
	if requests != 1 {
		t.Errorf("made %d requests, want 1", requests)
	}

	// the memory cache answers the repeat lookup
	name = resolver.LocationName(context.Background(), 39.8, -89.65)
	if name != "Springfield, Illinois" {
		t.Errorf("cached LocationName() = %q, want %q", name, "Springfield, Illinois")
	}
	if requests != 1 {
		t.Errorf("repeat lookup made %d requests, want 1", requests)
	}

	// the name was persisted to disk
	cacheFile := filepath.Join(cacheDir, cacheKey(39.8, -89.65)+".json")
	if _, err := os.Stat(cacheFile); err != nil {
		t.Errorf("cache file %s was not written: %v", cacheFile, err)
	}

	// a fresh resolver with no working service answers from the disk cache
	offline := makeTestResolver(t, Config{
		BaseURL:   "http://127.0.0.1:1",
		CacheDir:  cacheDir,
		UserAgent: "tripcast-test/1.0",
		Timeout:   100 * time.Millisecond,
	})
	name = offline.LocationName(context.Background(), 39.8, -89.65)
	if name != "Springfield, Illinois" {
		t.Errorf("disk cached LocationName() = %q, want %q", name, "Springfield, Illinois")
	}
}

func Test_Resolver_LocationName_fallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	resolver := makeTestResolver(t, Config{
		BaseURL:   server.URL,
		UserAgent: "tripcast-test/1.0",
		Timeout:   time.Second,
	})

	name := resolver.LocationName(context.Background(), 34.0, -118.2)
	found := false
	for _, city := range fallbackCities {
		if name == city {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("LocationName() on failure = %q, want one of the fallback cities", name)
	}
}

func Test_Resolver_LocationName_honorsCanceledContext(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"address":{"city":"Springfield","state":"Illinois"}}`))
	}))
	defer server.Close()

	resolver := makeTestResolver(t, Config{
		BaseURL:            server.URL,
		UserAgent:          "tripcast-test/1.0",
		Timeout:            time.Second,
		MinRequestInterval: time.Minute,
	})

	// first lookup goes through and arms the throttle
	resolver.LocationName(context.Background(), 39.8, -89.65)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	name := resolver.LocationName(ctx, 40.7, -74.0)

	if requests != 1 {
		t.Errorf("canceled lookup still made a request")
	}
	found := false
	for _, city := range fallbackCities {
		if name == city {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("canceled LocationName() = %q, want one of the fallback cities", name)
	}
}
