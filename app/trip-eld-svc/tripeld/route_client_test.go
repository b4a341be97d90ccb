package tripeld

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

const testRouteResponse = `{
  "code": "Ok",
  "routes": [
    {
      "distance": 16093.4,
      "duration": 1200,
      "geometry": {
        "coordinates": [[-118.2, 34.0], [-118.1, 34.05], [-118.0, 34.1]]
      }
    }
  ]
}`

func Test_routeClient_fetchLeg(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		_, _ = w.Write([]byte(testRouteResponse))
	}))
	defer server.Close()

	client := makeRouteClient(testLogger(), server.URL, time.Second, rand.New(rand.NewSource(1)))
	leg := client.fetchLeg(context.Background(),
		trip.Location{Lat: 34.0, Lng: -118.2}, trip.Location{Lat: 34.1, Lng: -118.0})

	if !strings.HasPrefix(requestedPath, "/route/v1/driving/") {
		t.Errorf("request path = %q, want a /route/v1/driving/ request", requestedPath)
	}
	if leg.DistanceMeters != 16093.4 {
		t.Errorf("leg distance = %v, want 16093.4", leg.DistanceMeters)
	}
	if leg.DurationSeconds != 1200 {
		t.Errorf("leg duration = %v, want 1200", leg.DurationSeconds)
	}
	if len(leg.Coordinates) != 3 {
		t.Fatalf("leg has %d coordinates, want 3", len(leg.Coordinates))
	}
	if leg.Coordinates[0] != trip.MakeCoord(-118.2, 34.0) {
		t.Errorf("first coordinate = %v, want [-118.2 34]", leg.Coordinates[0])
	}
}

func Test_routeClient_fetchLeg_fallsBackToMock(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "no route found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
			},
		},
		{
			name: "unparsable response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	origin := trip.Location{Lat: 34.0, Lng: -118.2}
	destination := trip.Location{Lat: 36.1, Lng: -115.1}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := makeRouteClient(testLogger(), server.URL, time.Second, rand.New(rand.NewSource(1)))
			leg := client.fetchLeg(context.Background(), origin, destination)

			if len(leg.Coordinates) != mockRoutePoints {
				t.Fatalf("mock leg has %d coordinates, want %d", len(leg.Coordinates), mockRoutePoints)
			}
			if leg.Coordinates[0] != origin.Coord() {
				t.Errorf("mock leg starts at %v, want %v", leg.Coordinates[0], origin.Coord())
			}
			if leg.Coordinates[mockRoutePoints-1] != destination.Coord() {
				t.Errorf("mock leg ends at %v, want %v",
					leg.Coordinates[mockRoutePoints-1], destination.Coord())
			}

			wantMeters := haversineKm(origin.Lat, origin.Lng, destination.Lat, destination.Lng) *
				1000 * mockDetourFactor
			if math.Abs(leg.DistanceMeters-wantMeters) > 1 {
				t.Errorf("mock leg distance = %v meters, want %v", leg.DistanceMeters, wantMeters)
			}
			if leg.DurationSeconds <= 0 {
				t.Errorf("mock leg duration = %v, want a positive duration", leg.DurationSeconds)
			}
		})
	}
}

func Test_routeClient_mockLeg_jitterStaysNearTheLine(t *testing.T) {
	client := makeRouteClient(testLogger(), "http://example.invalid", time.Second,
		rand.New(rand.NewSource(7)))

	origin := trip.Location{Lat: 34.0, Lng: -118.2}
	destination := trip.Location{Lat: 36.1, Lng: -115.1}
	leg := client.mockLeg(origin, destination)

	for i, coord := range leg.Coordinates {
		progress := float64(i) / float64(mockRoutePoints-1)
		lineLat := origin.Lat + (destination.Lat-origin.Lat)*progress
		lineLng := origin.Lng + (destination.Lng-origin.Lng)*progress
		if math.Abs(coord.Lat()-lineLat) > 0.011 || math.Abs(coord.Lng()-lineLng) > 0.011 {
			t.Errorf("vertex %d at %v wandered more than the jitter bound from (%v, %v)",
				i, coord, lineLat, lineLng)
		}
	}
}

func Test_routeClient_mockLeg_samePoint(t *testing.T) {
	client := makeRouteClient(testLogger(), "http://example.invalid", time.Second,
		rand.New(rand.NewSource(1)))

	point := trip.Location{Lat: 34.0, Lng: -118.2}
	leg := client.mockLeg(point, point)

	// distance is clamped to a tenth of a kilometer before the detour factor
	want := 0.1 * 1000 * mockDetourFactor
	if math.Abs(leg.DistanceMeters-want) > 0.001 {
		t.Errorf("same-point mock leg distance = %v meters, want %v", leg.DistanceMeters, want)
	}
	if len(leg.Coordinates) != mockRoutePoints {
		t.Errorf("same-point mock leg has %d coordinates, want %d", len(leg.Coordinates), mockRoutePoints)
	}
}

func Test_haversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 34.0, -118.2, 34.0, -118.2, 0, 0.001},
		{"los angeles to las vegas", 34.0522, -118.2437, 36.1699, -115.1398, 367, 5},
		{"one degree of latitude", 40.0, -100.0, 41.0, -100.0, 111.2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("haversineKm() = %v, want %v within %v", got, tt.want, tt.tolerance)
			}
		})
	}
}
