package tripeld

import (
	"context"
	"errors"
	"fmt"
	logger "log"
	"math/rand"
	"time"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

// ErrInvalidLocations indicates the request is missing coordinates
var ErrInvalidLocations = errors.New("missing or invalid coordinates in trip data")

// legFetcher retrieves one driving route leg
type legFetcher interface {
	fetchLeg(ctx context.Context, origin, destination trip.Location) trip.Leg
}

// Planner sequences route fetching, HOS stop planning and daily log
// assembly for a trip request
type Planner struct {
	log    *logger.Logger
	routes legFetcher
	namer  LocationNamer
	rnd    *rand.Rand

	// now supplies the planning clock, overridable in tests
	now func() time.Time
}

// MakePlanner builds a Planner. namer may be nil, in which case stops fall
// back to generic location names. rnd seeds every randomized output of the
// plan (mock routes, bookkeeping fields) so a fixed seed reproduces
// byte-identical results.
func MakePlanner(log *logger.Logger, routingURL string, routingTimeout time.Duration,
	namer LocationNamer, rnd *rand.Rand) *Planner {
	return &Planner{
		log:    log,
		routes: makeRouteClient(log, routingURL, routingTimeout, rnd),
		namer:  namer,
		rnd:    rnd,
		now:    time.Now,
	}
}

// PlanTrip computes the multi-leg route, the HOS-conforming stop list and
// the per-day ELD logs for the given locations. locations[0] is the
// current position, locations[1] the pickup, the last entry the dropoff.
// Planning starts today at 6:00 AM local time.
func (p *Planner) PlanTrip(ctx context.Context, locations []trip.Location,
	cycleUsedHours float64) (*trip.Plan, error) {

	if len(locations) < 2 {
		return nil, fmt.Errorf("at least 2 locations are required for a route")
	}

	legs := make([]trip.Leg, 0, len(locations)-1)
	for i := 0; i < len(locations)-1; i++ {
		legs = append(legs, p.routes.fetchLeg(ctx, locations[i], locations[i+1]))
	}
	route, err := trip.CombineLegs(legs)
	if err != nil {
		return nil, fmt.Errorf("combining route legs: %w", err)
	}

	today := p.now()
	startTime := time.Date(today.Year(), today.Month(), today.Day(), 6, 0, 0, 0, today.Location())

	stops := planStops(ctx, route, locations, startTime, cycleUsedHours, p.namer)

	assembler := makeLogAssembler(p.log, p.namer, p.rnd)
	eldLogs := assembler.generateDailyLogs(ctx, stops, 0)

	return &trip.Plan{
		Coordinates:   route.Coordinates,
		Stops:         stops,
		TotalDistance: route.Distance,
		TotalDuration: route.Duration,
		EldLogs:       eldLogs,
	}, nil
}
