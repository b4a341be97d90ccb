package trip

import (
	"errors"
	"math"
)

// metersToMiles converts route distances reported by the routing service
const metersToMiles = 0.000621371

// Leg is one origin-to-destination section of a multi-stop route as
// returned by the routing service, before combination
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
	Coordinates     []Coord
}

// Route is the combined multi-leg driving route for a trip
type Route struct {
	// Coordinates is the full polyline. The first vertex of legs 2..n is
	// elided to avoid duplicate points at leg joins.
	Coordinates []Coord
	// Distance is the total driving distance in miles
	Distance float64
	// Duration is the total driving duration in seconds as reported by the
	// routing service. The planner uses its own constant speed instead.
	Duration float64
	// PickupCoord is the last vertex of the first leg
	PickupCoord Coord
	// DropoffCoord is the last vertex of the final leg
	DropoffCoord Coord
}

// CombineLegs concatenates per-leg routes into a single Route.
// Legs without geometry are skipped.
func CombineLegs(legs []Leg) (*Route, error) {
	if len(legs) == 0 {
		return nil, errors.New("at least one route leg is required")
	}

	route := Route{}
	first := true
	for _, leg := range legs {
		if len(leg.Coordinates) == 0 {
			continue
		}
		route.Distance += leg.DistanceMeters * metersToMiles
		route.Duration += leg.DurationSeconds
		if first {
			route.Coordinates = append(route.Coordinates, leg.Coordinates...)
			first = false
		} else {
			route.Coordinates = append(route.Coordinates, leg.Coordinates[1:]...)
		}
	}
	if len(route.Coordinates) == 0 {
		return nil, errors.New("route legs contain no coordinates")
	}

	if len(legs[0].Coordinates) > 0 {
		route.PickupCoord = legs[0].Coordinates[len(legs[0].Coordinates)-1]
	}
	lastLeg := legs[len(legs)-1]
	if len(lastLeg.Coordinates) > 0 {
		route.DropoffCoord = lastLeg.Coordinates[len(lastLeg.Coordinates)-1]
	}
	return &route, nil
}

// Interpolate returns the polyline vertex at fractional progress p along
// the route. p is clamped to [0,1] and the resulting index to the valid
// vertex range, so degenerate inputs always produce a usable coordinate.
func (r *Route) Interpolate(p float64) Coord {
	if len(r.Coordinates) == 0 {
		return Coord{}
	}
	p = math.Max(0, math.Min(1, p))
	index := int(math.Floor(p * float64(len(r.Coordinates))))
	if index > len(r.Coordinates)-1 {
		index = len(r.Coordinates) - 1
	}
	if index < 0 {
		index = 0
	}
	return r.Coordinates[index]
}
