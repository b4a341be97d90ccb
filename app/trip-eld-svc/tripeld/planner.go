package tripeld

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

// HOS regulation and daily schedule constants for property-carrying
// drivers on the 70-hour/8-day cycle
const (
	maxDrivingHours   = 11.0
	maxOnDutyHours    = 14.0
	requiredRestHours = 10.0

	preTripStartHour = 6.5  // 6:30 AM pre-trip inspection
	drivingStartHour = 7.0  // 7:00 AM earliest driving
	drivingEndHour   = 17.5 // 5:30 PM latest driving
	sleeperStartHour = 19.0 // 7:00 PM sleeper berth begins
	sleeperEndHour   = 6.5  // 6:30 AM sleeper berth ends

	fuelStopIntervalMiles = 500.0
	avgSpeedMPH           = 60.0

	pickupDurationHours   = 0.5
	dropoffDurationHours  = 0.5
	waypointDurationHours = 0.5
	fuelDurationHours     = 0.5
	breakDurationHours    = 0.5

	preferredBreakHour = 14.0
	breakTriggerHours  = 8.0
)

// LocationNamer resolves coordinates to a human readable place name
type LocationNamer interface {
	LocationName(ctx context.Context, lat, lon float64) string
}

// hourOfDay returns hour + minute/60 for a timestamp. Seconds are ignored,
// matching the resolution of planned stop times.
func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// atHour returns the same calendar day at the given fractional hour
func atHour(t time.Time, hour float64) time.Time {
	h := int(hour)
	m := int((hour - float64(h)) * 60)
	return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, t.Location())
}

// addHours advances a timestamp by a fractional number of hours
func addHours(t time.Time, hours float64) time.Time {
	return t.Add(time.Duration(hours * float64(time.Hour)))
}

// hoursUntilEndOfDrivingDay returns how much of the driving window remains
func hoursUntilEndOfDrivingDay(t time.Time) float64 {
	hour := hourOfDay(t)
	if hour >= drivingEndHour {
		return 0
	}
	return drivingEndHour - hour
}

// withinDrivingHours reports whether a timestamp falls in the daily
// driving window
func withinDrivingHours(t time.Time) bool {
	hour := hourOfDay(t)
	return hour >= drivingStartHour && hour <= drivingEndHour
}

// nextDrivingStart clamps a timestamp to the next valid driving start
func nextDrivingStart(t time.Time) time.Time {
	hour := hourOfDay(t)
	if hour < drivingStartHour {
		return atHour(t, drivingStartHour)
	}
	if hour >= drivingEndHour {
		return atHour(t.AddDate(0, 0, 1), drivingStartHour)
	}
	return t
}

// driveWithClamp advances a timestamp by the given driving hours, spilling
// time past the end of each driving day into the next day's window
func driveWithClamp(t time.Time, hours float64) time.Time {
	if hours <= 0 {
		return t
	}
	t = nextDrivingStart(t)
	for {
		remaining := hoursUntilEndOfDrivingDay(t)
		if hours <= remaining {
			return addHours(t, hours)
		}
		hours -= remaining
		t = atHour(t.AddDate(0, 0, 1), drivingStartHour)
	}
}

// alignBreakTime nudges a break that lands between noon and the preferred
// break hour to 2:00 PM. Breaks already past the preferred hour keep their
// time.
func alignBreakTime(t time.Time) time.Time {
	hour := hourOfDay(t)
	if hour > preferredBreakHour {
		return t
	}
	if hour >= 12.0 && hour < preferredBreakHour {
		target := atHour(t, preferredBreakHour)
		if withinDrivingHours(target) {
			return target
		}
	}
	return t
}

// formatStopDuration renders a stop duration for display
func formatStopDuration(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%d minutes", int(math.Round(hours*60)))
	}
	return fmt.Sprintf("%.1f hours", hours)
}

// stopPlanner carries the state of a single planning run
type stopPlanner struct {
	route     *trip.Route
	locations []trip.Location
	namer     LocationNamer

	now             time.Time
	positionMiles   float64
	milesSinceFuel  float64
	hoursSinceBreak float64
	daysOnRoad      int

	stops []trip.Stop
}

// planStops produces the ordered stop list for a trip, obeying HOS driving,
// break and rest constraints. locations[0] is the origin, locations[1] the
// pickup, the last entry the dropoff and any others waypoints.
// cycleUsedHours preloads the continuous-driving counter so drivers already
// deep into their cycle break earlier. The planner never fails on valid
// numeric input.
func planStops(ctx context.Context, route *trip.Route, locations []trip.Location,
	startTime time.Time, cycleUsedHours float64, namer LocationNamer) []trip.Stop {

	p := stopPlanner{
		route:           route,
		locations:       locations,
		namer:           namer,
		now:             startTime,
		hoursSinceBreak: cycleUsedHours,
	}

	originCoord := locations[0].Coord()
	p.emit(trip.StopTypeStart, "Starting Location", originCoord, "0 hours", p.now)

	// midnight to 6:30 AM on the first day is off-duty, not sleeper berth
	if hour := hourOfDay(p.now); hour < sleeperEndHour {
		p.emit(trip.StopTypeOffDuty, "Early Morning Rest (Off-Duty)", originCoord,
			formatStopDuration(sleeperEndHour-hour), p.now)
		p.now = atHour(p.now, sleeperEndHour)
	}

	if hour := hourOfDay(p.now); hour >= preTripStartHour && hour < drivingStartHour {
		p.emit(trip.StopTypePreTrip, "Pre-trip Inspection", originCoord,
			formatStopDuration(drivingStartHour-preTripStartHour), p.now)
		p.now = addHours(p.now, drivingStartHour-hour)
	}

	// a start after the driving window rests overnight at the origin and
	// begins driving the next morning
	if hourOfDay(p.now) >= drivingEndHour {
		p.endDrivingDay()
	} else {
		p.now = nextDrivingStart(p.now)
	}

	totalMiles := route.Distance
	for i := 1; i < len(locations); i++ {
		targetMiles := totalMiles * float64(i) / float64(len(locations)-1)
		p.driveTo(targetMiles)
		p.emitLegStop(ctx, i)
	}

	sort.SliceStable(p.stops, func(a, b int) bool {
		return p.stops[a].EstimatedArrival.Before(p.stops[b].EstimatedArrival.Time)
	})
	return p.stops
}

// emit appends a stop
func (p *stopPlanner) emit(stopType trip.StopType, name string, coord trip.Coord,
	duration string, arrival time.Time) {
	p.stops = append(p.stops, trip.Stop{
		Type:             stopType,
		Name:             name,
		Coordinates:      coord,
		Duration:         duration,
		EstimatedArrival: trip.MakeLocalTime(arrival),
	})
}

// currentCoord interpolates the route at the planner's current mileage.
// Degenerate routes fall back to the route start.
func (p *stopPlanner) currentCoord() trip.Coord {
	fraction := 0.0
	if p.route.Distance > 0 {
		fraction = p.positionMiles / p.route.Distance
	}
	return p.route.Interpolate(fraction)
}

// driveTo advances the plan to the target trip mileage, inserting breaks,
// fuel stops and overnight rests as HOS rules and the daily driving window
// require
func (p *stopPlanner) driveTo(targetMiles float64) {
	remainingDrive := (targetMiles - p.positionMiles) / avgSpeedMPH

	for remainingDrive > 1e-9 {
		// past the driving window: park for the night
		if hoursUntilEndOfDrivingDay(p.now) <= 0 {
			p.endDrivingDay()
			continue
		}

		// 30-minute break after 8 cumulative driving hours
		if p.hoursSinceBreak >= breakTriggerHours {
			p.takeBreak("30-Minute Break")
			continue
		}

		drivable := math.Min(remainingDrive, hoursUntilEndOfDrivingDay(p.now))
		drivable = math.Min(drivable, breakTriggerHours-p.hoursSinceBreak)
		if drivable <= 0 {
			p.takeBreak("30-Minute Break (Required)")
			continue
		}

		// fuel runs out before this driving window ends
		milesToFuel := fuelStopIntervalMiles - p.milesSinceFuel
		if drivable*avgSpeedMPH >= milesToFuel && milesToFuel > 0 {
			hoursToFuel := milesToFuel / avgSpeedMPH
			p.positionMiles += milesToFuel
			arrival := driveWithClamp(p.now, hoursToFuel)
			p.emit(trip.StopTypeFuel, "Fuel Stop", p.currentCoord(),
				formatStopDuration(fuelDurationHours), arrival)
			p.now = addHours(arrival, fuelDurationHours)
			p.milesSinceFuel = 0
			p.hoursSinceBreak += hoursToFuel
			remainingDrive -= hoursToFuel
			if p.hoursSinceBreak >= breakTriggerHours-1 {
				p.takeBreak("30-Minute Break")
			}
			continue
		}

		// break would interrupt this window: drive up to the trigger, rest
		if p.hoursSinceBreak+drivable >= breakTriggerHours && breakTriggerHours-p.hoursSinceBreak > 0 {
			hoursBeforeBreak := breakTriggerHours - p.hoursSinceBreak
			p.positionMiles += hoursBeforeBreak * avgSpeedMPH
			p.milesSinceFuel += hoursBeforeBreak * avgSpeedMPH
			arrival := driveWithClamp(p.now, hoursBeforeBreak)
			breakTime := alignBreakTime(arrival)
			p.emit(trip.StopTypeRest, "30-Minute Break", p.currentCoord(),
				formatStopDuration(breakDurationHours), breakTime)
			p.now = addHours(breakTime, breakDurationHours)
			p.hoursSinceBreak = 0
			remainingDrive -= hoursBeforeBreak
			continue
		}

		// drive out the window
		p.positionMiles += drivable * avgSpeedMPH
		p.milesSinceFuel += drivable * avgSpeedMPH
		p.now = driveWithClamp(p.now, drivable)
		remainingDrive -= drivable
		p.hoursSinceBreak += drivable

		if hoursUntilEndOfDrivingDay(p.now) <= 0 && remainingDrive > 1e-9 {
			p.endDrivingDay()
		}
	}
}

// takeBreak emits a 30-minute rest at the current position, aligned toward
// the preferred afternoon break hour
func (p *stopPlanner) takeBreak(name string) {
	breakTime := alignBreakTime(p.now)
	p.emit(trip.StopTypeRest, name, p.currentCoord(),
		formatStopDuration(breakDurationHours), breakTime)
	p.hoursSinceBreak = 0
	p.now = addHours(breakTime, breakDurationHours)
}

// endDrivingDay closes out the day: off-duty until the sleeper window,
// a 10-hour overnight rest, and sleeper-berth coverage into the next
// morning when the rest ends before 6:30 AM
func (p *stopPlanner) endDrivingDay() {
	coord := p.currentCoord()

	if hour := hourOfDay(p.now); hour >= drivingEndHour && hour < sleeperStartHour {
		p.emit(trip.StopTypeOffDuty, "End of Driving Day", coord,
			formatStopDuration(sleeperStartHour-hour), p.now)
		p.now = atHour(p.now, sleeperStartHour)
	}

	p.emit(trip.StopTypeOvernight, "Required 10-Hour Rest", coord,
		formatStopDuration(requiredRestHours), p.now)
	p.now = addHours(p.now, requiredRestHours)

	if hour := hourOfDay(p.now); hour < sleeperEndHour {
		p.emit(trip.StopTypeOvernight, "Early Morning Rest (Sleeper Berth)", coord,
			formatStopDuration(sleeperEndHour-hour), p.now)
		p.now = atHour(p.now, sleeperEndHour)
	}

	p.now = nextDrivingStart(p.now)
	p.hoursSinceBreak = 0
	p.daysOnRoad++
}

// emitLegStop records arrival at the i-th trip location and advances time
// past the stop's standard duration
func (p *stopPlanner) emitLegStop(ctx context.Context, i int) {
	stopType := trip.StopTypeWaypoint
	duration := waypointDurationHours
	title := "Waypoint"
	switch {
	case i == 1:
		stopType = trip.StopTypePickup
		duration = pickupDurationHours
		title = "Pickup"
	case i == len(p.locations)-1:
		stopType = trip.StopTypeDropoff
		duration = dropoffDurationHours
		title = "Dropoff"
	}

	coord := p.locations[i].Coord()
	name := title + " Location"
	if p.namer != nil {
		name = fmt.Sprintf("%s at %s", title, p.namer.LocationName(ctx, coord.Lat(), coord.Lng()))
	}

	p.emit(stopType, name, coord, formatStopDuration(duration), p.now)
	p.now = addHours(p.now, duration)
}
