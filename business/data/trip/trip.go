// Package trip provides the domain model for planned trips and generated ELD daily logs
package trip

import (
	"fmt"
	"time"
)

// Location is a WGS84 point as received from clients
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coord is a [longitude, latitude] pair following the GeoJSON convention.
// All stop and polyline coordinates use this order; Location is the only
// place the lat/lng order is swapped.
type Coord [2]float64

// MakeCoord builds a Coord from longitude and latitude
func MakeCoord(lng, lat float64) Coord {
	return Coord{lng, lat}
}

// Lng returns the longitude component
func (c Coord) Lng() float64 {
	return c[0]
}

// Lat returns the latitude component
func (c Coord) Lat() float64 {
	return c[1]
}

// Coord returns the GeoJSON ordered pair for a Location
func (l Location) Coord() Coord {
	return Coord{l.Lng, l.Lat}
}

const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a timestamp that marshals as an ISO-8601 local time without
// a zone offset, matching the wire format of stop arrivals and log times
type LocalTime struct {
	time.Time
}

// MakeLocalTime wraps a time.Time
func MakeLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: t}
}

// MarshalJSON implements json.Marshaler
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(localTimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid local time %s", s)
	}
	parsed, err := time.ParseInLocation(localTimeLayout, s[1:len(s)-1], time.Local)
	if err != nil {
		return fmt.Errorf("parsing local time: %w", err)
	}
	t.Time = parsed
	return nil
}

// HourOfDay returns the fractional hour-of-day, hour + minute/60.
// Seconds are deliberately ignored so tolerance checks against planned
// stop hours behave the same as the log assembler's own arithmetic.
func (t LocalTime) HourOfDay() float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// StopType identifies the kind of a planned stop
type StopType string

const (
	StopTypeStart     StopType = "start"
	StopTypeOffDuty   StopType = "off-duty"
	StopTypePreTrip   StopType = "pretrip"
	StopTypeFuel      StopType = "fuel"
	StopTypeRest      StopType = "rest"
	StopTypeOvernight StopType = "overnight"
	StopTypePickup    StopType = "pickup"
	StopTypeWaypoint  StopType = "waypoint"
	StopTypeDropoff   StopType = "dropoff"
)

// Stop is a single planned stop along the trip. Stops are immutable once
// planned; the planner emits them sorted ascending by EstimatedArrival.
type Stop struct {
	Type             StopType  `json:"type"`
	Name             string    `json:"name"`
	Coordinates      Coord     `json:"coordinates"`
	Duration         string    `json:"duration"`
	EstimatedArrival LocalTime `json:"estimatedArrival"`
}

// Plan is the aggregate result returned for a planned trip
type Plan struct {
	Coordinates   []Coord         `json:"coordinates"`
	Stops         []Stop          `json:"stops"`
	TotalDistance float64         `json:"totalDistance"`
	TotalDuration float64         `json:"totalDuration"`
	EldLogs       []DailyLogSheet `json:"eldLogs"`
}
