package tripeld

import (
	"context"
	"fmt"
	logger "log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

const (
	// duty status writes within this tolerance overwrite the prior value
	duplicateHourTolerance = 0.001
	// coarse tolerance for checking whether a schedule hour is covered
	coverageHourTolerance = 0.01
)

const dateLayout = "2006-01-02"

var plateStates = []string{"CA", "TX", "NY", "FL"}
var shipperNames = []string{"ABC", "XYZ", "Global", "National"}
var commodities = []string{"Electronics", "Produce", "Furniture", "Machinery"}

// logAssembler folds a planned stop list into per-day ELD log sheets.
// All randomized bookkeeping draws from rnd so a seeded source reproduces
// identical sheets.
type logAssembler struct {
	log   *logger.Logger
	namer LocationNamer
	rnd   *rand.Rand
}

func makeLogAssembler(log *logger.Logger, namer LocationNamer, rnd *rand.Rand) *logAssembler {
	return &logAssembler{
		log:   log,
		namer: namer,
		rnd:   rnd,
	}
}

// dayTrace accumulates the duty status timeline of one calendar day
type dayTrace struct {
	statuses []trip.DutyStatus
	remarks  []trip.Remark
}

// setStatus records a duty status change. A write at an hour already
// present overwrites the earlier status, so every hour keeps exactly one
// value.
func (d *dayTrace) setStatus(hour float64, status trip.DutyStatusCode) {
	for i := range d.statuses {
		if math.Abs(d.statuses[i].Hour-hour) < duplicateHourTolerance {
			d.statuses[i].Status = status
			return
		}
	}
	d.statuses = append(d.statuses, trip.DutyStatus{Hour: hour, Status: status})
}

// setRemark records a location remark, overwriting an existing remark at
// the same hour
func (d *dayTrace) setRemark(hour float64, location string) {
	for i := range d.remarks {
		if math.Abs(d.remarks[i].Time-hour) < duplicateHourTolerance {
			d.remarks[i].Location = location
			return
		}
	}
	d.remarks = append(d.remarks, trip.Remark{Time: hour, Location: location})
}

// covered reports whether any status lies within the coarse tolerance of
// the given hour
func (d *dayTrace) covered(hour float64) bool {
	for _, s := range d.statuses {
		if math.Abs(s.Hour-hour) < coverageHourTolerance {
			return true
		}
	}
	return false
}

// anyBefore reports whether any status precedes the given hour
func (d *dayTrace) anyBefore(hour float64) bool {
	for _, s := range d.statuses {
		if s.Hour >= 0 && s.Hour < hour {
			return true
		}
	}
	return false
}

// generateDailyLogs builds one DailyLogSheet per calendar date touched by
// the stop list. startingOdometer <= 0 selects a random reading.
func (a *logAssembler) generateDailyLogs(ctx context.Context, stops []trip.Stop,
	startingOdometer int) []trip.DailyLogSheet {

	if len(stops) == 0 {
		return []trip.DailyLogSheet{}
	}
	if startingOdometer <= 0 {
		startingOdometer = a.rnd.Intn(400001) + 100000
	}

	stopsByDay := map[string][]trip.Stop{}
	var days []string
	for _, stop := range stops {
		day := stop.EstimatedArrival.Format(dateLayout)
		if _, ok := stopsByDay[day]; !ok {
			days = append(days, day)
		}
		stopsByDay[day] = append(stopsByDay[day], stop)
	}
	sort.Strings(days)

	sheets := make([]trip.DailyLogSheet, 0, len(days))
	odometer := startingOdometer
	for dayIndex, day := range days {
		sheet := a.assembleDay(ctx, day, stopsByDay[day], odometer,
			dayIndex == 0, dayIndex == len(days)-1)
		odometer = sheet.EndOdometer
		sheets = append(sheets, sheet)
	}
	return sheets
}

// assembleDay builds the complete log sheet for one calendar date
func (a *logAssembler) assembleDay(ctx context.Context, day string, dayStops []trip.Stop,
	startOdometer int, firstDay, lastDay bool) trip.DailyLogSheet {

	sheet := a.newDailyLogSheet(day)

	firstStop := dayStops[0]
	lastStop := dayStops[len(dayStops)-1]
	sheet.StartTime = firstStop.EstimatedArrival
	sheet.EndTime = lastStop.EstimatedArrival
	sheet.StartLocation = a.placeName(ctx, firstStop.Coordinates)
	sheet.EndLocation = a.placeName(ctx, lastStop.Coordinates)
	sheet.StartOdometer = startOdometer

	lastStopHour := lastStop.EstimatedArrival.HourOfDay()
	earlyCompletion := lastDay && lastStopHour < drivingEndHour && lastStop.Type == trip.StopTypeDropoff

	var trace dayTrace
	a.seedFromStops(&trace, dayStops)
	a.ensureEarlyMorning(&trace, firstDay)
	a.ensureMorningPattern(&trace, firstDay, firstStop.EstimatedArrival.HourOfDay())
	drivingHours, onDutyHours, dayMiles := a.traceStopActivity(&trace, dayStops)
	if !earlyCompletion {
		a.ensureEndOfDayPattern(&trace, lastDay)
	}

	sort.Slice(trace.statuses, func(i, j int) bool {
		return trace.statuses[i].Hour < trace.statuses[j].Hour
	})
	sort.Slice(trace.remarks, func(i, j int) bool {
		return trace.remarks[i].Time < trace.remarks[j].Time
	})

	sheet.EndOdometer = startOdometer + int(math.Round(dayMiles))
	sheet.TotalMiles = int(math.Round(dayMiles))
	sheet.TotalHours = onDutyHours
	sheet.GraphData = trip.GraphData{HourData: trace.statuses, Remarks: trace.remarks}
	sheet.Logs = buildLogEntries(trace.statuses, trace.remarks,
		sheet.StartTime.Time, sheet.EndTime.Time)

	if drivingHours > maxDrivingHours {
		sheet.Violations = append(sheet.Violations, trip.Violation{
			Type:        trip.ViolationDrivingLimit,
			Description: fmt.Sprintf("Exceeded %d-hour driving limit (%.1f hours)", int(maxDrivingHours), drivingHours),
		})
	}
	if onDutyHours > maxOnDutyHours {
		sheet.Violations = append(sheet.Violations, trip.Violation{
			Type:        trip.ViolationOnDutyLimit,
			Description: fmt.Sprintf("Exceeded %d-hour on-duty limit (%.1f hours)", int(maxOnDutyHours), onDutyHours),
		})
	}

	sheet.TotalMilesDrivingToday = fmt.Sprintf("%d miles", sheet.TotalMiles)
	sheet.TotalMileageToday = fmt.Sprintf("%d miles", sheet.TotalMiles)
	return sheet
}

// seedFromStops appends the duty status and remark implied by each planned
// stop of the day
func (a *logAssembler) seedFromStops(trace *dayTrace, dayStops []trip.Stop) {
	for _, stop := range dayStops {
		hour := stop.EstimatedArrival.HourOfDay()
		switch stop.Type {
		case trip.StopTypeOvernight:
			trace.setStatus(hour, trip.StatusSleeperBerth)
		case trip.StopTypeOffDuty, trip.StopTypeRest, trip.StopTypeStart:
			trace.setStatus(hour, trip.StatusOffDuty)
		default:
			trace.setStatus(hour, trip.StatusOnDuty)
		}
		trace.setRemark(hour, stop.Name)
	}
}

// ensureEarlyMorning covers midnight to 6:30 AM and the rest-end
// transition. The first day rests off-duty, later days in the sleeper
// berth.
func (a *logAssembler) ensureEarlyMorning(trace *dayTrace, firstDay bool) {
	restStatus := trip.StatusSleeperBerth
	if firstDay {
		restStatus = trip.StatusOffDuty
	}
	if !trace.anyBefore(sleeperEndHour) || !trace.covered(0.0) {
		trace.setStatus(0.0, restStatus)
		trace.setRemark(0.0, "")
	}
	if !trace.covered(sleeperEndHour) {
		trace.setStatus(sleeperEndHour, trip.StatusOnDuty)
		trace.setRemark(sleeperEndHour, "End of Rest Period")
	}
}

// ensureMorningPattern injects the standard pre-trip and driving start.
// A first day that begins after the pre-trip hour starts on duty at its
// actual first stop instead.
func (a *logAssembler) ensureMorningPattern(trace *dayTrace, firstDay bool, firstStopHour float64) {
	if firstDay && firstStopHour > preTripStartHour {
		trace.setStatus(firstStopHour, trip.StatusOnDuty)
		trace.setRemark(firstStopHour, "Pre-trip Inspection")
		drivingStart := math.Min(firstStopHour+0.5, 23.9)
		trace.setStatus(drivingStart, trip.StatusDriving)
		trace.setRemark(drivingStart, "Start Driving")
		return
	}
	trace.setStatus(preTripStartHour, trip.StatusOnDuty)
	trace.setRemark(preTripStartHour, "Pre-trip Inspection")
	trace.setStatus(drivingStartHour, trip.StatusDriving)
	trace.setRemark(drivingStartHour, "Start Driving")
}

// traceStopActivity walks the day's stops in order, recording duty status
// transitions, rewriting remarks to their log labels, and interpolating
// driving segments between stops close enough in time to imply movement.
// Returns driving hours, on-duty hours, and miles driven.
func (a *logAssembler) traceStopActivity(trace *dayTrace, dayStops []trip.Stop) (float64, float64, float64) {
	drivingHours := 0.0
	onDutyHours := 0.0
	dayMiles := 0.0

	currentStatus := trip.StatusDriving
	for i, stop := range dayStops {
		hour := stop.EstimatedArrival.HourOfDay()

		var nextStatus trip.DutyStatusCode
		switch stop.Type {
		case trip.StopTypeStart:
			nextStatus = trip.StatusOnDuty
			trace.setRemark(hour, "Starting Location")
		case trip.StopTypePreTrip:
			nextStatus = trip.StatusOnDuty
			trace.setRemark(hour, "Pre-trip Inspection")
		case trip.StopTypeRest:
			nextStatus = trip.StatusOffDuty
			trace.setRemark(hour, "30-Minute Break")
		case trip.StopTypeFuel:
			nextStatus = trip.StatusOnDuty
			trace.setRemark(hour, "Fueling")
		case trip.StopTypeOffDuty:
			nextStatus = trip.StatusOffDuty
			trace.setRemark(hour, "End of Driving Day")
		case trip.StopTypeOvernight:
			nextStatus = trip.StatusSleeperBerth
			trace.setRemark(hour, "10-Hour Rest")
		case trip.StopTypePickup, trip.StopTypeDropoff, trip.StopTypeWaypoint:
			nextStatus = trip.StatusOnDuty
			trace.setRemark(hour, stop.Name)
		default:
			nextStatus = trip.StatusOnDuty
		}

		if nextStatus != currentStatus {
			trace.setStatus(hour, nextStatus)
			currentStatus = nextStatus
		}

		if i == len(dayStops)-1 {
			break
		}
		next := dayStops[i+1]
		if stop.Type == trip.StopTypeOffDuty || stop.Type == trip.StopTypeOvernight ||
			next.Type == trip.StopTypeOffDuty || next.Type == trip.StopTypeOvernight {
			continue
		}

		// stops run a standard half hour; time beyond that until the next
		// arrival is driving
		drivingStart := stop.EstimatedArrival.Add(30 * time.Minute)
		gapHours := next.EstimatedArrival.Sub(drivingStart).Hours()
		if gapHours > 0.25 {
			if currentStatus != trip.StatusDriving {
				startHour := float64(drivingStart.Hour()) + float64(drivingStart.Minute())/60
				trace.setStatus(startHour, trip.StatusDriving)
				currentStatus = trip.StatusDriving
			}
			dayMiles += gapHours * avgSpeedMPH
			drivingHours += gapHours
			onDutyHours += gapHours
		}
	}
	return drivingHours, onDutyHours, dayMiles
}

// ensureEndOfDayPattern injects the standard evening wind-down and, on
// days with a following sheet, bridges midnight in the sleeper berth
func (a *logAssembler) ensureEndOfDayPattern(trace *dayTrace, lastDay bool) {
	if !trace.covered(drivingEndHour) {
		trace.setStatus(drivingEndHour, trip.StatusOffDuty)
		trace.setRemark(drivingEndHour, "End of Driving Day")
	}
	if !trace.covered(sleeperStartHour) {
		trace.setStatus(sleeperStartHour, trip.StatusSleeperBerth)
		trace.setRemark(sleeperStartHour, "10-Hour Rest")
	}
	if !lastDay {
		trace.setStatus(23.99, trip.StatusSleeperBerth)
		trace.setRemark(23.99, "")
	}
}

// buildLogEntries pairs adjacent duty statuses into detailed log lines.
// Each entry borrows the location of the remark nearest its start hour and
// attributes mileage to driving segments at the planning speed.
func buildLogEntries(statuses []trip.DutyStatus, remarks []trip.Remark,
	dayStart, dayEnd time.Time) []trip.LogEntry {

	if len(statuses) == 0 {
		return []trip.LogEntry{}
	}
	date := dayStart.Format(dateLayout)

	entries := make([]trip.LogEntry, 0, len(statuses))
	for i, status := range statuses {
		startTime := entryTime(dayStart, status.Hour)

		var endTime time.Time
		if i < len(statuses)-1 {
			endTime = atHour(dayStart, statuses[i+1].Hour)
			if endTime.Hour() < startTime.Hour() && statuses[i+1].Hour < 12 {
				endTime = endTime.AddDate(0, 0, 1)
			}
		} else {
			endTime = dayEnd
		}

		location := "Unknown Location"
		closest := math.Inf(1)
		for _, remark := range remarks {
			if diff := math.Abs(remark.Time - status.Hour); diff < closest {
				closest = diff
				location = remark.Location
			}
		}

		miles := 0
		if status.Status == trip.StatusDriving {
			miles = int(math.Round(endTime.Sub(startTime).Hours() * avgSpeedMPH))
		}

		entries = append(entries, trip.LogEntry{
			Date:      date,
			StartTime: trip.MakeLocalTime(startTime),
			EndTime:   trip.MakeLocalTime(endTime),
			Status:    status.Status,
			Location:  location,
			Miles:     miles,
		})
	}
	return entries
}

// entryTime maps a fractional hour onto the sheet's calendar day, rolling
// early-morning hours that precede the day's start time into the next day
func entryTime(dayStart time.Time, hour float64) time.Time {
	t := atHour(dayStart, hour)
	if t.Hour() < dayStart.Hour() && hour < 12 {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// placeName resolves stop coordinates for sheet start/end locations,
// formatting the raw coordinates when no geocoder is configured
func (a *logAssembler) placeName(ctx context.Context, coord trip.Coord) string {
	if a.namer == nil {
		return fmt.Sprintf("%.4f, %.4f", coord.Lat(), coord.Lng())
	}
	return a.namer.LocationName(ctx, coord.Lat(), coord.Lng())
}

// newDailyLogSheet initializes a sheet with randomized bookkeeping fields
func (a *logAssembler) newDailyLogSheet(day string) trip.DailyLogSheet {
	return trip.DailyLogSheet{
		Date:                day,
		DriverName:          "John Doe",
		DriverID:            fmt.Sprintf("DL%d", a.rnd.Intn(90000000)+10000000),
		TruckNumber:         fmt.Sprintf("Truck-%d", a.rnd.Intn(900)+100),
		TrailerNumber:       fmt.Sprintf("Trailer-%d", a.rnd.Intn(900)+100),
		Carrier:             "Sample Carrier Inc.",
		HomeTerminal:        "Dallas Terminal",
		ShippingDocNumber:   fmt.Sprintf("BOL-%d", a.rnd.Intn(900000)+100000),
		CertificationStatus: "Uncertified",
		LicensePlate: fmt.Sprintf("ABC-%d (%s)", a.rnd.Intn(9000)+1000,
			plateStates[a.rnd.Intn(len(plateStates))]),
		ShipperCommodity: fmt.Sprintf("%s Shipping Co. - %s",
			shipperNames[a.rnd.Intn(len(shipperNames))],
			commodities[a.rnd.Intn(len(commodities))]),
		Remarks:       "No issues reported",
		OfficeAddress: "1234 Business Rd, Suite 100, Dallas, TX 75201",
		HomeAddress:   "5678 Industrial Ave, Houston, TX 77001",
		Logs:          []trip.LogEntry{},
		Violations:    []trip.Violation{},
	}
}
