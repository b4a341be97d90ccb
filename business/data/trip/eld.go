package trip

// DutyStatusCode is one of the four ELD duty statuses
type DutyStatusCode string

const (
	StatusDriving      DutyStatusCode = "driving"
	StatusOnDuty       DutyStatusCode = "on-duty"
	StatusOffDuty      DutyStatusCode = "off-duty"
	StatusSleeperBerth DutyStatusCode = "sleeper-berth"
)

// DutyStatus records a duty status change at a fractional hour of the
// sheet's calendar day
type DutyStatus struct {
	Hour   float64        `json:"hour"`
	Status DutyStatusCode `json:"status"`
}

// Remark is a location annotation for the duty status graph
type Remark struct {
	Time     float64 `json:"time"`
	Location string  `json:"location"`
}

// GraphData holds the 24-hour duty status timeline of one daily log sheet
type GraphData struct {
	HourData []DutyStatus `json:"hourData"`
	Remarks  []Remark     `json:"remarks"`
}

// LogEntry is one detailed log line produced by pairing adjacent duty
// status changes
type LogEntry struct {
	Date      string         `json:"date"`
	StartTime LocalTime      `json:"startTime"`
	EndTime   LocalTime      `json:"endTime"`
	Status    DutyStatusCode `json:"status"`
	Location  string         `json:"location"`
	Miles     int            `json:"miles"`
}

// ViolationType identifies an HOS violation category
type ViolationType string

const (
	ViolationDrivingLimit ViolationType = "driving-limit"
	ViolationOnDutyLimit  ViolationType = "on-duty-limit"
)

// Violation flags an HOS limit exceeded on a daily log sheet. Violations
// are data attached to the sheet, not errors.
type Violation struct {
	Type        ViolationType `json:"type"`
	Description string        `json:"description"`
}

// DailyLogSheet is the per-calendar-day ELD log
type DailyLogSheet struct {
	Date                   string      `json:"date"`
	DriverName             string      `json:"driverName"`
	DriverID               string      `json:"driverID"`
	TruckNumber            string      `json:"truckNumber"`
	TrailerNumber          string      `json:"trailerNumber"`
	Carrier                string      `json:"carrier"`
	HomeTerminal           string      `json:"homeTerminal"`
	ShippingDocNumber      string      `json:"shippingDocNumber"`
	StartOdometer          int         `json:"startOdometer"`
	EndOdometer            int         `json:"endOdometer"`
	StartLocation          string      `json:"startLocation"`
	EndLocation            string      `json:"endLocation"`
	StartTime              LocalTime   `json:"startTime"`
	EndTime                LocalTime   `json:"endTime"`
	TotalMiles             int         `json:"totalMiles"`
	TotalHours             float64     `json:"totalHours"`
	Logs                   []LogEntry  `json:"logs"`
	CertificationTime      string      `json:"certificationTime"`
	CertificationStatus    string      `json:"certificationStatus"`
	GraphData              GraphData   `json:"graphData"`
	Violations             []Violation `json:"violations"`
	LicensePlate           string      `json:"licensePlate"`
	ShipperCommodity       string      `json:"shipperCommodity"`
	Remarks                string      `json:"remarks"`
	OfficeAddress          string      `json:"officeAddress"`
	HomeAddress            string      `json:"homeAddress"`
	TotalMilesDrivingToday string      `json:"totalMilesDrivingToday"`
	TotalMileageToday      string      `json:"totalMileageToday"`
}
