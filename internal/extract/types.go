// Package extract contains the heuristic parsers that turn tokenized RPC
// responses into typed domain values. Every parser follows the same
// contract: a nil result means the payload did not match the expected
// shape (wrong method, server fault marker, protocol drift) and is never
// an error; errors are reserved for broken call contracts on our side.
package extract

import "time"

// PunchType distinguishes the two badge directions.
type PunchType int

const (
	PunchUnknown PunchType = iota
	ClockIn
	ClockOut
)

func (p PunchType) String() string {
	switch p {
	case ClockIn:
		return "clock-in"
	case ClockOut:
		return "clock-out"
	default:
		return "unknown"
	}
}

// PunchResult is the outcome of a badge RPC.
type PunchResult struct {
	Type      PunchType
	Timestamp time.Time
	Label     string
}

// AbsenceKind is the decoded meaning of an absence-cell color.
type AbsenceKind int

const (
	AbsenceUnknown AbsenceKind = iota
	AbsenceSick
	AbsenceVacation
	AbsencePrivate
	AbsenceHalfHoliday
	AbsenceRestDay
)

func (k AbsenceKind) String() string {
	switch k {
	case AbsenceSick:
		return "sick"
	case AbsenceVacation:
		return "vacation"
	case AbsencePrivate:
		return "private"
	case AbsenceHalfHoliday:
		return "half-holiday"
	case AbsenceRestDay:
		return "rest-day"
	default:
		return "unknown"
	}
}

// The portal renders absences as cell colors; the mapping is fixed and
// observed, not documented. Signed 32-bit ARGB values.
const (
	colorSick        int32 = -65536
	colorVacation    int32 = -16776961
	colorPrivate     int32 = -16711808
	colorHalfHoliday int32 = -256
	colorRestDay     int32 = -3355444
)

// KindForColor maps an absence-cell color to its category. Colors not in
// the fixed table decode as AbsenceUnknown.
func KindForColor(color int32) AbsenceKind {
	switch color {
	case colorSick:
		return AbsenceSick
	case colorVacation:
		return AbsenceVacation
	case colorPrivate:
		return AbsencePrivate
	case colorHalfHoliday:
		return AbsenceHalfHoliday
	case colorRestDay:
		return AbsenceRestDay
	default:
		return AbsenceUnknown
	}
}

// DayPresence is one day of a weekly presence sheet.
type DayPresence struct {
	Date     time.Time
	Worked   time.Duration
	Expected time.Duration
	Weekend  bool
	// BadgesIn and BadgesOut hold "HH:MM" badge times in wire order.
	BadgesIn  []string
	BadgesOut []string
}

// WeekPresence is the decoded weekly presence sheet.
type WeekPresence struct {
	EmployeeName  string
	WeekAnchor    time.Time
	Days          []DayPresence
	TotalWorked   time.Duration
	TotalExpected time.Duration
	Balance       time.Duration
}

// AbsenceDay is one calendar day of the absence view.
type AbsenceDay struct {
	Date       time.Time
	HasAbsence bool
	Kind       AbsenceKind
	Color      int32
	Holiday    bool
	Weekend    bool
	RestDay    bool
}

// AbsenceCalendar is the decoded absence view plus its color legend.
type AbsenceCalendar struct {
	Days   []AbsenceDay
	Legend map[int32]string
}

// ColleagueRow is one employee line of the colleague-absence grid. Keys
// of Days are calendar day numbers (1-based), already corrected from the
// wire's 0-based indexing.
type ColleagueRow struct {
	Name string
	Days map[int]AbsenceKind
}

// ColleagueGrid is the decoded multi-employee absence grid.
type ColleagueGrid struct {
	Colleagues []ColleagueRow
}
