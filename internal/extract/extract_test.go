package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exceptionBody is the server's generic application fault.
const exceptionBody = `1,"com.bodet.bwp.ExceptionBWT",1`

// wrongTypeBody tokenizes fine but matches no domain type.
const wrongTypeBody = `2,"com.bodet.portal.SomethingElseReponseBWT","NULL",1,2`

func TestEmployeeFromConnect(t *testing.T) {
	body := `5,"com.bodet.portal.GlobalServiceReponseBWT","Hans","Mueller","ChaineBWT","NULL",1,4,5,574,4,2,4,3,0`

	id, name := EmployeeFromConnect(body)
	assert.Equal(t, int64(574), id)
	assert.Equal(t, "Hans Mueller", name)
}

func TestEmployeeFromConnectNoName(t *testing.T) {
	// No name-shaped table entry: id stays 0, callers fail fast later.
	body := `3,"com.bodet.portal.GlobalServiceReponseBWT","NULL","ChaineBWT",1,2,3,574,4,2`
	id, name := EmployeeFromConnect(body)
	assert.Zero(t, id)
	assert.Empty(t, name)
}

func TestEmployeeFromConnectRejectsImplausibleID(t *testing.T) {
	// The positional match exists but the candidate id is out of range.
	body := `4,"com.bodet.portal.GlobalServiceReponseBWT","Hans","Mueller","NULL",1,99999999999,4,2,4,3`
	id, _ := EmployeeFromConnect(body)
	assert.Zero(t, id)
}

func TestEmployeeFromParametreIntranet(t *testing.T) {
	body := `2,"com.bodet.portal.ParametreIntranetReponseBWT","NULL",1,2,3,4711,0`
	assert.Equal(t, int64(4711), EmployeeFromParametreIntranet(body))

	// No literal-3 predecessor anywhere.
	assert.Zero(t, EmployeeFromParametreIntranet(`1,"NULL",1,7,4711`))
}

func TestWeekPresence(t *testing.T) {
	body := `9,"com.bodet.temps.SemainePresenceReponseBWT","Hans","Mueller","08:00","08:02","12:15","13:02","17:11","07:30",` +
		// Monday: integer-second durations, then four badge refs.
		`20240506,27000,28800,5,6,7,8,` +
		// Tuesday: clock-string durations, no badges.
		`20240507,4,9,` +
		// Saturday: empty weekend day.
		`20240511,0,0`

	w := WeekPresenceFromResponse(body)
	require.NotNil(t, w)

	assert.Equal(t, "Hans Mueller", w.EmployeeName)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), w.WeekAnchor)
	require.Len(t, w.Days, 3)

	mon := w.Days[0]
	assert.Equal(t, 7*time.Hour+30*time.Minute, mon.Worked)
	assert.Equal(t, 8*time.Hour, mon.Expected)
	assert.False(t, mon.Weekend)
	assert.Equal(t, []string{"08:02", "13:02"}, mon.BadgesIn)
	assert.Equal(t, []string{"12:15", "17:11"}, mon.BadgesOut)

	tue := w.Days[1]
	assert.Equal(t, 8*time.Hour, tue.Worked)
	assert.Equal(t, 7*time.Hour+30*time.Minute, tue.Expected)
	assert.Empty(t, tue.BadgesIn)

	sat := w.Days[2]
	assert.True(t, sat.Weekend)
	assert.Zero(t, sat.Worked)

	assert.Equal(t, 15*time.Hour+30*time.Minute, w.TotalWorked)
	assert.Equal(t, 15*time.Hour+30*time.Minute, w.TotalExpected)
	assert.Zero(t, w.Balance)
}

func TestAbsenceCalendar(t *testing.T) {
	body := `3,"com.bodet.conges.CalendrierAbsenceReponseBWT","Krank","Urlaub",` +
		`20240601,1,0,1,0,` +
		`20240603,3,-65536,0,0,0,` +
		`20240604,4,-16776961,0,0,0,` +
		`-65536,2,-16776961,3`

	cal := AbsenceCalendarFromResponse(body)
	require.NotNil(t, cal)
	require.Len(t, cal.Days, 3)

	sat := cal.Days[0]
	assert.False(t, sat.HasAbsence)
	assert.True(t, sat.Weekend)
	assert.False(t, sat.Holiday)

	sick := cal.Days[1]
	assert.True(t, sick.HasAbsence)
	assert.Equal(t, AbsenceSick, sick.Kind)
	assert.Equal(t, int32(-65536), sick.Color)

	vac := cal.Days[2]
	assert.Equal(t, AbsenceVacation, vac.Kind)

	assert.Equal(t, "Krank", cal.Legend[-65536])
	assert.Equal(t, "Urlaub", cal.Legend[-16776961])
}

// TestColorTable pins the full fixed color mapping; an unlisted color
// must come back as unknown, never as a wrong category.
func TestColorTable(t *testing.T) {
	cases := map[int32]AbsenceKind{
		-65536:    AbsenceSick,
		-16776961: AbsenceVacation,
		-16711808: AbsencePrivate,
		-256:      AbsenceHalfHoliday,
		-3355444:  AbsenceRestDay,
		-1:        AbsenceUnknown,
		-123456:   AbsenceUnknown,
	}
	for color, want := range cases {
		assert.Equal(t, want, KindForColor(color), "color %d", color)
	}
}

func TestPunchClockIn(t *testing.T) {
	body := `2,"com.bodet.badge.BadgerSignalerReponseBWT","Buchung Haupteingang 09:26 (Kommen)",1,2`
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)

	p := PunchFromResponse(body, day)
	require.NotNil(t, p)
	assert.Equal(t, ClockIn, p.Type)
	assert.Equal(t, 9, p.Timestamp.Hour())
	assert.Equal(t, 26, p.Timestamp.Minute())
	assert.Equal(t, "Buchung Haupteingang", p.Label)
}

func TestPunchClockOut(t *testing.T) {
	body := `2,"com.bodet.badge.BadgerSignalerReponseBWT","Buchung 17:03 (Gehen)",1,2`
	p := PunchFromResponse(body, time.Now())
	require.NotNil(t, p)
	assert.Equal(t, ClockOut, p.Type)
	assert.Equal(t, 17, p.Timestamp.Hour())
	assert.Equal(t, 3, p.Timestamp.Minute())
}

func TestColleagueGrid(t *testing.T) {
	body := `3,"com.bodet.conges.AbsenceCollegueReponseBWT","Anna","Bernd",2,-65536,0,-16776961,3,0,-256`

	grid := ColleagueGridFromResponse(body)
	require.NotNil(t, grid)
	require.Len(t, grid.Colleagues, 2)

	anna := grid.Colleagues[0]
	assert.Equal(t, "Anna", anna.Name)
	assert.Equal(t, AbsenceSick, anna.Days[1])
	assert.Equal(t, AbsenceVacation, anna.Days[3])
	_, present := anna.Days[2]
	assert.False(t, present, "zero cells mean no absence")

	bernd := grid.Colleagues[1]
	assert.Equal(t, "Bernd", bernd.Name)
	assert.Equal(t, AbsenceHalfHoliday, bernd.Days[2])
}

// TestParsersNeverThrow covers the common contract: empty input, a
// non-matching domain type and the server fault marker all yield nil.
func TestParsersNeverThrow(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"wrong type": wrongTypeBody,
		"exception":  exceptionBody,
		"garbage":    "not an rpc payload at all",
	} {
		t.Run(name, func(t *testing.T) {
			id, n := EmployeeFromConnect(body)
			assert.Zero(t, id)
			assert.Empty(t, n)
			assert.Zero(t, EmployeeFromParametreIntranet(body))
			assert.Nil(t, WeekPresenceFromResponse(body))
			assert.Nil(t, AbsenceCalendarFromResponse(body))
			assert.Nil(t, PunchFromResponse(body, time.Now()))
			assert.Nil(t, ColleagueGridFromResponse(body))
		})
	}
}

func TestLooksLikeName(t *testing.T) {
	yes := []string{"Hans", "Mueller", "De Vries", "Anna-Lena"}
	no := []string{"h", "HANS", "com.bodet.Thing", "GlobalServiceBWT", "X", "", "NULL"}
	for _, s := range yes {
		assert.True(t, looksLikeName(s), s)
	}
	for _, s := range no {
		assert.False(t, looksLikeName(s), s)
	}
}

func TestContextIDFromConnect(t *testing.T) {
	body := `4,"com.bodet.portal.GlobalServiceReponseBWT","ChaineBWT","9b2f3c41-77aa-4e10-93cd-0b5a6f1e2d3c","NULL",1,2,3,4`
	assert.Equal(t, "9b2f3c41-77aa-4e10-93cd-0b5a6f1e2d3c", ContextIDFromConnect(body))

	assert.Empty(t, ContextIDFromConnect(`2,"com.bodet.portal.GlobalServiceReponseBWT","NULL",1,2`))
	assert.Empty(t, ContextIDFromConnect(exceptionBody))
	assert.Empty(t, ContextIDFromConnect(""))
}
