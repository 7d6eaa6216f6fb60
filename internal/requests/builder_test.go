package requests

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophergoltz/elogio-sub000/internal/gwtrpc"
)

var anchor = time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC)

func TestDateLiteral(t *testing.T) {
	assert.Equal(t, 20240506, DateLiteral(anchor))
	assert.Equal(t, 20240101, DateLiteral(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

// TestCanonicalBodies pins every template byte for byte. The server
// rejects any drift with an opaque fault, so these literals are the
// contract.
func TestCanonicalBodies(t *testing.T) {
	at := time.Unix(1714999800, 0)

	cases := []struct {
		name string
		got  string
		want string
	}{
		{
			"global connect",
			GlobalConnect("f3d1"),
			`5,"com.bodet.portal.GlobalServiceRequeteBWT","connect","ChaineBWT","f3d1","NULL",1,2,3,4,0`,
		},
		{
			"bwp connect",
			BwpConnect("f3d1"),
			`4,"com.bodet.bwp.BwpServiceRequeteBWT","connect","ChaineBWT","f3d1",1,2,3,4`,
		},
		{
			"week presence",
			WeekPresence("f3d1", 574, anchor),
			`6,"com.bodet.temps.SemainePresenceRequeteBWT","getSemainePresence","ChaineBWT","f3d1","EntierBWT","EntierBWT",1,2,3,4,5,574,6,20240506`,
		},
		{
			"absence calendar",
			AbsenceCalendar("f3d1", "ctx9", 4711, anchor, anchor.AddDate(0, 1, 0)),
			`7,"com.bodet.conges.CalendrierAbsenceRequeteBWT","getCalendrierAbsences","ChaineBWT","f3d1","ChaineBWT","ctx9","EntierBWT",1,2,3,4,5,6,7,4711,20240506,20240606`,
		},
		{
			"punch",
			Punch("f3d1", 574, at),
			`5,"com.bodet.badge.BadgerSignalerRequeteBWT","badgerSignaler","ChaineBWT","f3d1","EntierBWT",1,2,3,4,5,574,1714999800`,
		},
		{
			"colleague absences",
			ColleagueAbsences("f3d1", "ctx9", anchor, at),
			`6,"com.bodet.conges.AbsenceCollegueRequeteBWT","getAbsencesCollegues","ChaineBWT","f3d1","ChaineBWT","ctx9",1,2,3,4,5,6,20240506,1714999800000`,
		},
		{
			"parametre intranet",
			ParametreIntranet("f3d1"),
			`4,"com.bodet.portal.ParametreIntranetRequeteBWT","getParametreIntranet","ChaineBWT","f3d1",1,2,3,4`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

// TestTimestampUnits pins the seconds-vs-millis split per call site.
func TestTimestampUnits(t *testing.T) {
	at := time.Unix(1714999800, 0)

	assert.True(t, strings.HasSuffix(Punch("s", 1, at), ",1714999800"),
		"badge timestamps are unix seconds")
	assert.True(t, strings.HasSuffix(ColleagueAbsences("s", "c", anchor, at), ",1714999800000"),
		"colleague grid timestamps are unix millis")
}

// TestBodiesTokenize verifies every factory output is well-formed for
// the tokenizer and round-trips its session id through the table.
func TestBodiesTokenize(t *testing.T) {
	const sid = "ab12-cd34"
	bodies := map[string]string{
		"global connect":     GlobalConnect(sid),
		"calendar connect":   CalendarConnect(sid),
		"bwp connect":        BwpConnect(sid),
		"week presence":      WeekPresence(sid, 574, anchor),
		"absence calendar":   AbsenceCalendar(sid, "ctx", 4711, anchor, anchor),
		"punch":              Punch(sid, 574, anchor),
		"colleague absences": ColleagueAbsences(sid, "ctx", anchor, anchor),
		"parametre intranet": ParametreIntranet(sid),
		"presentation model": PresentationModel(sid, "module.conges.absence"),
		"translations":       Translations(sid, "portal.commun", "de"),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			msg, err := gwtrpc.Parse(body)
			require.NoError(t, err)
			require.True(t, msg.IsRequest(), "string table head: %q", msg.GetString(1))

			found := false
			for _, s := range msg.StringTable() {
				if s == sid {
					found = true
				}
			}
			assert.True(t, found, "session id must travel in the table")
		})
	}
}

func TestBodiesAreDeterministic(t *testing.T) {
	require.Equal(t, WeekPresence("s", 1, anchor), WeekPresence("s", 1, anchor))
	require.Equal(t, Punch("s", 1, anchor), Punch("s", 1, anchor))
}
