package extract

import (
	"strings"
	"time"
)

// punchTypeSuffix marks the badge RPC's domain type.
const punchTypeSuffix = "BadgerSignalerReponseBWT"

// Direction markers embedded in the server's localized badge message.
const (
	markerClockIn  = "(Kommen)"
	markerClockOut = "(Gehen)"
)

// PunchFromResponse decodes the result of a badge RPC. The server
// replies with a localized message like "Buchung um 09:26 (Kommen)"; the
// parenthetical carries the direction and the HH:MM substring the badge
// time. The returned timestamp is the badge time on the given day.
// Returns nil when the payload is not a badge response or carries the
// server fault marker.
func PunchFromResponse(body string, day time.Time) *PunchResult {
	msg := tokenizeResponse(body)
	if msg == nil || !hasDomainType(msg, punchTypeSuffix) {
		return nil
	}

	for _, s := range msg.StringTable() {
		typ := PunchUnknown
		switch {
		case strings.Contains(s, markerClockIn):
			typ = ClockIn
		case strings.Contains(s, markerClockOut):
			typ = ClockOut
		default:
			continue
		}

		m := clockPattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		h := atoi2(m[1])
		mm := atoi2(m[2])
		if h > 23 || mm > 59 {
			continue
		}

		label := s
		label = strings.ReplaceAll(label, markerClockIn, "")
		label = strings.ReplaceAll(label, markerClockOut, "")
		label = strings.ReplaceAll(label, m[0], "")
		label = strings.Join(strings.Fields(label), " ")

		return &PunchResult{
			Type:      typ,
			Timestamp: time.Date(day.Year(), day.Month(), day.Day(), h, mm, 0, 0, day.Location()),
			Label:     label,
		}
	}
	return nil
}

func atoi2(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
