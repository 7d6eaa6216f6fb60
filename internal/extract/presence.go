package extract

import (
	"time"
)

// presenceTypeSuffix marks the weekly presence sheet's domain type.
const presenceTypeSuffix = "SemainePresenceReponseBWT"

// maxDaySeconds bounds a per-day duration token; two full days covers
// night shifts that cross midnight.
const maxDaySeconds = 172800

// WeekPresenceFromResponse decodes a weekly presence sheet. The stream
// is a sequence of day groups, each opened by an 8-digit date literal;
// the first such literal anchors the week. Inside a group, integer
// tokens below maxDaySeconds fill the worked and expected durations (in
// seconds, in that order), and short HH:MM string refs are durations
// while worked/expected are still unset or badge times (alternating
// in/out) afterwards. Returns nil on any shape mismatch, never an error.
func WeekPresenceFromResponse(body string) *WeekPresence {
	msg := tokenizeResponse(body)
	if msg == nil || !hasDomainType(msg, presenceTypeSuffix) {
		return nil
	}

	// Employee display name: first two name-shaped table entries.
	var nameParts []string
	for _, s := range msg.StringTable() {
		if looksLikeName(s) {
			nameParts = append(nameParts, s)
			if len(nameParts) == 2 {
				break
			}
		}
	}
	name := ""
	switch len(nameParts) {
	case 1:
		name = nameParts[0]
	case 2:
		name = nameParts[0] + " " + nameParts[1]
	}

	var (
		result      = &WeekPresence{EmployeeName: name}
		current     *DayPresence
		badges      []string
		workedSet   bool
		expectedSet bool
	)

	flush := func() {
		if current == nil {
			return
		}
		for i, b := range badges {
			if i%2 == 0 {
				current.BadgesIn = append(current.BadgesIn, b)
			} else {
				current.BadgesOut = append(current.BadgesOut, b)
			}
		}
		badges = nil
		result.Days = append(result.Days, *current)
		current = nil
	}

	setDuration := func(d time.Duration) {
		if !workedSet {
			current.Worked = d
			workedSet = true
		} else if !expectedSet {
			current.Expected = d
			expectedSet = true
		}
	}

	for _, tok := range msg.Tokens() {
		if tok.IsInt() && isDateLiteral(tok.Int) {
			flush()
			date := dateFromLiteral(tok.Int)
			if date.IsZero() {
				continue
			}
			if result.WeekAnchor.IsZero() {
				result.WeekAnchor = date
			}
			wd := date.Weekday()
			current = &DayPresence{
				Date:    date,
				Weekend: wd == time.Saturday || wd == time.Sunday,
			}
			workedSet, expectedSet = false, false
			continue
		}
		if current == nil || !tok.IsInt() {
			continue
		}

		switch {
		case tok.Int >= 0 && tok.Int < maxDaySeconds && (tok.Int > int64(len(msg.StringTable())) || tok.Int == 0):
			// Plain duration-in-seconds token. Values that could also be
			// table refs are resolved as refs below; real durations are
			// far larger than any table.
			setDuration(time.Duration(tok.Int) * time.Second)
		case tok.Int >= 1 && tok.Int <= int64(len(msg.StringTable())):
			s := msg.GetString(int(tok.Int))
			if !isClockString(s) {
				continue
			}
			if !workedSet || !expectedSet {
				if d, ok := clockToDuration(s); ok {
					setDuration(d)
				}
			} else {
				badges = append(badges, s)
			}
		}
	}
	flush()

	if len(result.Days) == 0 {
		return nil
	}
	for _, d := range result.Days {
		result.TotalWorked += d.Worked
		result.TotalExpected += d.Expected
	}
	result.Balance = result.TotalWorked - result.TotalExpected
	return result
}
