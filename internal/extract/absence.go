package extract

// absenceTypeSuffix marks the absence calendar's domain type.
const absenceTypeSuffix = "CalendrierAbsenceReponseBWT"

// AbsenceCalendarFromResponse decodes the per-day absence calendar. Each
// day repeats the pattern
//
//	date8, dayNumber, [color], isHoliday, isWeekend, isRestDay
//
// where the color cell is optional and always a negative signed-32-bit
// value, which is what distinguishes it from the flag triple. After the
// last day entry a legend block of (color, labelRef) pairs maps colors
// to localized labels. Returns nil on shape mismatch, never an error.
func AbsenceCalendarFromResponse(body string) *AbsenceCalendar {
	msg := tokenizeResponse(body)
	if msg == nil || !hasDomainType(msg, absenceTypeSuffix) {
		return nil
	}

	tokens := msg.Tokens()
	result := &AbsenceCalendar{Legend: map[int32]string{}}
	legendStart := 0

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if !tok.IsInt() || !isDateLiteral(tok.Int) {
			i++
			continue
		}
		date := dateFromLiteral(tok.Int)
		i++
		if date.IsZero() || i >= len(tokens) || !tokens[i].IsInt() {
			continue
		}
		// Day-of-month marker; redundant with the date but present on
		// the wire, so it is consumed and sanity-checked.
		dayNum := tokens[i].Int
		if dayNum < 1 || dayNum > 31 {
			continue
		}
		i++

		day := AbsenceDay{Date: date}
		if i < len(tokens) && tokens[i].IsInt() && tokens[i].Int < 0 {
			day.HasAbsence = true
			day.Color = int32(tokens[i].Int)
			day.Kind = KindForColor(day.Color)
			i++
		}
		flags := make([]bool, 0, 3)
		for f := 0; f < 3 && i < len(tokens); f++ {
			if !tokens[i].IsInt() {
				break
			}
			flags = append(flags, tokens[i].Int != 0)
			i++
		}
		if len(flags) == 3 {
			day.Holiday, day.Weekend, day.RestDay = flags[0], flags[1], flags[2]
		}
		result.Days = append(result.Days, day)
		legendStart = i
	}

	if len(result.Days) == 0 {
		return nil
	}

	// Legend block: (negative color, table ref) pairs after the final
	// day entry.
	for j := legendStart; j+1 < len(tokens); j++ {
		color, label := tokens[j], tokens[j+1]
		if !color.IsInt() || color.Int >= 0 {
			continue
		}
		if !label.IsInt() || label.Int < 1 || label.Int > int64(len(msg.StringTable())) {
			continue
		}
		s := msg.GetString(int(label.Int))
		if s == "" || isClockString(s) {
			continue
		}
		result.Legend[int32(color.Int)] = s
		j++
	}

	return result
}
