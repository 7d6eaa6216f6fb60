package extract

// colleagueTypeSuffix marks the colleague-absence grid's domain type.
const colleagueTypeSuffix = "AbsenceCollegueReponseBWT"

// ColleagueGridFromResponse decodes the multi-employee absence grid. The
// stream is a sequence of employee rows: a table ref to a name-shaped
// string opens a row, and the following integer cells are per-day
// absence colors (negative) or zero for "present". The wire indexes
// cells 0-based while the calendar numbers days from 1, so cell i maps
// to day i+1. Returns nil on shape mismatch, never an error.
func ColleagueGridFromResponse(body string) *ColleagueGrid {
	msg := tokenizeResponse(body)
	if msg == nil || !hasDomainType(msg, colleagueTypeSuffix) {
		return nil
	}

	var (
		result  ColleagueGrid
		current *ColleagueRow
		cell    int
	)

	flush := func() {
		if current != nil {
			result.Colleagues = append(result.Colleagues, *current)
			current = nil
		}
	}

	for _, tok := range msg.Tokens() {
		if !tok.IsInt() {
			continue
		}
		if tok.Int >= 1 && tok.Int <= int64(len(msg.StringTable())) {
			if s := msg.GetString(int(tok.Int)); looksLikeName(s) {
				flush()
				current = &ColleagueRow{Name: s, Days: map[int]AbsenceKind{}}
				cell = 0
				continue
			}
		}
		if current == nil {
			continue
		}
		switch {
		case tok.Int < 0:
			// 0-based wire index, 1-based calendar day.
			current.Days[cell+1] = KindForColor(int32(tok.Int))
			cell++
		case tok.Int == 0:
			cell++
		}
	}
	flush()

	if len(result.Colleagues) == 0 {
		return nil
	}
	return &result
}
