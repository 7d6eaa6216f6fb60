package extract

// maxEmployeeID bounds the plausible id range; anything above it is a
// timestamp or hash that happened to sit in the right position.
const maxEmployeeID = 10_000_000

// EmployeeFromConnect mines a raw GlobalService "connect" response for
// the portal-scoped employee id and display name. The response has no
// stable schema, so this is a backward shape-scan:
//
//  1. Walk the string table from the end for the last two name-shaped
//     entries. The one nearer the end is the last name, the farther one
//     the first name.
//  2. Walk the data stream from the end for an integer equal to the
//     first name's table index whose predecessor is the literal type
//     ref 4. The integer two positions before that reference, if it sits
//     in a plausible id range, is the employee id.
//
// Returns id 0 (never an error) when the shape is absent; callers treat
// 0 as unset and fail fast later.
func EmployeeFromConnect(body string) (id int64, name string) {
	msg := tokenizeResponse(body)
	if msg == nil {
		return 0, ""
	}

	table := msg.StringTable()
	lastIdx, firstIdx := 0, 0 // 1-based table indices
	for i := len(table) - 1; i >= 0; i-- {
		if !looksLikeName(table[i]) {
			continue
		}
		if lastIdx == 0 {
			lastIdx = i + 1
			continue
		}
		firstIdx = i + 1
		break
	}
	if firstIdx == 0 {
		return 0, ""
	}
	name = table[firstIdx-1] + " " + table[lastIdx-1]

	tokens := msg.Tokens()
	for i := len(tokens) - 1; i >= 2; i-- {
		if !tokens[i].IsInt() || tokens[i].Int != int64(firstIdx) {
			continue
		}
		if !tokens[i-1].IsInt() || tokens[i-1].Int != 4 {
			continue
		}
		candidate := tokens[i-2]
		if candidate.IsInt() && candidate.Int > 0 && candidate.Int < maxEmployeeID {
			return candidate.Int, name
		}
	}
	return 0, ""
}

// EmployeeFromParametreIntranet recovers the HR-scoped employee id (the
// "real" id, distinct from the portal one) from a parametre-intranet
// response: the last integer in (0,100000) whose predecessor is the
// literal 3, scanning from the end.
func EmployeeFromParametreIntranet(body string) int64 {
	msg := tokenizeResponse(body)
	if msg == nil {
		return 0
	}
	tokens := msg.Tokens()
	for i := len(tokens) - 1; i >= 1; i-- {
		if !tokens[i].IsInt() {
			continue
		}
		n := tokens[i].Int
		if n <= 0 || n >= 100000 {
			continue
		}
		if tokens[i-1].IsInt() && tokens[i-1].Int == 3 {
			return n
		}
	}
	return 0
}
