package extract

import "regexp"

// uuidPattern matches the portal's context handles, which are plain
// UUIDs dropped into the string table of scoped connect responses.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ContextIDFromConnect recovers the calendar context id from a
// calendar-scoped connect response: the last UUID-shaped string table
// entry. Empty string on shape mismatch, never an error.
func ContextIDFromConnect(body string) string {
	msg := tokenizeResponse(body)
	if msg == nil {
		return ""
	}
	table := msg.StringTable()
	for i := len(table) - 1; i >= 0; i-- {
		if uuidPattern.MatchString(table[i]) {
			return table[i]
		}
	}
	return ""
}
