package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/christophergoltz/elogio-sub000/internal/gwtrpc"
)

// typeNameFragments disqualify a table entry from being a person name.
// The table mixes RPC type names with data, and type names are the usual
// false positives.
var typeNameFragments = []string{"BWT", "Message", "Service", "Exception", "Abstract"}

// looksLikeName reports whether a table entry is "name-shaped": 2-30
// runes, leading capital, not all-caps, no dot, no type-name fragment.
func looksLikeName(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 || len(runes) > 30 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	if strings.ContainsRune(s, '.') {
		return false
	}
	if s == strings.ToUpper(s) {
		return false
	}
	for _, frag := range typeNameFragments {
		if strings.Contains(s, frag) {
			return false
		}
	}
	return true
}

var clockPattern = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

// isClockString reports whether a table entry is a short HH:MM time.
func isClockString(s string) bool {
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	m := clockPattern.FindStringSubmatch(s)
	return m != nil && m[0] == s
}

// clockToDuration converts "H:MM" / "HH:MM" into a duration. Returns
// false for anything that is not a short clock string.
func clockToDuration(s string) (time.Duration, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return 0, false
	}
	h := int(s[0] - '0')
	rest := s[2:]
	if s[1] != ':' {
		h = h*10 + int(s[1]-'0')
		rest = s[3:]
	}
	mm := int(rest[0]-'0')*10 + int(rest[1]-'0')
	if mm > 59 {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute, true
}

// isDateLiteral reports whether an integer token is an 8-digit YYYYMMDD
// date within the portal's plausible range.
func isDateLiteral(n int64) bool {
	return n >= 19000101 && n <= 29991231
}

// dateFromLiteral converts an 8-digit YYYYMMDD literal into a UTC date.
// Invalid dates (month 13, day 0, ...) return the zero time.
func dateFromLiteral(n int64) time.Time {
	y := int(n / 10000)
	m := int(n / 100 % 100)
	d := int(n % 100)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// tokenizeResponse parses a decoded body, filtering out payloads that
// carry the server fault marker or fail to tokenize at all. A nil return
// is the parsers' usual shape-mismatch signal.
func tokenizeResponse(body string) *gwtrpc.Message {
	if body == "" || gwtrpc.IsServerException(body) {
		return nil
	}
	msg, err := gwtrpc.Parse(body)
	if err != nil {
		return nil
	}
	return msg
}

// hasDomainType reports whether any table entry ends with the given
// domain-type suffix.
func hasDomainType(msg *gwtrpc.Message, suffix string) bool {
	for _, s := range msg.StringTable() {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
