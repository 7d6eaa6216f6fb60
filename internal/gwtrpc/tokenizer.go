package gwtrpc

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse tokenizes a payload of the form
//
//	stringCount "," stringEntry{stringCount} "," dataToken{*}
//
// String entries are either double-quoted (with \" \\ \t \n escapes) or
// bare. Commas are legal inside quoted entries, so splitting is done
// with quote-state tracking: a segment that opens a quote without
// closing it is re-joined with following segments until the closing
// quote arrives. The data stream after the table is classified into
// integer, float and identifier tokens.
//
// Parse is permissive about the data stream (the wire format has no
// published grammar) but rejects payloads whose header or table is
// structurally broken.
func Parse(payload string) (*Message, error) {
	segments := splitQuoteAware(payload)
	if len(segments) == 0 {
		return nil, fmt.Errorf("gwtrpc: empty payload")
	}

	count, err := strconv.Atoi(strings.TrimSpace(segments[0]))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("gwtrpc: bad string count %q", segments[0])
	}
	if len(segments) < 1+count {
		return nil, fmt.Errorf("gwtrpc: table truncated: want %d entries, have %d segments", count, len(segments)-1)
	}

	table := make([]string, count)
	for i := 0; i < count; i++ {
		entry, err := unquote(segments[1+i])
		if err != nil {
			return nil, fmt.Errorf("gwtrpc: table entry %d: %w", i+1, err)
		}
		table[i] = entry
	}

	rest := segments[1+count:]
	tokens := make([]Token, 0, len(rest))
	for _, seg := range rest {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		tokens = append(tokens, classify(seg))
	}

	return &Message{stringTable: table, tokens: tokens}, nil
}

// splitQuoteAware splits on commas while keeping quoted regions intact.
// Escaped quotes inside a quoted region do not terminate it.
func splitQuoteAware(s string) []string {
	var (
		segments []string
		start    int
		inQuote  bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			segments = append(segments, s[start:i])
			start = i + 1
		}
	}
	segments = append(segments, s[start:])
	return segments
}

// unquote resolves one table entry. Bare entries pass through verbatim.
func unquote(seg string) (string, error) {
	if !strings.HasPrefix(seg, `"`) {
		return seg, nil
	}
	if len(seg) < 2 || !strings.HasSuffix(seg, `"`) {
		return "", fmt.Errorf("unterminated quote in %q", seg)
	}
	body := seg[1 : len(seg)-1]

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in %q", seg)
		}
		switch body[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		default:
			// Unknown escapes pass through untouched; the browser
			// client does the same.
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

// Quote renders a table entry the way the portal expects it on requests.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\t", `\t`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func classify(seg string) Token {
	if isIntegerLiteral(seg) {
		n, err := strconv.ParseInt(seg, 10, 64)
		if err == nil {
			return Token{Kind: KindInteger, Int: n, Text: seg}
		}
	}
	if isFloatLiteral(seg) {
		f, err := strconv.ParseFloat(seg, 64)
		if err == nil {
			return Token{Kind: KindFloat, Float: f, Text: seg}
		}
	}
	return Token{Kind: KindIdentifier, Text: seg}
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isFloatLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	dot := false
	digits := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '.':
			if dot {
				return false
			}
			dot = true
		case s[i] >= '0' && s[i] <= '9':
			digits = true
		default:
			return false
		}
	}
	return dot && digits
}
