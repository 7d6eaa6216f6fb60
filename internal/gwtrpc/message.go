// Package gwtrpc models the portal's text-based RPC format: a payload is
// a comma-separated string table followed by a stream of typed data
// tokens that reference back into the table by 1-based index.
package gwtrpc

import "strings"

// TokenKind classifies a data token.
type TokenKind int

const (
	// KindInteger is an optionally signed run of digits with no dot.
	KindInteger TokenKind = iota
	// KindFloat is a digit run containing a dot.
	KindFloat
	// KindIdentifier is anything else: NULL, ENUM, ARRAY1_Foo, ...
	KindIdentifier
)

// Token is one entry of the data stream. Tokens never carry raw strings;
// string-valued fields appear as integer references into the table.
type Token struct {
	Kind  TokenKind
	Int   int64
	Float float64
	Text  string // identifier text, or the raw literal for numbers
}

// IsInt reports whether the token is an integer literal.
func (t Token) IsInt() bool { return t.Kind == KindInteger }

// IsIdentifier reports whether the token is the given bare identifier.
func (t Token) IsIdentifier(name string) bool {
	return t.Kind == KindIdentifier && t.Text == name
}

// Suffixes of the envelope type in stringTable[0] that mark message
// direction, and the marker the server uses for application faults.
const (
	RequestSuffix   = "RequeteBWT"
	ResponseSuffix  = "ReponseBWT"
	ExceptionMarker = "ExceptionBWT"
)

// responseTypeExclusions are envelope and wrapper type names that never
// identify the domain payload. Used by ResponseType's heuristic.
var responseTypeExclusions = map[string]bool{
	"NULL":         true,
	"ListeBWT":     true,
	"BooleenBWT":   true,
	"EntierBWT":    true,
	"ChaineBWT":    true,
	"RequeteBWT":   true,
	"ReponseBWT":   true,
	"EnveloppeBWT": true,
}

// Message is an immutable tokenized payload.
type Message struct {
	stringTable []string
	tokens      []Token
}

// StringTable returns the ordered table. Callers must not mutate it.
func (m *Message) StringTable() []string { return m.stringTable }

// Tokens returns the ordered data stream. Callers must not mutate it.
func (m *Message) Tokens() []Token { return m.tokens }

// GetString resolves a 1-based table reference; out-of-range indices
// (including 0, the "no string" sentinel) yield the empty string.
func (m *Message) GetString(i int) string {
	if i <= 0 || i > len(m.stringTable) {
		return ""
	}
	return m.stringTable[i-1]
}

// IsRequest reports whether the envelope type carries the request suffix.
func (m *Message) IsRequest() bool {
	return len(m.stringTable) > 0 && strings.HasSuffix(m.stringTable[0], RequestSuffix)
}

// IsResponse reports whether the envelope type carries the response suffix.
func (m *Message) IsResponse() bool {
	return len(m.stringTable) > 0 && strings.HasSuffix(m.stringTable[0], ResponseSuffix)
}

// ResponseType returns the first table entry that is not an envelope or
// wrapper type name. This is a heuristic: payloads with unusual table
// orderings can misreport, and callers treat the result as advisory.
func (m *Message) ResponseType() string {
	for _, s := range m.stringTable {
		if responseTypeExclusions[s] {
			continue
		}
		if isWrapperTypeName(s) {
			continue
		}
		return s
	}
	return ""
}

// HasException reports whether the payload names the server's generic
// exception type anywhere in the table.
func (m *Message) HasException() bool {
	for _, s := range m.stringTable {
		if strings.Contains(s, ExceptionMarker) {
			return true
		}
	}
	return false
}

func isWrapperTypeName(s string) bool {
	return strings.HasSuffix(s, RequestSuffix) || strings.HasSuffix(s, ResponseSuffix)
}

// IsServerException reports whether a decoded body carries the generic
// application fault marker. It works on the raw text so callers can
// short-circuit before tokenizing.
func IsServerException(body string) bool {
	return strings.Contains(body, ExceptionMarker)
}
