// Package bwp implements the rotating-key obfuscation layer the portal
// applies to GWT-RPC payloads. It is obfuscation, not encryption: the key
// material travels in the first bytes of every envelope and the transform
// must be reproduced byte for byte or the server rejects the call.
//
// All arithmetic is defined per UTF-16 code unit, because that is how the
// portal's browser runtime indexes strings. Payloads are therefore
// converted to a []uint16 view before any math happens, and the 16-bit
// wraparound falls out of the uint16 type. Shifted code units can land in
// the surrogate range; those cross the string boundary in their raw
// three-byte form so that Decode(Encode(p, k)).Payload == p holds for
// every valid input.
package bwp

import (
	"math/rand"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Marker is the first code unit of every obfuscated payload.
const Marker = 0xA4

const (
	// MinKeys and MaxKeys bound the key array length for generated keys.
	MinKeys = 4
	MaxKeys = 37

	// MaxKeyValue bounds each individual key value (inclusive).
	MaxKeyValue = 14
)

// Envelope describes one decoded (or freshly encoded) BWP payload.
type Envelope struct {
	// Raw is the on-wire text, marker and key header included.
	Raw string
	// Keys is the rotating key array recovered from (or written into)
	// the header. Nil when the input was not BWP-framed.
	Keys []int
	// HeaderLength is 2+len(Keys): marker, key count, keys.
	HeaderLength int
	// Payload is the cleartext body.
	Payload string
	// Encoded reports whether Raw actually carried the BWP marker.
	Encoded bool
}

// IsEncoded reports whether the payload starts with the BWP marker.
// Empty input is not encoded.
func IsEncoded(payload string) bool {
	u := codeUnits(payload)
	return len(u) > 0 && u[0] == Marker
}

// Decode reverses the obfuscation transform. Input that does not carry
// the marker is passed through untouched with Encoded=false; the portal
// sends some methods ("connect") in the clear and callers must not have
// to care. Decode never fails: a truncated header simply yields the
// input unchanged.
func Decode(payload string) Envelope {
	u := codeUnits(payload)
	if len(u) == 0 || u[0] != Marker {
		return Envelope{Raw: payload, Payload: payload}
	}
	if len(u) < 2 {
		return Envelope{Raw: payload, Payload: payload}
	}

	keyCount := int(u[1]) - '0'
	if keyCount <= 0 || len(u) < 2+keyCount {
		return Envelope{Raw: payload, Payload: payload}
	}

	keys := make([]int, keyCount)
	for i := 0; i < keyCount; i++ {
		keys[i] = int(u[2+i]) - '0' - (i % 11)
	}

	body := u[2+keyCount:]
	decoded := make([]uint16, len(body))
	for i, c := range body {
		decoded[i] = uint16(int(c) - keys[i%keyCount] + (i % 17))
	}

	return Envelope{
		Raw:          payload,
		Keys:         keys,
		HeaderLength: 2 + keyCount,
		Payload:      codeUnitString(decoded),
		Encoded:      true,
	}
}

// Encode applies the obfuscation transform with the given key array.
// Pass nil keys to have a random array generated (length in
// [MinKeys,MaxKeys], values in [0,MaxKeyValue]). The same payload and
// keys always produce the same output.
func Encode(payload string, keys []int) string {
	if keys == nil {
		keys = GenerateKeys()
	}

	u := codeUnits(payload)
	out := make([]uint16, 0, 2+len(keys)+len(u))
	out = append(out, Marker, uint16('0'+len(keys)))
	for i, k := range keys {
		out = append(out, uint16('0'+k+(i%11)))
	}
	for i, c := range u {
		out = append(out, uint16(int(c)+keys[i%len(keys)]-(i%17)))
	}
	return codeUnitString(out)
}

const (
	surrMin = 0xD800
	surrMax = 0xE000
)

// codeUnits expands a string into its UTF-16 code unit view. Lone
// surrogates written by codeUnitString are recovered verbatim, which is
// what keeps the transform an exact inverse.
func codeUnits(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		if c, ok := decodeLoneSurrogate(s[i:]); ok {
			out = append(out, c)
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			out = append(out, uint16(hi), uint16(lo))
		} else {
			out = append(out, uint16(r))
		}
		i += size
	}
	return out
}

// codeUnitString materializes code units back into a string. Well formed
// surrogate pairs become the supplementary rune they spell; a lone
// surrogate is written as its raw three-byte sequence, which the Go
// UTF-8 encoder would otherwise replace with U+FFFD.
func codeUnitString(u []uint16) string {
	var b strings.Builder
	b.Grow(len(u) + len(u)/2)
	for i := 0; i < len(u); i++ {
		c := u[i]
		switch {
		case c < surrMin || c >= surrMax:
			b.WriteRune(rune(c))
		case c < 0xDC00 && i+1 < len(u) && u[i+1] >= 0xDC00 && u[i+1] < surrMax:
			b.WriteRune(utf16.DecodeRune(rune(c), rune(u[i+1])))
			i++
		default:
			b.WriteByte(0xE0 | byte(c>>12))
			b.WriteByte(0x80 | byte(c>>6)&0x3F)
			b.WriteByte(0x80 | byte(c)&0x3F)
		}
	}
	return b.String()
}

func decodeLoneSurrogate(s string) (uint16, bool) {
	if len(s) < 3 || s[0]&0xF0 != 0xE0 || s[1]&0xC0 != 0x80 || s[2]&0xC0 != 0x80 {
		return 0, false
	}
	c := uint16(s[0]&0x0F)<<12 | uint16(s[1]&0x3F)<<6 | uint16(s[2]&0x3F)
	if c < surrMin || c >= surrMax {
		return 0, false
	}
	return c, true
}

// GenerateKeys produces a fresh random key array within the valid
// bounds. Keys are not secret; randomizing them just matches what the
// browser client does on every request.
func GenerateKeys() []int {
	count := MinKeys + rand.Intn(MaxKeys-MinKeys+1)
	keys := make([]int, count)
	for i := range keys {
		keys[i] = rand.Intn(MaxKeyValue + 1)
	}
	return keys
}
