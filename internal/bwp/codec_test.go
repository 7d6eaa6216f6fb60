package bwp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTrip verifies decode(encode(x,k)) == x across payloads that
// exercise quoting, commas, control characters and non-ASCII text.
func TestRoundTrip(t *testing.T) {
	payloads := []string{
		"",
		"7",
		`5,"NULL","ChaineBWT","hello",1,2,3`,
		"line1\nline2\ttabbed",
		`quotes "inside" and \backslashes\`,
		"accents éàüß and beyond ☃ ‰ 日本語",
		"private use  and Hangul 힠퟿ near the surrogate range",
		"emoji \U0001F600 split across two code units",
		strings.Repeat("abc,def\"ghi\n", 50),
	}
	keySets := [][]int{
		{0, 0, 0, 0},
		{14, 14, 14, 14, 14},
		{13, 13, 4, 13, 10, 1, 10, 7},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0, 1, 2, 3, 4, 5, 6, 7},
	}

	for _, p := range payloads {
		for _, k := range keySets {
			encoded := Encode(p, k)
			env := Decode(encoded)
			require.True(t, env.Encoded, "encoded payload must carry the marker")
			assert.Equal(t, p, env.Payload)
			assert.Equal(t, k, env.Keys)
			assert.Equal(t, 2+len(k), env.HeaderLength)
		}
	}
}

func TestIsEncoded(t *testing.T) {
	assert.False(t, IsEncoded(""))
	assert.False(t, IsEncoded("5,\"NULL\",1"))
	assert.False(t, IsEncoded("plain text"))
	assert.True(t, IsEncoded(Encode("anything", nil)))
	assert.True(t, IsEncoded(string(rune(Marker))+"rest"))
}

// TestEncodeDeterministic pins that a fixed key array always yields the
// same output, while omitted keys randomize it.
func TestEncodeDeterministic(t *testing.T) {
	const p = `3,"NULL","ChaineBWT","x",1,2,3`
	k := []int{2, 7, 1, 8, 2, 8}

	assert.Equal(t, Encode(p, k), Encode(p, k))

	// Random keys differ across calls with overwhelming probability,
	// but every variant still round-trips.
	a, b := Encode(p, nil), Encode(p, nil)
	assert.NotEqual(t, a, b)
	assert.Equal(t, p, Decode(a).Payload)
	assert.Equal(t, p, Decode(b).Payload)
}

// TestFixedKeyVector is the known-answer test: this exact ciphertext was
// produced by the reference transform for these keys and must never
// drift, since the server validates the bytes.
func TestFixedKeyVector(t *testing.T) {
	const plaintext = `5,"com.bodet.bwp.badge.BadgerSignalerRequeteBWT","badgerSignaler","ChaineBWT","f3d1","EntierBWT",1,2,3,4,5,574,1714399200`
	keys := []int{13, 13, 4, 13, 10, 1, 10, 7}

	const want = "\u00a48=>6@>6@>B8$mui2bth_v,Vsh+odonb3CgibhqHf`l^pqzPks|kpiBMR\x1c+ Vnmflu[pdsbcdm\"+\x17@raqrnJUZ$$\"b4d' &#Ns~rdyEPU\x1f.2#1'$6:7?,=;../:3,35+,7<"

	got := Encode(plaintext, keys)
	require.Equal(t, want, got)

	env := Decode(got)
	require.True(t, env.Encoded)
	assert.Equal(t, plaintext, env.Payload)
	assert.Equal(t, keys, env.Keys)
	assert.Equal(t, 10, env.HeaderLength)
}

// TestDecodePassthrough pins that malformed or unframed input is
// returned unchanged instead of failing; raw "connect" responses take
// this path in production.
func TestDecodePassthrough(t *testing.T) {
	for _, p := range []string{"", "raw connect body", string(rune(Marker))} {
		env := Decode(p)
		assert.False(t, env.Encoded)
		assert.Equal(t, p, env.Payload)
		assert.Nil(t, env.Keys)
	}

	// Marker with a truncated key header.
	trunc := string([]rune{Marker, '9', 'A'})
	env := Decode(trunc)
	assert.False(t, env.Encoded)
	assert.Equal(t, trunc, env.Payload)
}

// TestRoundTripShiftedIntoSurrogates pins payloads whose shifted code
// units land inside 0xD800-0xDFFF. U+E000 at index 1 with key 0 shifts
// to 0xDFFF; the encoded form must carry that unit without replacement
// and decode back to the original text.
func TestRoundTripShiftedIntoSurrogates(t *testing.T) {
	cases := []struct {
		payload string
		keys    []int
	}{
		{"a", []int{0, 0, 0, 0}},
		{"ퟸퟹퟺ", []int{13, 13, 4, 13}},
		{"x", []int{0, 0, 0, 0}},
	}
	for _, tc := range cases {
		env := Decode(Encode(tc.payload, tc.keys))
		require.True(t, env.Encoded)
		assert.Equal(t, tc.payload, env.Payload)
		assert.Equal(t, tc.keys, env.Keys)
	}
}

func TestGenerateKeysBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		keys := GenerateKeys()
		require.GreaterOrEqual(t, len(keys), MinKeys)
		require.LessOrEqual(t, len(keys), MaxKeys)
		for _, k := range keys {
			require.GreaterOrEqual(t, k, 0)
			require.LessOrEqual(t, k, MaxKeyValue)
		}
	}
}
