package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeIsOrderIndependent(t *testing.T) {
	a, err := ParseBody([]byte(`{"b":1,"a":{"y":2,"x":[1,"é"]},"c":null}`))
	require.NoError(t, err)
	b, err := ParseBody([]byte(`{"c":null, "a":{"x":[1, "é"], "y":2}, "b":1}`))
	require.NoError(t, err)

	ca, err := Canonicalize(a)
	require.NoError(t, err)
	cb, err := Canonicalize(b)
	require.NoError(t, err)

	require.Equal(t, ca, cb)
	require.Equal(t, `{"a":{"x":[1,"\u00e9"],"y":2},"b":1,"c":null}`, string(ca))
}

func TestCanonicalizeNumbers(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`1`, `1`},
		{`-0`, `0`},
		{`100000000000000000000000`, `100000000000000000000000`},
		{`1.0`, `1.0`},
		{`1.5`, `1.5`},
		{`0.1`, `0.1`},
		{`1e5`, `100000.0`},
		{`1E16`, `1e+16`},
		{`1e15`, `1000000000000000.0`},
		{`0.0001`, `0.0001`},
		{`0.00001`, `1e-05`},
		{`-0.0`, `-0.0`},
		{`123456789012345678.0`, `1.2345678901234568e+17`},
		{`2.5e-300`, `2.5e-300`},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			body, err := ParseBody([]byte(`{"v":` + tc.in + `}`))
			require.NoError(t, err)

			out, err := Canonicalize(body)
			require.NoError(t, err)
			require.Equal(t, `{"v":`+tc.want+`}`, string(out))
		})
	}
}

func TestCanonicalizeStrings(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"html characters are kept", "<a>&</a>", `"<a>&</a>"`},
		{"slash is kept", "a/b", `"a/b"`},
		{"quotes and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"short escapes", "a\tb\nc\rd\be\ff", `"a\tb\nc\rd\be\ff"`},
		{"control characters", "\x01\x1f", `"\u0001\u001f"`},
		{"delete", "\x7f", `"\u007f"`},
		{"latin", "café", `"caf\u00e9"`},
		{"line separator", "\u2028", `"\u2028"`},
		{"astral plane", "😀", `"\ud83d\ude00"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Canonicalize(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, string(out))
		})
	}
}

func TestCanonicalizeRejectsUnsupportedTypes(t *testing.T) {
	_, err := Canonicalize(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}

func TestSigningMessage(t *testing.T) {
	body, err := ParseBody([]byte(`{"uid":5,"nonce":"1700000000000000000","signature":"0xabc","info":{"b":true,"a":"x"}}`))
	require.NoError(t, err)

	msg, err := SigningMessage(body, "5Address", "1700000000000000000")
	require.NoError(t, err)
	require.Equal(t, `{"info":{"a":"x","b":true},"uid":5}5Address1700000000000000000`, string(msg))

	// The body itself is left untouched.
	require.Contains(t, body, NonceField)
	require.Contains(t, body, SignatureField)
}

func TestBodyLookup(t *testing.T) {
	body, err := ParseBody([]byte(`{"uid":3,"metadata":{"validator_uid":7,"inner":{"deep":"x"}},"list":[1]}`))
	require.NoError(t, err)

	v, ok := body.Lookup("uid")
	require.True(t, ok)
	require.EqualValues(t, "3", v)

	v, ok = body.Lookup("metadata.validator_uid")
	require.True(t, ok)
	require.EqualValues(t, "7", v)

	v, ok = body.Lookup("metadata.inner.deep")
	require.True(t, ok)
	require.Equal(t, "x", v)

	_, ok = body.Lookup("metadata.missing")
	require.False(t, ok)
	_, ok = body.Lookup("uid.nested")
	require.False(t, ok)
	_, ok = body.Lookup("list.0")
	require.False(t, ok)
}

func TestDecodeBodyRejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[]`, `null`, `"x"`, `{"a":1} {"b":2}`, `{`} {
		_, err := ParseBody([]byte(in))
		require.Error(t, err, in)
	}
}
