package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/crypto"
)

const testSeed = "0x" + "e5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a"

func TestRunSignsBody(t *testing.T) {
	var out bytes.Buffer
	err := run(testSeed, "-", "", strings.NewReader(`{"uid": 3, "info": {"b": 1, "a": [true]}}`), &out)
	require.NoError(t, err)

	body, err := auth.ParseBody(out.Bytes())
	require.NoError(t, err)
	require.Contains(t, body, auth.NonceField)
	require.Contains(t, body, auth.SignatureField)

	seed, err := hex.DecodeString(strings.TrimPrefix(testSeed, "0x"))
	require.NoError(t, err)
	kp, err := crypto.NewSr25519KeypairFromSeed(seed)
	require.NoError(t, err)

	nonce := body[auth.NonceField].(string)
	message, err := auth.SigningMessage(body, kp.Address(), nonce)
	require.NoError(t, err)
	require.NoError(t, crypto.Sr25519Scheme{}.Verify(kp.Address(), message, body[auth.SignatureField].(string)))
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer

	require.ErrorContains(t, run("", "-", "", strings.NewReader(`{}`), &out), "seed is required")
	require.Error(t, run("zz", "-", "", strings.NewReader(`{}`), &out))
	require.Error(t, run("0x00", "-", "", strings.NewReader(`{}`), &out))
	require.Error(t, run(testSeed, "-", "", strings.NewReader(`[1, 2]`), &out))
	require.Error(t, run(testSeed, "/does/not/exist.json", "", nil, &out))
	require.Empty(t, out.String())
}
