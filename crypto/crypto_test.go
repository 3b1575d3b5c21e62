package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// Well-known development account "Alice".
const (
	aliceAddress   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	alicePublicKey = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
)

func TestDecodeSS58KnownAddress(t *testing.T) {
	pub, prefix, err := DecodeSS58(aliceAddress)
	require.NoError(t, err)
	require.Equal(t, SubstratePrefix, prefix)
	require.Equal(t, alicePublicKey, pub.String())
}

func TestEncodeSS58KnownAddress(t *testing.T) {
	raw, err := hex.DecodeString(alicePublicKey)
	require.NoError(t, err)

	address, err := EncodeSS58(raw, SubstratePrefix)
	require.NoError(t, err)
	require.Equal(t, aliceAddress, address)
}

func TestSS58TwoBytePrefix(t *testing.T) {
	raw, err := hex.DecodeString(alicePublicKey)
	require.NoError(t, err)

	address, err := EncodeSS58(raw, 1284)
	require.NoError(t, err)

	pub, prefix, err := DecodeSS58(address)
	require.NoError(t, err)
	require.Equal(t, uint16(1284), prefix)
	require.True(t, pub.Equal(raw))
}

func TestDecodeSS58Rejects(t *testing.T) {
	_, _, err := DecodeSS58("not-base58-0OIl")
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, _, err = DecodeSS58("5Grwva")
	require.ErrorIs(t, err, ErrInvalidAddress)

	// Flip the last character to break the checksum.
	tampered := aliceAddress[:len(aliceAddress)-1] + "Z"
	_, _, err = DecodeSS58(tampered)
	require.Error(t, err)
}

func TestSr25519SignVerify(t *testing.T) {
	kp, err := GenerateSr25519Keypair()
	require.NoError(t, err)

	msg := []byte(`{"uid":5}` + kp.Address() + "1700000000000000000")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	scheme := Sr25519Scheme{}
	require.NoError(t, scheme.Verify(kp.Address(), msg, sig.String()))

	// Hex without the 0x prefix is accepted as well.
	require.NoError(t, scheme.Verify(kp.Address(), msg, hex.EncodeToString(sig)))

	require.ErrorIs(t, scheme.Verify(kp.Address(), []byte("other"), sig.String()), ErrBadSignature)

	other, err := GenerateSr25519Keypair()
	require.NoError(t, err)
	require.ErrorIs(t, scheme.Verify(other.Address(), msg, sig.String()), ErrBadSignature)
}

func TestSr25519AcceptsBytesWrappedMessages(t *testing.T) {
	kp, err := GenerateSr25519Keypair()
	require.NoError(t, err)

	msg := []byte("payload")
	sig, err := kp.Sign([]byte("<Bytes>payload</Bytes>"))
	require.NoError(t, err)

	require.NoError(t, Sr25519Scheme{}.Verify(kp.Address(), msg, sig.String()))
}

func TestSr25519MalformedInputs(t *testing.T) {
	kp, err := GenerateSr25519Keypair()
	require.NoError(t, err)

	scheme := Sr25519Scheme{}
	require.Error(t, scheme.Verify(kp.Address(), []byte("m"), "zz"))
	require.Error(t, scheme.Verify(kp.Address(), []byte("m"), "0x1234"))
	require.Error(t, scheme.Verify("garbage", []byte("m"), "0x1234"))
}

func TestSr25519KeypairFromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7

	a, err := NewSr25519KeypairFromSeed(seed)
	require.NoError(t, err)
	b, err := NewSr25519KeypairFromSeed(seed)
	require.NoError(t, err)
	require.Equal(t, a.Address(), b.Address())

	_, err = NewSr25519KeypairFromSeed(seed[:16])
	require.Error(t, err)
}

func TestEd25519Scheme(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := Sign(priv, msg)
	require.NoError(t, err)

	scheme := Ed25519Scheme{}
	require.NoError(t, scheme.Verify(pub.String(), msg, sig.String()))
	require.ErrorIs(t, scheme.Verify(pub.String(), []byte("bye"), sig.String()), ErrBadSignature)
	require.Error(t, scheme.Verify("abcd", msg, sig.String()))
}

func TestSchemeByName(t *testing.T) {
	s, err := SchemeByName("")
	require.NoError(t, err)
	require.Equal(t, "sr25519", s.Name())

	s, err = SchemeByName("ed25519")
	require.NoError(t, err)
	require.Equal(t, "ed25519", s.Name())

	_, err = SchemeByName("rsa")
	require.Error(t, err)
}
