package crypto

import (
	"bytes"
	"testing"
)

func FuzzEd25519SignVerify(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("hello"))
	f.Add([]byte(`{"uid":5}` + "1700000000000000000"))
	f.Add(make([]byte, 1000))

	f.Fuzz(func(t *testing.T, data []byte) {
		pubKey, privKey, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("failed to generate key pair: %v", err)
		}

		signature, err := Sign(privKey, data)
		if err != nil {
			t.Fatalf("signing failed: %v", err)
		}
		if len(signature) != 64 {
			t.Errorf("signature wrong length: got %d, want 64", len(signature))
		}

		scheme := Ed25519Scheme{}
		if err := scheme.Verify(pubKey.String(), data, signature.String()); err != nil {
			t.Errorf("signature verification failed with correct key: %v", err)
		}

		wrongPubKey, _, _ := GenerateKeyPair()
		if scheme.Verify(wrongPubKey.String(), data, signature.String()) == nil {
			t.Error("signature should not verify with wrong public key")
		}

		if len(data) > 0 {
			modified := bytes.Clone(data)
			modified[0] ^= 0xFF
			if scheme.Verify(pubKey.String(), modified, signature.String()) == nil {
				t.Error("signature should not verify with modified data")
			}
		}

		signature2, _ := Sign(privKey, data)
		if !bytes.Equal(signature, signature2) {
			t.Error("signing is not deterministic")
		}
	})
}

func FuzzSS58RoundTrip(f *testing.F) {
	f.Add(make([]byte, 32), uint16(42))
	f.Add(bytes.Repeat([]byte{0xff}, 32), uint16(0))
	f.Add(bytes.Repeat([]byte{0x5a}, 32), uint16(1284))

	f.Fuzz(func(t *testing.T, pub []byte, prefix uint16) {
		address, err := EncodeSS58(pub, prefix)
		if err != nil {
			if len(pub) == 32 && prefix <= 16383 {
				t.Fatalf("valid key rejected: %v", err)
			}
			return
		}

		decoded, decodedPrefix, err := DecodeSS58(address)
		if err != nil {
			t.Fatalf("decoding %s: %v", address, err)
		}
		if decodedPrefix != prefix {
			t.Errorf("prefix mismatch: got %d, want %d", decodedPrefix, prefix)
		}
		if !decoded.Equal(pub) {
			t.Error("public key does not round trip")
		}
	})
}

func FuzzDecodeSS58(f *testing.F) {
	f.Add("")
	f.Add("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	f.Add("0OIl")

	f.Fuzz(func(t *testing.T, address string) {
		pub, prefix, err := DecodeSS58(address)
		if err != nil {
			return
		}
		if len(pub) != 32 {
			t.Errorf("decoded key wrong size: %d", len(pub))
		}
		if reencoded, err := EncodeSS58(pub, prefix); err != nil || reencoded != address {
			t.Errorf("re-encoding mismatch: got %q (%v), want %q", reencoded, err, address)
		}
	})
}

func FuzzPrivateKeyPublicKey(f *testing.F) {
	f.Add(uint8(0))

	f.Fuzz(func(t *testing.T, _ uint8) {
		pubKey, privKey, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("failed to generate key pair: %v", err)
		}

		extractedPubKey, err := privKey.PublicKey()
		if err != nil {
			t.Fatalf("failed to extract public key: %v", err)
		}
		if !bytes.Equal(pubKey, extractedPubKey) {
			t.Error("extracted public key doesn't match generated public key")
		}
		if len(pubKey) != 32 {
			t.Errorf("public key wrong size: got %d, want 32", len(pubKey))
		}
		if len(privKey) != 64 {
			t.Errorf("private key wrong size: got %d, want 64", len(privKey))
		}
	})
}

func FuzzNewPublicKeyFromString(f *testing.F) {
	f.Add("")
	f.Add("00")
	f.Add("0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		pubKey, err := NewPublicKeyFromString(input)
		if err != nil {
			return
		}

		raw, _ := DecodeHex(input)
		if !bytes.Equal(pubKey, raw) {
			t.Errorf("decoded bytes mismatch for %q", input)
		}
		if again, err := NewPublicKeyFromString(pubKey.String()); err != nil || !again.Equal(pubKey) {
			t.Error("string form does not round trip")
		}
	})
}
