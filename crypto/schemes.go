package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
)

var ErrBadSignature = errors.New("signature not valid")

// SubstrateSigningContext is the schnorrkel context Substrate keypairs sign under.
var SubstrateSigningContext = []byte("substrate")

var (
	wrapPrefix = []byte("<Bytes>")
	wrapSuffix = []byte("</Bytes>")
)

// Scheme verifies a hex signature over a message against an address.
type Scheme interface {
	Name() string
	Verify(address string, message []byte, signature string) error
}

// SchemeByName returns the scheme registered under name.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", Sr25519Scheme{}.Name():
		return Sr25519Scheme{}, nil
	case Ed25519Scheme{}.Name():
		return Ed25519Scheme{}, nil
	}
	return nil, fmt.Errorf("unknown signature scheme %q", name)
}

// Sr25519Scheme verifies Substrate sr25519 signatures against SS58 addresses.
// Wallets that wrap messages in <Bytes>...</Bytes> before signing are accepted too.
type Sr25519Scheme struct{}

func (Sr25519Scheme) Name() string { return "sr25519" }

func (Sr25519Scheme) Verify(address string, message []byte, signature string) error {
	pub, _, err := DecodeSS58(address)
	if err != nil {
		return err
	}

	sig, err := ParseSignature(signature)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if verifySr25519(pub, message, sig) {
		return nil
	}

	wrapped := make([]byte, 0, len(wrapPrefix)+len(message)+len(wrapSuffix))
	wrapped = append(wrapped, wrapPrefix...)
	wrapped = append(wrapped, message...)
	wrapped = append(wrapped, wrapSuffix...)
	if verifySr25519(pub, wrapped, sig) {
		return nil
	}

	return ErrBadSignature
}

func verifySr25519(pub PublicKey, message []byte, sig Signature) bool {
	if len(pub) != 32 || len(sig) != 64 {
		return false
	}

	var pubBytes [32]byte
	copy(pubBytes[:], pub)
	pk := new(schnorrkel.PublicKey)
	if err := pk.Decode(pubBytes); err != nil {
		return false
	}

	var sigBytes [64]byte
	copy(sigBytes[:], sig)
	s := new(schnorrkel.Signature)
	if err := s.Decode(sigBytes); err != nil {
		return false
	}

	ok, err := pk.Verify(s, schnorrkel.NewSigningContext(SubstrateSigningContext, message))
	return err == nil && ok
}

// Sr25519Keypair is a signing hotkey, used by the signer CLI and tests.
type Sr25519Keypair struct {
	secret *schnorrkel.SecretKey
	public *schnorrkel.PublicKey
}

// GenerateSr25519Keypair creates a random hotkey.
func GenerateSr25519Keypair() (*Sr25519Keypair, error) {
	secret, public, err := schnorrkel.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return &Sr25519Keypair{secret: secret, public: public}, nil
}

// NewSr25519KeypairFromSeed expands a 32-byte mini secret key (the hex seed
// printed by substrate tooling) into a hotkey.
func NewSr25519KeypairFromSeed(seed []byte) (*Sr25519Keypair, error) {
	if len(seed) != 32 {
		return nil, errors.New("seed must be 32 bytes")
	}
	var raw [32]byte
	copy(raw[:], seed)
	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, err
	}
	secret := mini.ExpandEd25519()
	public, err := secret.Public()
	if err != nil {
		return nil, err
	}
	return &Sr25519Keypair{secret: secret, public: public}, nil
}

// PublicKey returns the raw public key.
func (k *Sr25519Keypair) PublicKey() PublicKey {
	encoded := k.public.Encode()
	return NewPublicKeyFromBytes(encoded[:])
}

// Address returns the SS58 address under the Substrate prefix.
func (k *Sr25519Keypair) Address() string {
	address, _ := EncodeSS58(k.PublicKey(), SubstratePrefix)
	return address
}

// Sign signs message under the Substrate signing context.
func (k *Sr25519Keypair) Sign(message []byte) (Signature, error) {
	sig, err := k.secret.Sign(schnorrkel.NewSigningContext(SubstrateSigningContext, message))
	if err != nil {
		return nil, err
	}
	encoded := sig.Encode()
	return NewSignature(encoded[:]), nil
}

// Ed25519Scheme verifies ed25519 signatures against hex-encoded public keys.
type Ed25519Scheme struct{}

func (Ed25519Scheme) Name() string { return "ed25519" }

func (Ed25519Scheme) Verify(address string, message []byte, signature string) error {
	pub, err := NewPublicKeyFromString(address)
	if err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return errors.New("invalid public key size")
	}

	sig, err := ParseSignature(signature)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		return ErrBadSignature
	}
	return nil
}
