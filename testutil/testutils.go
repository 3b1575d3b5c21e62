package testutil

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/crypto"
)

// TestNetUID is the subnet used by fixtures unless overridden.
const TestNetUID uint16 = 23

// ValidatorSet is a group of deterministic sr25519 validators and the
// snapshot that registers them.
type ValidatorSet struct {
	Keypairs []*crypto.Sr25519Keypair
	Snapshot *auth.Snapshot

	offset int64
}

type validatorSetOptions struct {
	count  int
	netUID uint16
	block  uint64
	seed   string
	offset int64
}

// ValidatorSetOption customizes NewValidatorSet.
type ValidatorSetOption func(*validatorSetOptions)

// WithValidatorCount sets the number of validators.
func WithValidatorCount(n int) ValidatorSetOption {
	return func(o *validatorSetOptions) { o.count = n }
}

// WithNetUID sets the snapshot subnet.
func WithNetUID(netUID uint16) ValidatorSetOption {
	return func(o *validatorSetOptions) { o.netUID = netUID }
}

// WithBlock sets the snapshot block height.
func WithBlock(block uint64) ValidatorSetOption {
	return func(o *validatorSetOptions) { o.block = block }
}

// WithSeed changes the phrase keys are derived from, producing a disjoint set.
func WithSeed(seed string) ValidatorSetOption {
	return func(o *validatorSetOptions) { o.seed = seed }
}

// WithUIDOffset registers the first validator at uid offset instead of 0.
func WithUIDOffset(offset int64) ValidatorSetOption {
	return func(o *validatorSetOptions) { o.offset = offset }
}

// NewValidatorSet derives validators from a fixed seed so that addresses are
// stable across test runs.
func NewValidatorSet(opts ...ValidatorSetOption) (*ValidatorSet, error) {
	o := &validatorSetOptions{
		count:  4,
		netUID: TestNetUID,
		block:  1,
		seed:   "nicheimage-test-validator",
	}
	for _, opt := range opts {
		opt(o)
	}

	set := &ValidatorSet{Keypairs: make([]*crypto.Sr25519Keypair, o.count), offset: o.offset}
	addresses := make(map[int64]string, o.count)
	for i := 0; i < o.count; i++ {
		seed := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", o.seed, i)))
		kp, err := crypto.NewSr25519KeypairFromSeed(seed[:])
		if err != nil {
			return nil, err
		}
		set.Keypairs[i] = kp
		addresses[o.offset+int64(i)] = kp.Address()
	}
	set.Snapshot = auth.NewSnapshot(o.netUID, o.block, addresses)
	return set, nil
}

// Keypair returns the validator registered at uid, or nil.
func (s *ValidatorSet) Keypair(uid int64) *crypto.Sr25519Keypair {
	i := uid - s.offset
	if i < 0 || i >= int64(len(s.Keypairs)) {
		return nil
	}
	return s.Keypairs[i]
}

// Hotkeys returns the registered addresses ordered by uid, in the shape a
// metagraph endpoint serves them. Only meaningful without a uid offset.
func (s *ValidatorSet) Hotkeys() []string {
	uids := s.Snapshot.UIDs()
	hotkeys := make([]string, 0, len(uids))
	for _, uid := range uids {
		addr, _ := s.Snapshot.Address(uid)
		hotkeys = append(hotkeys, addr)
	}
	return hotkeys
}

// SignBody signs body as kp with the given nonce time.
func SignBody(kp *crypto.Sr25519Keypair, body auth.Body, at time.Time) (auth.Body, error) {
	return auth.Sign(body, kp.Address(), at.UnixNano(), kp.Sign)
}

// SignedJSON signs body and returns its wire encoding.
func SignedJSON(kp *crypto.Sr25519Keypair, body auth.Body, at time.Time) ([]byte, error) {
	signed, err := SignBody(kp, body, at)
	if err != nil {
		return nil, err
	}
	return json.Marshal(signed)
}
