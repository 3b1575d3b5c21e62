package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/nicheimage/ingest/crypto"
	"github.com/nicheimage/ingest/metrics"
)

// Endpoint describes how requests of one endpoint class are authenticated.
type Endpoint struct {
	// Class partitions the replay ledger.
	Class string

	// RequiredFields are dotted paths that must resolve in signed bodies.
	RequiredFields []string

	// IdentityField is the dotted path of the claimed validator uid.
	IdentityField string
}

var (
	// UploadEndpoint guards image and text uploads, which carry the uid in their metadata.
	UploadEndpoint = Endpoint{
		Class:          "upload",
		RequiredFields: []string{NonceField, SignatureField, "metadata.validator_uid"},
		IdentityField:  "metadata.validator_uid",
	}

	// StoreEndpoint guards miner status reports.
	StoreEndpoint = Endpoint{
		Class:          "store",
		RequiredFields: []string{NonceField, SignatureField, "uid"},
		IdentityField:  "uid",
	}
)

// Config configures an Authenticator.
type Config struct {
	Registry AddressResolver
	Ledger   *NonceLedger
	Scheme   crypto.Scheme

	// FreshnessWindow is the maximum distance between a nonce and the local clock.
	FreshnessWindow time.Duration

	// AllowUnsigned accepts bodies without a signature field and skips every
	// other check. Legacy validators predating request signing depend on it.
	AllowUnsigned bool

	Log *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Authenticator decides whether a write request comes from a registered,
// live validator and has not been seen before.
type Authenticator struct {
	registry      AddressResolver
	ledger        *NonceLedger
	scheme        crypto.Scheme
	window        time.Duration
	allowUnsigned bool
	log           *slog.Logger
	now           func() time.Time
}

// New creates an Authenticator.
func New(cfg *Config) (*Authenticator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("auth: registry is required")
	}

	a := &Authenticator{
		registry:      cfg.Registry,
		ledger:        cfg.Ledger,
		scheme:        cfg.Scheme,
		window:        cfg.FreshnessWindow,
		allowUnsigned: cfg.AllowUnsigned,
		log:           cfg.Log,
		now:           cfg.Now,
	}
	if a.window <= 0 {
		a.window = DefaultFreshnessWindow
	}
	if a.ledger == nil {
		a.ledger = NewNonceLedger(a.window)
	}
	if a.scheme == nil {
		a.scheme = crypto.Sr25519Scheme{}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Ledger returns the replay ledger used by the authenticator.
func (a *Authenticator) Ledger() *NonceLedger {
	return a.ledger
}

// Authenticate accepts or rejects body for ep. A nil error means the caller
// may perform its side effects. Once the nonce has been consumed it stays
// consumed, even if a later check rejects the request.
func (a *Authenticator) Authenticate(body Body, ep Endpoint) error {
	if !body.Has(SignatureField) && a.allowUnsigned {
		// TODO: drop unsigned access once every validator release signs its requests.
		a.log.Warn("Accepting unsigned legacy request", "class", ep.Class)
		metrics.AuthRequests.WithLabelValues(ep.Class, "unsigned").Inc()
		return nil
	}

	err := a.verify(body, ep)
	metrics.AuthRequests.WithLabelValues(ep.Class, resultLabel(err)).Inc()
	return err
}

func (a *Authenticator) verify(body Body, ep Endpoint) error {
	if !body.Has(SignatureField) {
		return &MissingFieldError{Field: SignatureField}
	}

	for _, field := range ep.RequiredFields {
		if _, ok := body.Lookup(field); !ok {
			return &MissingFieldError{Field: field}
		}
	}

	rawIdentity, ok := body.Lookup(ep.IdentityField)
	if !ok {
		return &MissingFieldError{Field: ep.IdentityField}
	}
	identity, err := parseInteger(rawIdentity)
	if err != nil {
		return unverified(err)
	}

	rawNonce, ok := body.Lookup(NonceField)
	if !ok {
		return &MissingFieldError{Field: NonceField}
	}
	nonce, err := parseInteger(rawNonce)
	if err != nil {
		return unverified(err)
	}
	nonceLiteral, err := literal(rawNonce)
	if err != nil {
		return unverified(err)
	}

	now := a.now()
	age := now.UnixNano() - nonce
	if age < 0 {
		age = -age
	}
	if age < 0 || age > a.window.Nanoseconds() {
		// age < 0 after negation means the distance overflowed int64.
		return ErrExpired
	}

	if err := a.ledger.CheckAndInsert(ep.Class, identity, nonce, now); err != nil {
		return err
	}

	signature, ok := body[SignatureField].(string)
	if !ok {
		return unverified(errors.New("signature is not a string"))
	}

	address, err := a.registry.Resolve(identity)
	if err != nil {
		return unverified(err)
	}

	message, err := SigningMessage(body, address, nonceLiteral)
	if err != nil {
		return unverified(err)
	}

	if err := a.scheme.Verify(address, message, signature); err != nil {
		a.log.Debug("Signature rejected", "class", ep.Class, "uid", identity, "err", err)
		return unverified(err)
	}
	return nil
}

// Sign completes body for uid: it sets the nonce and the signature produced by
// sign over the signing message. address must be the one registered for uid.
func Sign(body Body, address string, nonce int64, sign func([]byte) (crypto.Signature, error)) (Body, error) {
	nonceLiteral, err := literal(nonce)
	if err != nil {
		return nil, err
	}

	signed := body.Without(SignatureField)
	signed[NonceField] = nonceLiteral

	message, err := SigningMessage(signed, address, nonceLiteral)
	if err != nil {
		return nil, err
	}
	sig, err := sign(message)
	if err != nil {
		return nil, err
	}
	signed[SignatureField] = sig.String()
	return signed, nil
}
