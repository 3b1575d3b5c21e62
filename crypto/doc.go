// Package crypto provides the address and signature primitives used to
// authenticate validator requests.
//
// Validators on the network are identified by Substrate hotkeys. A hotkey is
// an sr25519 public key, shown to users as an SS58 address. This package
// implements:
//
//   - SS58 address encoding and decoding (base58 + blake2b-512 checksum)
//   - sr25519 signature verification under the "substrate" signing context
//   - ed25519 signatures over hex-encoded public keys, for deployments that
//     do not use Substrate keys
//
// Both schemes implement Scheme, so the authenticator is independent of the
// key type in use.
package crypto
