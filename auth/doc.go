// Package auth authenticates write requests sent by network validators.
//
// A signed request body carries three extra fields: the claimed validator
// uid (at an endpoint-specific path), a nonce holding the sender's clock in
// nanoseconds, and a signature. Authenticate checks, in order:
//
//  1. required fields are present
//  2. the nonce is within the freshness window of the local clock
//  3. the (uid, nonce) pair was not consumed before in this endpoint class
//  4. the uid is registered in the current ValidatorRegistry snapshot
//  5. the signature covers canonical(body - nonce - signature) + address + nonce
//
// The first failing step decides the error. Verification failures of any kind
// are reported as ErrUnverified.
//
// # Registry
//
// ValidatorRegistry keeps an immutable Snapshot of uid -> address, replaced as
// a whole by Refresh. Run refreshes on a fixed interval. A failed refresh keeps
// serving the previous snapshot.
//
// # Replay ledger
//
// NonceLedger is partitioned by endpoint class. Inserting a nonce and
// expiring old ones happen under the same lock, so memory stays proportional
// to the requests of the trailing window. The ledger lives in memory only; a
// restart forgets consumed nonces, which is harmless as long as the window
// stays short.
//
// # Unsigned requests
//
// With Config.AllowUnsigned set, a body without a signature field is accepted
// without any check. Every such request is logged at WARN level and counted.
package auth
