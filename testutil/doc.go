/*
Package testutil provides fixtures for tests that exercise request
authentication end to end.

Validators are derived deterministically from a seed phrase, so the same
options always produce the same addresses:

	set, _ := testutil.NewValidatorSet(
	    testutil.WithValidatorCount(8),
	    testutil.WithBlock(4_000_000),
	)

	source := services.NewStaticSource(set.Snapshot)

Bodies are signed the same way a validator signs them before posting:

	raw, _ := testutil.SignedJSON(set.Keypairs[2], auth.Body{
	    "metadata": map[string]any{"validator_uid": 2},
	}, time.Now())

This package is intended for testing purposes only and should not be used in
production code.
*/
package testutil
