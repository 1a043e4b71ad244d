// Package credentials produces the cryptographic material the auth flows
// need: password digests, recovery paraphrases, per-device salts, and the
// registration keypair.
//
// All randomness comes from crypto/rand; generation failures surface as
// wrapped sentinel errors so callers can fail the whole operation fast.
// Nothing in this package performs I/O.
package credentials
