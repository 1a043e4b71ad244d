// Package fingerprint derives one-way device fingerprints from
// client-reported browser characteristics and a per-binding salt.
//
// A fingerprint identifies one authorized device on one account. The raw
// user agent and screen descriptor are stored alongside the digest for
// audit purposes only; they are never re-validated after binding.
package fingerprint
