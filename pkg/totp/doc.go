// Package totp implements time-based one-time passwords (RFC 4226/6238)
// for the second login factor: secret generation, provisioning URI
// construction for authenticator apps, and code validation with a clock
// drift window of ±2 time steps.
//
// The implementation is self-contained; no third-party OTP library is
// involved. Validation is a pure function of secret, code, and time - it
// performs no I/O, keeps no state, and a still-fresh code validates as many
// times as it is submitted.
//
// # See Also
//
//   - RFC 4226 - HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 - Time-Based One-Time Password (TOTP) Algorithm
package totp
