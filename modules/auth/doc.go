// Package auth implements multi-factor device-binding authentication for
// the Romusha forum.
//
// Every account carries three factors established at registration: a
// bcrypt-hashed password, a TOTP secret delivered once as an otpauth QR
// code, and a list of trusted device fingerprints. A fourth artifact, the
// five-character recovery paraphrase, is not a login factor; it gates
// binding additional devices to the account.
//
// Login passes four gates strictly in order: password, device trust, TOTP
// code, and a challenge acknowledgment. Each gate failure maps to its own
// sentinel error so the HTTP layer can report which stage rejected the
// attempt.
//
// Persistence is abstracted behind the Repository interface; the storage
// subpackage ships in-memory, JSON flat-file, MongoDB, and Postgres
// implementations.
package auth
