// Package qrcode renders TOTP provisioning URIs as scannable PNG images,
// either as raw bytes or as a data URI for direct embedding in the one-time
// registration response.
package qrcode
