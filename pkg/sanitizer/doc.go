// Package sanitizer normalizes untrusted client input before validation
// and storage.
package sanitizer
