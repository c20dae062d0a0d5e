// Package pkgretry retries transient failures with exponential backoff.
//
// Delays grow as base * 2^attempt and are spread with full jitter so that
// callers that collided once do not collide again on the next attempt.
package pkgretry
