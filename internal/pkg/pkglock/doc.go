// Package pkglock provides mutual exclusion across service instances.
//
// The Redis implementation uses redsync (RedLock) so that background jobs
// scheduled on every replica run on at most one of them at a time.
package pkglock
