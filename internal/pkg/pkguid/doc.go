// Package pkguid generates identifiers.
//
// Account and transaction IDs are snowflakes, account keys are random UUIDs
// and correlation IDs are time-ordered UUIDs.
package pkguid
