// Package pkglog configures slog for the service.
//
// Records are JSON on stdout. The context handler stamps every record logged
// with a request context with the correlation ID (_cID) and the acting user
// (user_id), so a deposit or transfer can be traced from the access log to the
// ledger entry it produced.
package pkglog
