// Package pkgerror carries the typed errors returned by ledger operations.
//
// An Error pairs a user-facing message with a Code (invalid input, not found,
// forbidden, conflict, ...). The HTTP layer maps the Code to a status and
// writes the message as is, so the message is part of the API contract.
package pkgerror
