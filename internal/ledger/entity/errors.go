package entity

import "errors"

var (
	// ErrInsufficientFunds is returned by an atomic unit whose debit would
	// leave a negative balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotPending is returned when settling a transaction that is not PENDING.
	ErrNotPending = errors.New("transaction is not pending")
)

// ErrAccountInUse is returned when deleting an account referenced by transactions.
var ErrAccountInUse = errors.New("account is referenced by transactions")
