package entity

import "time"

// Op is one step of an atomic store unit. See Store.RunAtomic implementations.
type Op interface {
	op()
}

// InsertTransaction appends Tx to the ledger.
type InsertTransaction struct {
	Tx Transaction
}

// AdjustBalance adds Delta to the account balance. With RequireFunds set the
// step fails with ErrInsufficientFunds when the result would drop below zero.
type AdjustBalance struct {
	AccountID    int64
	Delta        Amount
	RequireFunds bool
}

// SettleTransaction moves a PENDING transaction to SETTLED. It fails with
// ErrNotPending when the transaction is in any other state.
type SettleTransaction struct {
	ID int64
	At time.Time
}

func (InsertTransaction) op() {}
func (AdjustBalance) op()     {}
func (SettleTransaction) op() {}
