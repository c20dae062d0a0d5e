package entity

import "time"

// Transaction is a ledger entry. Amount is the face amount requested by the
// caller for withdraw and transfer, and the net credited amount for deposit.
type Transaction struct {
	ID            int64
	Amount        Amount
	Type          TxType
	Status        TxStatus
	FromAccountID *int64
	ToAccountID   *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Touches reports whether the transaction moves money in or out of accountID.
func (t Transaction) Touches(accountID int64) bool {
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		return true
	}
	return t.ToAccountID != nil && *t.ToAccountID == accountID
}
