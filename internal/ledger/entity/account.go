package entity

import "time"

type Account struct {
	ID        int64
	OwnerID   string
	Key       string
	Balance   Amount
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountLookup addresses a single account by primary id or by public key.
// When both are set the account must match both.
type AccountLookup struct {
	ID  int64
	Key string
}

func (l AccountLookup) Matches(acc Account) bool {
	if l.ID == 0 && l.Key == "" {
		return false
	}
	if l.ID != 0 && acc.ID != l.ID {
		return false
	}
	return l.Key == "" || acc.Key == l.Key
}
