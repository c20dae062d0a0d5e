package usecase

import (
	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

const (
	msgAccountNotFound  = "Account Not Found"
	msgAccountNotActive = "The account is not active"
	msgNotAllowed       = "Not Allowed"
)

// GuardOptions customises Validate. The zero value enforces ownership and
// uses the default messages.
type GuardOptions struct {
	NotFoundMsg   string
	NotActiveMsg  string
	SkipOwnership bool
}

// OwnsAccount is the default ownership capability: the user owns the account
// when the account was opened by that user.
func OwnsAccount(userID string, acc entity.Account) bool {
	return userID != "" && acc.OwnerID == userID
}

// Validate gates every money-moving or destructive operation on acc.
// Checks run in order: existence, active status, ownership.
func (u *Usecase) Validate(userID string, acc *entity.Account, opts GuardOptions) error {
	if acc == nil {
		msg := opts.NotFoundMsg
		if msg == "" {
			msg = msgAccountNotFound
		}
		return pkgerror.NewNotFound(msg)
	}

	if !acc.IsActive {
		msg := opts.NotActiveMsg
		if msg == "" {
			msg = msgAccountNotActive
		}
		return pkgerror.NewForbidden(msg)
	}

	if !opts.SkipOwnership && !u.owns(userID, *acc) {
		return pkgerror.NewForbidden(msgNotAllowed)
	}

	return nil
}
