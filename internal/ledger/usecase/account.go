package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

const maxKeyCollisions = 3

// CreateAccount opens an active, zero-balance account owned by userID.
func (u *Usecase) CreateAccount(ctx context.Context, userID string) (entity.Account, error) {
	if err := u.ready(); err != nil {
		return entity.Account{}, err
	}

	now := u.clock.Now()
	for range maxKeyCollisions {
		acc := entity.Account{
			ID:        u.id.Generate(),
			OwnerID:   userID,
			Key:       u.key.Generate(),
			Balance:   entity.Zero,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := u.store.CreateAccount(ctx, acc)
		if err == nil {
			slog.InfoContext(ctx, "account created", "account_id", acc.ID, "owner_id", userID)
			return acc, nil
		}
		if !errors.Is(err, pkgerror.ErrDuplicate) {
			return entity.Account{}, normalizeErr(err)
		}

		slog.WarnContext(ctx, "account key collision", "owner_id", userID)
	}

	return entity.Account{}, pkgerror.NewConflict("could not allocate a unique account key")
}

// ListAccounts returns every account owned by userID.
func (u *Usecase) ListAccounts(ctx context.Context, userID string) ([]entity.Account, error) {
	if err := u.readable(); err != nil {
		return nil, err
	}
	accounts, err := u.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return accounts, nil
}

// GetAccount returns one of userID's accounts.
func (u *Usecase) GetAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error) {
	if err := u.readable(); err != nil {
		return entity.Account{}, err
	}

	acc, err := u.findAccount(ctx, entity.AccountLookup{ID: accountID})
	if err != nil {
		return entity.Account{}, normalizeErr(err)
	}

	if err := u.Validate(userID, acc, GuardOptions{}); err != nil {
		return entity.Account{}, err
	}

	return *acc, nil
}

// DeactivateAccount switches an account off. Inactive accounts reject every
// money-moving operation but keep their history.
func (u *Usecase) DeactivateAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error) {
	if err := u.readable(); err != nil {
		return entity.Account{}, err
	}

	acc, err := u.findAccount(ctx, entity.AccountLookup{ID: accountID})
	if err != nil {
		return entity.Account{}, normalizeErr(err)
	}

	if err := u.Validate(userID, acc, GuardOptions{}); err != nil {
		return entity.Account{}, err
	}

	updated, err := u.store.SetAccountActive(ctx, accountID, false, u.clock.Now())
	if err != nil {
		return entity.Account{}, mapAccountErr(err)
	}

	slog.InfoContext(ctx, "account deactivated", "account_id", accountID)
	return updated, nil
}

// DeleteAccount removes an empty account that has never moved money.
func (u *Usecase) DeleteAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error) {
	if err := u.readable(); err != nil {
		return entity.Account{}, err
	}

	acc, err := u.findAccount(ctx, entity.AccountLookup{ID: accountID})
	if err != nil {
		return entity.Account{}, normalizeErr(err)
	}

	if err := u.Validate(userID, acc, GuardOptions{}); err != nil {
		return entity.Account{}, err
	}

	if !acc.Balance.Equal(entity.Zero) {
		return entity.Account{}, pkgerror.NewConflict("the account balance must be zero before deletion")
	}

	deleted, err := u.store.DeleteAccount(ctx, accountID)
	if err != nil {
		return entity.Account{}, mapAccountErr(err)
	}

	slog.InfoContext(ctx, "account deleted", "account_id", accountID)
	return deleted, nil
}

func mapAccountErr(err error) error {
	switch {
	case errors.Is(err, pkgerror.ErrNotFound):
		return pkgerror.NewNotFound(msgAccountNotFound)
	case errors.Is(err, entity.ErrAccountInUse):
		return pkgerror.NewConflict("the account has transactions, deactivate it instead")
	default:
		return normalizeErr(err)
	}
}
