package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

// Deposit credits amount minus the fee to the account, settled immediately.
func (u *Usecase) Deposit(ctx context.Context, userID string, in DepositInput) (entity.Transaction, error) {
	if err := u.ready(); err != nil {
		return entity.Transaction{}, err
	}
	if err := u.checkAmount(in.Amount); err != nil {
		return entity.Transaction{}, err
	}

	acc, err := u.findAccount(ctx, entity.AccountLookup{ID: in.AccountID})
	if err != nil {
		return entity.Transaction{}, normalizeErr(err)
	}
	if err := u.Validate(userID, acc, GuardOptions{}); err != nil {
		return entity.Transaction{}, err
	}

	net := u.NetAmount(in.Amount)
	if !net.IsPositive() {
		return entity.Transaction{}, pkgerror.NewInvalidInput(errors.New("amount does not cover the fee"))
	}

	tx := u.newTransaction(entity.TxTypeDeposit, entity.TxStatusSettled, net, nil, &acc.ID)
	if err := u.runAtomic(ctx,
		entity.InsertTransaction{Tx: tx},
		entity.AdjustBalance{AccountID: acc.ID, Delta: net},
	); err != nil {
		return entity.Transaction{}, mapCommitErr(err, in.Amount)
	}

	slog.InfoContext(ctx, "deposit committed", "tx_id", tx.ID, "account_id", acc.ID, "net_amount", net.String())
	return tx, nil
}

// Withdraw debits amount plus the fee from the account, settled immediately.
func (u *Usecase) Withdraw(ctx context.Context, userID string, in WithdrawInput) (entity.Transaction, error) {
	if err := u.ready(); err != nil {
		return entity.Transaction{}, err
	}
	if err := u.checkAmount(in.Amount); err != nil {
		return entity.Transaction{}, err
	}

	acc, err := u.findAccount(ctx, entity.AccountLookup{ID: in.AccountID})
	if err != nil {
		return entity.Transaction{}, normalizeErr(err)
	}
	if err := u.Validate(userID, acc, GuardOptions{}); err != nil {
		return entity.Transaction{}, err
	}

	gross := u.GrossAmount(in.Amount)
	if acc.Balance.LessThan(gross) {
		return entity.Transaction{}, insufficientBalance(gross)
	}

	tx := u.newTransaction(entity.TxTypeWithdraw, entity.TxStatusSettled, in.Amount, &acc.ID, nil)
	if err := u.runAtomic(ctx,
		entity.InsertTransaction{Tx: tx},
		entity.AdjustBalance{AccountID: acc.ID, Delta: gross.Neg(), RequireFunds: true},
	); err != nil {
		return entity.Transaction{}, mapCommitErr(err, gross)
	}

	slog.InfoContext(ctx, "withdraw committed", "tx_id", tx.ID, "account_id", acc.ID, "gross_amount", gross.String())
	return tx, nil
}

// Transfer reserves amount plus the fee on the sender and records a PENDING
// transfer to the account addressed by key. The receiver is credited later by
// the settlement sweep.
func (u *Usecase) Transfer(ctx context.Context, userID string, in TransferInput) (entity.Transaction, error) {
	if err := u.ready(); err != nil {
		return entity.Transaction{}, err
	}
	if in.AccountKey == "" {
		return entity.Transaction{}, pkgerror.NewInvalidInput(errors.New("account key is required"))
	}
	if err := u.checkAmount(in.Amount); err != nil {
		return entity.Transaction{}, err
	}

	var sender, receiver *entity.Account
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sender, err = u.findAccount(gctx, entity.AccountLookup{ID: in.AccountID})
		return err
	})
	g.Go(func() (err error) {
		receiver, err = u.findAccount(gctx, entity.AccountLookup{Key: in.AccountKey})
		return err
	})
	if err := g.Wait(); err != nil {
		return entity.Transaction{}, normalizeErr(err)
	}

	if err := u.Validate(userID, sender, GuardOptions{
		NotFoundMsg:  fmt.Sprintf("Sender account with ID %d not found", in.AccountID),
		NotActiveMsg: fmt.Sprintf("Sender account with ID %d is not active", in.AccountID),
	}); err != nil {
		return entity.Transaction{}, err
	}

	if err := u.Validate(userID, receiver, GuardOptions{
		NotFoundMsg:   fmt.Sprintf("Receiver account with KEY %s not found", in.AccountKey),
		NotActiveMsg:  fmt.Sprintf("Receiver account with KEY %s is not active", in.AccountKey),
		SkipOwnership: true,
	}); err != nil {
		return entity.Transaction{}, err
	}

	if sender.ID == receiver.ID {
		return entity.Transaction{}, pkgerror.NewConflict("Transferring to the same account is not possible")
	}

	gross := u.GrossAmount(in.Amount)
	if sender.Balance.LessThan(gross) {
		return entity.Transaction{}, insufficientBalance(gross)
	}

	tx := u.newTransaction(entity.TxTypeTransfer, entity.TxStatusPending, in.Amount, &sender.ID, &receiver.ID)
	if err := u.runAtomic(ctx,
		entity.InsertTransaction{Tx: tx},
		entity.AdjustBalance{AccountID: sender.ID, Delta: gross.Neg(), RequireFunds: true},
	); err != nil {
		return entity.Transaction{}, mapCommitErr(err, gross)
	}

	slog.InfoContext(ctx, "transfer reserved",
		"tx_id", tx.ID,
		"from_account_id", sender.ID,
		"to_account_id", receiver.ID,
		"gross_amount", gross.String(),
	)
	return tx, nil
}

// ListTransactions returns every transaction sent or received by one of
// userID's accounts, newest first.
func (u *Usecase) ListTransactions(ctx context.Context, userID string) ([]entity.Transaction, error) {
	if err := u.readable(); err != nil {
		return nil, err
	}

	txs, err := u.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return txs, nil
}

func (u *Usecase) newTransaction(typ entity.TxType, status entity.TxStatus, amount entity.Amount, from, to *int64) entity.Transaction {
	now := u.clock.Now()
	return entity.Transaction{
		ID:            u.id.Generate(),
		Amount:        amount,
		Type:          typ,
		Status:        status,
		FromAccountID: from,
		ToAccountID:   to,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func insufficientBalance(gross entity.Amount) error {
	return pkgerror.NewForbidden(fmt.Sprintf("Your account does not have enough balance (%s) for this transaction.", gross))
}

func mapCommitErr(err error, gross entity.Amount) error {
	switch {
	case errors.Is(err, entity.ErrInsufficientFunds):
		return insufficientBalance(gross)
	case errors.Is(err, pkgerror.ErrNotFound):
		return pkgerror.NewNotFound(msgAccountNotFound)
	default:
		return normalizeErr(err)
	}
}
