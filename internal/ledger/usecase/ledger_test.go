package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/ledger/settlement"
	"github.com/shandysiswandi/goledger/internal/ledger/store"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

func TestDepositCreditsNetAmount(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "0", true)
	uc := newTestUsecase(t, s)

	tx, err := uc.Deposit(context.Background(), "alice", DepositInput{AccountID: 1, Amount: amount("100")})
	require.NoError(t, err)

	assert.Equal(t, entity.TxTypeDeposit, tx.Type)
	assert.Equal(t, entity.TxStatusSettled, tx.Status)
	assert.Equal(t, "98.50", tx.Amount.String())
	assert.Nil(t, tx.FromAccountID)
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, int64(1), *tx.ToAccountID)
	assert.Equal(t, testNow, tx.CreatedAt)
	assert.Equal(t, "98.50", balanceOf(t, s, 1))
}

func TestDepositRejections(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "0", true)
	seed(t, s, 2, "alice", "key-b", "0", false)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	_, err := uc.Deposit(ctx, "alice", DepositInput{AccountID: 99, Amount: amount("10")})
	requireAppError(t, err, pkgerror.CodeNotFound, "Account Not Found")

	_, err = uc.Deposit(ctx, "alice", DepositInput{AccountID: 2, Amount: amount("10")})
	requireAppError(t, err, pkgerror.CodeForbidden, "The account is not active")

	_, err = uc.Deposit(ctx, "mallory", DepositInput{AccountID: 1, Amount: amount("10")})
	requireAppError(t, err, pkgerror.CodeForbidden, "Not Allowed")

	_, err = uc.Deposit(ctx, "alice", DepositInput{AccountID: 1, Amount: amount("2")})
	requireAppError(t, err, pkgerror.CodeInvalidInput, "")

	assert.Equal(t, "0.00", balanceOf(t, s, 1))
	txs, err := uc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestWithdrawScenario(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "100", true)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	tx, err := uc.Withdraw(ctx, "alice", WithdrawInput{AccountID: 1, Amount: amount("50")})
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeWithdraw, tx.Type)
	assert.Equal(t, entity.TxStatusSettled, tx.Status)
	assert.Equal(t, "50.00", tx.Amount.String())
	require.NotNil(t, tx.FromAccountID)
	assert.Equal(t, int64(1), *tx.FromAccountID)
	assert.Nil(t, tx.ToAccountID)
	assert.Equal(t, "48.50", balanceOf(t, s, 1))

	_, err = uc.Withdraw(ctx, "alice", WithdrawInput{AccountID: 1, Amount: amount("200")})
	requireAppError(t, err, pkgerror.CodeForbidden, "Your account does not have enough balance (201.50) for this transaction.")
	assert.Equal(t, "48.50", balanceOf(t, s, 1))
}

func TestWithdrawExactBalance(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "11.50", true)
	uc := newTestUsecase(t, s)

	_, err := uc.Withdraw(context.Background(), "alice", WithdrawInput{AccountID: 1, Amount: amount("10")})
	require.NoError(t, err)
	assert.Equal(t, "0.00", balanceOf(t, s, 1))
}

func TestSubCentAmountsAreRejected(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "100", true)
	seed(t, s, 2, "bob", "key-b", "0", true)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	_, err := uc.Deposit(ctx, "alice", DepositInput{AccountID: 1, Amount: amount("10.005")})
	requireAppError(t, err, pkgerror.CodeInvalidInput, "")

	_, err = uc.Withdraw(ctx, "alice", WithdrawInput{AccountID: 1, Amount: amount("10.005")})
	requireAppError(t, err, pkgerror.CodeInvalidInput, "")

	_, err = uc.Transfer(ctx, "alice", TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("5.001")})
	requireAppError(t, err, pkgerror.CodeInvalidInput, "")

	acc, err := s.GetAccount(ctx, entity.AccountLookup{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "100", acc.Balance.Text())
}

func TestTransferScenarioWithSettlement(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "10", true)
	seed(t, s, 2, "bob", "key-b", "0", true)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	_, err := uc.Transfer(ctx, "alice", TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("10")})
	requireAppError(t, err, pkgerror.CodeForbidden, "Your account does not have enough balance (11.50) for this transaction.")

	tx, err := uc.Transfer(ctx, "alice", TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("5")})
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeTransfer, tx.Type)
	assert.Equal(t, entity.TxStatusPending, tx.Status)
	assert.Equal(t, "5.00", tx.Amount.String())
	assert.Equal(t, "3.50", balanceOf(t, s, 1))
	assert.Equal(t, "0.00", balanceOf(t, s, 2), "receiver is credited only at settlement")

	sweeper := settlement.New(settlement.Dependency{
		Store: s,
		Clock: fixedClock{testNow.Add(49 * time.Hour)},
	})
	res, err := sweeper.SettleDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Settled)

	assert.Equal(t, "5.00", balanceOf(t, s, 2))
	assert.Equal(t, "3.50", balanceOf(t, s, 1))

	txs, err := uc.ListTransactions(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxStatusSettled, txs[0].Status)
}

func TestTransferRejections(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "100", true)
	seed(t, s, 2, "bob", "key-b", "0", true)
	seed(t, s, 3, "bob", "key-c", "0", false)
	seed(t, s, 4, "alice", "key-d", "100", false)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	tests := []struct {
		name string
		user string
		in   TransferInput
		code pkgerror.Code
		msg  string
	}{
		{name: "same account", user: "alice", in: TransferInput{AccountID: 1, AccountKey: "key-a", Amount: amount("5")}, code: pkgerror.CodeConflict, msg: "Transferring to the same account is not possible"},
		{name: "sender missing", user: "alice", in: TransferInput{AccountID: 9, AccountKey: "key-b", Amount: amount("5")}, code: pkgerror.CodeNotFound, msg: "Sender account with ID 9 not found"},
		{name: "sender inactive", user: "alice", in: TransferInput{AccountID: 4, AccountKey: "key-b", Amount: amount("5")}, code: pkgerror.CodeForbidden, msg: "Sender account with ID 4 is not active"},
		{name: "sender not owned", user: "bob", in: TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("5")}, code: pkgerror.CodeForbidden, msg: "Not Allowed"},
		{name: "receiver missing", user: "alice", in: TransferInput{AccountID: 1, AccountKey: "nope", Amount: amount("5")}, code: pkgerror.CodeNotFound, msg: "Receiver account with KEY nope not found"},
		{name: "receiver inactive", user: "alice", in: TransferInput{AccountID: 1, AccountKey: "key-c", Amount: amount("5")}, code: pkgerror.CodeForbidden, msg: "Receiver account with KEY key-c is not active"},
		{name: "missing key", user: "alice", in: TransferInput{AccountID: 1, Amount: amount("5")}, code: pkgerror.CodeInvalidInput},
		{name: "below minimum", user: "alice", in: TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("1")}, code: pkgerror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Transfer(ctx, tt.user, tt.in)
			requireAppError(t, err, tt.code, tt.msg)
		})
	}

	assert.Equal(t, "100.00", balanceOf(t, s, 1))
	txs, err := uc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "100", true)
	uc := newTestUsecase(t, s)

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Withdraw(context.Background(), "alice", WithdrawInput{AccountID: 1, Amount: amount("20")})
			if err == nil {
				ok.Add(1)
				return
			}
			var appErr *pkgerror.Error
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, pkgerror.CodeForbidden, appErr.Code())
			}
			rejected.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), ok.Load())
	assert.Equal(t, int32(6), rejected.Load())
	assert.Equal(t, "14.00", balanceOf(t, s, 1))
}

// busyStore fails RunAtomic with a serialization error a fixed number of
// times before delegating.
type busyStore struct {
	*store.InMemoryStore
	failures atomic.Int32
	calls    atomic.Int32
}

func (s *busyStore) RunAtomic(ctx context.Context, ops ...entity.Op) error {
	s.calls.Add(1)
	if s.failures.Add(-1) >= 0 {
		return pkgerror.ErrSerialization
	}
	return s.InMemoryStore.RunAtomic(ctx, ops...)
}

func TestSerializationFailuresAreRetried(t *testing.T) {
	mem := store.NewInMemoryStore()
	seed(t, mem, 1, "alice", "key-a", "100", true)
	s := &busyStore{InMemoryStore: mem}
	s.failures.Store(2)
	uc := newTestUsecase(t, s)

	_, err := uc.Withdraw(context.Background(), "alice", WithdrawInput{AccountID: 1, Amount: amount("50")})
	require.NoError(t, err)
	assert.Equal(t, int32(3), s.calls.Load())
	assert.Equal(t, "48.50", balanceOf(t, s, 1))
}

func TestSerializationRetryExhaustionIsConflict(t *testing.T) {
	mem := store.NewInMemoryStore()
	seed(t, mem, 1, "alice", "key-a", "100", true)
	s := &busyStore{InMemoryStore: mem}
	s.failures.Store(100)
	uc := newTestUsecase(t, s)

	_, err := uc.Deposit(context.Background(), "alice", DepositInput{AccountID: 1, Amount: amount("50")})
	requireAppError(t, err, pkgerror.CodeConflict, "the account is busy, please retry")
	assert.Equal(t, int32(3), s.calls.Load())
	assert.Equal(t, "100.00", balanceOf(t, s, 1))
}

type brokenStore struct {
	*store.InMemoryStore
}

func (brokenStore) RunAtomic(context.Context, ...entity.Op) error {
	return errors.New("connection reset by peer")
}

func TestUnexpectedStoreErrorIsHidden(t *testing.T) {
	mem := store.NewInMemoryStore()
	seed(t, mem, 1, "alice", "key-a", "100", true)
	uc := newTestUsecase(t, brokenStore{mem})

	_, err := uc.Withdraw(context.Background(), "alice", WithdrawInput{AccountID: 1, Amount: amount("5")})
	requireAppError(t, err, pkgerror.CodeUnexpected, "The request could not be processed")
}

func TestListTransactionsNewestFirst(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, 1, "alice", "key-a", "0", true)
	seed(t, s, 2, "bob", "key-b", "0", true)
	uc := newTestUsecase(t, s)
	ctx := context.Background()

	dep, err := uc.Deposit(ctx, "alice", DepositInput{AccountID: 1, Amount: amount("50")})
	require.NoError(t, err)
	wd, err := uc.Withdraw(ctx, "alice", WithdrawInput{AccountID: 1, Amount: amount("10")})
	require.NoError(t, err)
	tr, err := uc.Transfer(ctx, "alice", TransferInput{AccountID: 1, AccountKey: "key-b", Amount: amount("5")})
	require.NoError(t, err)

	txs, err := uc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []int64{tr.ID, wd.ID, dep.ID}, []int64{txs[0].ID, txs[1].ID, txs[2].ID})

	bobTxs, err := uc.ListTransactions(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobTxs, 1)
	assert.Equal(t, tr.ID, bobTxs[0].ID)
}
