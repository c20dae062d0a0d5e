package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgretry"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

type Store interface {
	CreateAccount(ctx context.Context, acc entity.Account) error
	GetAccount(ctx context.Context, lookup entity.AccountLookup) (entity.Account, error)
	ListAccounts(ctx context.Context, ownerID string) ([]entity.Account, error)
	SetAccountActive(ctx context.Context, id int64, active bool, at time.Time) (entity.Account, error)
	DeleteAccount(ctx context.Context, id int64) (entity.Account, error)
	ListTransactions(ctx context.Context, ownerID string) ([]entity.Transaction, error)
	// RunAtomic applies ops as one serializable unit: all of them or none.
	RunAtomic(ctx context.Context, ops ...entity.Op) error
}

type Clock interface {
	Now() time.Time
}

// OwnershipFunc reports whether userID may act on acc.
type OwnershipFunc func(userID string, acc entity.Account) bool

// DefaultFee is retained on every deposit, withdraw and transfer.
var DefaultFee = entity.MustAmount("1.5")

// DefaultMinAmount is the smallest amount accepted for a money-moving operation.
var DefaultMinAmount = entity.MustAmount("3")

type Dependency struct {
	Store     Store
	Clock     Clock
	ID        pkguid.NumberID
	Key       pkguid.StringID
	Ownership OwnershipFunc
	Fee       *entity.Amount
	MinAmount *entity.Amount
	Retry     pkgretry.Policy
}

type Usecase struct {
	store     Store
	clock     Clock
	id        pkguid.NumberID
	key       pkguid.StringID
	owns      OwnershipFunc
	fee       entity.Amount
	minAmount entity.Amount
	retry     pkgretry.Policy
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	owns := dep.Ownership
	if owns == nil {
		owns = OwnsAccount
	}

	fee := DefaultFee
	if dep.Fee != nil {
		fee = *dep.Fee
	}

	minAmount := DefaultMinAmount
	if dep.MinAmount != nil {
		minAmount = *dep.MinAmount
	}

	key := dep.Key
	if key == nil {
		key = pkguid.NewRandomUUID()
	}

	return &Usecase{
		store:     dep.Store,
		clock:     clock,
		id:        dep.ID,
		key:       key,
		owns:      owns,
		fee:       fee,
		minAmount: minAmount,
		retry:     dep.Retry,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Fee returns the fixed fee applied to every operation.
func (u *Usecase) Fee() entity.Amount {
	return u.fee
}

// GrossAmount is amount plus fee: what leaves the account on withdraw and transfer.
func (u *Usecase) GrossAmount(amount entity.Amount) entity.Amount {
	return amount.Add(u.fee)
}

// NetAmount is amount minus fee: what reaches the account on deposit.
func (u *Usecase) NetAmount(amount entity.Amount) entity.Amount {
	return amount.Sub(u.fee)
}

// ready guards operations that create rows; readable guards the rest.
func (u *Usecase) ready() error {
	if err := u.readable(); err != nil {
		return err
	}
	if u.id == nil {
		return pkgerror.NewServer(errors.New("missing dependency: id generator"))
	}
	return nil
}

func (u *Usecase) readable() error {
	if u.store == nil {
		return pkgerror.NewServer(errors.New("missing dependency: store"))
	}
	return nil
}

// runAtomic commits ops, retrying the whole unit on serialization failures.
func (u *Usecase) runAtomic(ctx context.Context, ops ...entity.Op) error {
	return pkgretry.Do(ctx, u.retry, pkgerror.IsRetryable, func(ctx context.Context) error {
		return u.store.RunAtomic(ctx, ops...)
	})
}

// findAccount returns nil without error when the account does not exist.
func (u *Usecase) findAccount(ctx context.Context, lookup entity.AccountLookup) (*entity.Account, error) {
	acc, err := u.store.GetAccount(ctx, lookup)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (u *Usecase) checkAmount(amount entity.Amount) error {
	if !amount.IsPositive() {
		return pkgerror.NewInvalidInput(errors.New("amount must be positive"))
	}
	if !amount.WithinScale() {
		return pkgerror.NewInvalidInput(errors.New("amount must not have more than 2 decimal places"))
	}
	if amount.LessThan(u.minAmount) {
		return pkgerror.NewInvalidInput(errors.New("amount must not be less than " + u.minAmount.String()))
	}
	return nil
}

func normalizeErr(err error) error {
	if errors.Is(err, pkgerror.ErrSerialization) {
		return pkgerror.NewConflict("the account is busy, please retry")
	}
	return pkgerror.Normalize(err)
}
