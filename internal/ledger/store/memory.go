package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

// InMemoryStore keeps accounts and transactions in process memory. Every
// atomic unit runs under one lock, which makes it trivially serializable.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[int64]entity.Account
	keys     map[string]int64
	txs      map[int64]entity.Transaction
	order    []int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[int64]entity.Account),
		keys:     make(map[string]int64),
		txs:      make(map[int64]entity.Transaction),
	}
}

func (s *InMemoryStore) CreateAccount(ctx context.Context, acc entity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.ID]; exists {
		return pkgerror.ErrDuplicate
	}
	if _, exists := s.keys[acc.Key]; exists {
		return pkgerror.ErrDuplicate
	}

	s.accounts[acc.ID] = acc
	s.keys[acc.Key] = acc.ID

	return nil
}

func (s *InMemoryStore) GetAccount(ctx context.Context, lookup entity.AccountLookup) (entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := lookup.ID
	if id == 0 {
		id = s.keys[lookup.Key]
	}

	acc, ok := s.accounts[id]
	if !ok || !lookup.Matches(acc) {
		return entity.Account{}, pkgerror.ErrNotFound
	}

	return acc, nil
}

func (s *InMemoryStore) ListAccounts(ctx context.Context, ownerID string) ([]entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entity.Account, 0)
	for _, acc := range s.accounts {
		if acc.OwnerID == ownerID {
			items = append(items, acc)
		}
	}

	slices.SortFunc(items, func(a, b entity.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return items, nil
}

func (s *InMemoryStore) SetAccountActive(ctx context.Context, id int64, active bool, at time.Time) (entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return entity.Account{}, pkgerror.ErrNotFound
	}

	acc.IsActive = active
	acc.UpdatedAt = at
	s.accounts[id] = acc

	return acc, nil
}

func (s *InMemoryStore) DeleteAccount(ctx context.Context, id int64) (entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return entity.Account{}, pkgerror.ErrNotFound
	}

	for _, tx := range s.txs {
		if tx.Touches(id) {
			return entity.Account{}, entity.ErrAccountInUse
		}
	}

	delete(s.accounts, id)
	delete(s.keys, acc.Key)

	return acc, nil
}

func (s *InMemoryStore) ListTransactions(ctx context.Context, ownerID string) ([]entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entity.Transaction, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		tx := s.txs[s.order[i]]
		if s.ownedBy(tx.FromAccountID, ownerID) || s.ownedBy(tx.ToAccountID, ownerID) {
			items = append(items, tx)
		}
	}

	return items, nil
}

// ListStalePending returns PENDING transactions created strictly before cutoff.
func (s *InMemoryStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entity.Transaction, 0)
	for _, id := range s.order {
		tx := s.txs[id]
		if tx.Status == entity.TxStatusPending && tx.CreatedAt.Before(cutoff) {
			items = append(items, tx)
		}
	}

	return items, nil
}

func (s *InMemoryStore) RunAtomic(ctx context.Context, ops ...entity.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage on copies so a failing op leaves the store untouched.
	accounts := make(map[int64]entity.Account)
	txs := make(map[int64]entity.Transaction)
	var inserted []int64

	account := func(id int64) (entity.Account, bool) {
		if acc, ok := accounts[id]; ok {
			return acc, true
		}
		acc, ok := s.accounts[id]
		return acc, ok
	}
	transaction := func(id int64) (entity.Transaction, bool) {
		if tx, ok := txs[id]; ok {
			return tx, true
		}
		tx, ok := s.txs[id]
		return tx, ok
	}

	for _, op := range ops {
		switch o := op.(type) {
		case entity.InsertTransaction:
			if _, exists := transaction(o.Tx.ID); exists {
				return pkgerror.ErrDuplicate
			}
			txs[o.Tx.ID] = o.Tx
			inserted = append(inserted, o.Tx.ID)

		case entity.AdjustBalance:
			acc, ok := account(o.AccountID)
			if !ok {
				return pkgerror.ErrNotFound
			}
			balance := acc.Balance.Add(o.Delta)
			if o.RequireFunds && balance.IsNegative() {
				return entity.ErrInsufficientFunds
			}
			acc.Balance = balance
			accounts[o.AccountID] = acc

		case entity.SettleTransaction:
			tx, ok := transaction(o.ID)
			if !ok {
				return pkgerror.ErrNotFound
			}
			if tx.Status != entity.TxStatusPending {
				return entity.ErrNotPending
			}
			tx.Status = entity.TxStatusSettled
			tx.UpdatedAt = o.At
			txs[o.ID] = tx

		default:
			return errUnknownOp(op)
		}
	}

	for id, acc := range accounts {
		s.accounts[id] = acc
	}
	for id, tx := range txs {
		s.txs[id] = tx
	}
	s.order = append(s.order, inserted...)

	return nil
}

func (s *InMemoryStore) ownedBy(accountID *int64, ownerID string) bool {
	if accountID == nil {
		return false
	}
	acc, ok := s.accounts[*accountID]
	return ok && acc.OwnerID == ownerID
}
