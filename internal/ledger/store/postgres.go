package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
)

const (
	accountColumns     = "id, owner_id, key, balance::text, is_active, created_at, updated_at"
	transactionColumns = "id, amount::text, type, status, from_account_id, to_account_id, created_at, updated_at"
)

// PostgresStore persists the ledger in PostgreSQL. Atomic units run at
// SERIALIZABLE isolation; conflicts surface as pkgerror.ErrSerialization.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return pool, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, acc entity.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, owner_id, key, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		acc.ID, acc.OwnerID, acc.Key, acc.Balance.Text(), acc.IsActive, acc.CreatedAt, acc.UpdatedAt,
	)
	return mapPgErr(err)
}

func (s *PostgresStore) GetAccount(ctx context.Context, lookup entity.AccountLookup) (entity.Account, error) {
	var conds []string
	var args []any
	if lookup.ID != 0 {
		args = append(args, lookup.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if lookup.Key != "" {
		args = append(args, lookup.Key)
		conds = append(conds, fmt.Sprintf("key = $%d", len(args)))
	}
	if len(conds) == 0 {
		return entity.Account{}, pkgerror.ErrNotFound
	}

	row := s.pool.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE "+strings.Join(conds, " AND "), args...)
	return scanAccount(row)
}

func (s *PostgresStore) ListAccounts(ctx context.Context, ownerID string) ([]entity.Account, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+accountColumns+" FROM accounts WHERE owner_id = $1 ORDER BY created_at, id", ownerID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	items := make([]entity.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, acc)
	}

	return items, mapPgErr(rows.Err())
}

func (s *PostgresStore) SetAccountActive(ctx context.Context, id int64, active bool, at time.Time) (entity.Account, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE accounts SET is_active = $2, updated_at = $3 WHERE id = $1 RETURNING "+accountColumns,
		id, active, at,
	)
	return scanAccount(row)
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, id int64) (entity.Account, error) {
	row := s.pool.QueryRow(ctx, "DELETE FROM accounts WHERE id = $1 RETURNING "+accountColumns, id)
	return scanAccount(row)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, ownerID string) ([]entity.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions t
		WHERE EXISTS (
			SELECT 1 FROM accounts a
			WHERE a.owner_id = $1 AND (a.id = t.from_account_id OR a.id = t.to_account_id)
		)
		ORDER BY t.created_at DESC, t.id DESC`, ownerID)
}

// ListStalePending returns PENDING transactions created strictly before cutoff.
func (s *PostgresStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]entity.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at, id`, cutoff)
}

func (s *PostgresStore) RunAtomic(ctx context.Context, ops ...entity.Op) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapPgErr(err)
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	for _, op := range ops {
		if err := applyOp(ctx, tx, op); err != nil {
			return err
		}
	}

	return mapPgErr(tx.Commit(ctx))
}

func applyOp(ctx context.Context, tx pgx.Tx, op entity.Op) error {
	switch o := op.(type) {
	case entity.InsertTransaction:
		t := o.Tx
		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, amount, type, status, from_account_id, to_account_id, created_at, updated_at)
			VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.Amount.Text(), string(t.Type), string(t.Status), t.FromAccountID, t.ToAccountID, t.CreatedAt, t.UpdatedAt,
		)
		return mapPgErr(err)

	case entity.AdjustBalance:
		var raw string
		err := tx.QueryRow(ctx,
			"UPDATE accounts SET balance = balance + $2::numeric, updated_at = NOW() WHERE id = $1 RETURNING balance::text",
			o.AccountID, o.Delta.Text(),
		).Scan(&raw)
		if err != nil {
			return mapPgErr(err)
		}
		balance, err := entity.ParseAmount(raw)
		if err != nil {
			return err
		}
		if o.RequireFunds && balance.IsNegative() {
			return entity.ErrInsufficientFunds
		}
		return nil

	case entity.SettleTransaction:
		tag, err := tx.Exec(ctx,
			"UPDATE transactions SET status = 'SETTLED', updated_at = $2 WHERE id = $1 AND status = 'PENDING'",
			o.ID, o.At,
		)
		if err != nil {
			return mapPgErr(err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)", o.ID).Scan(&exists); err != nil {
			return mapPgErr(err)
		}
		if !exists {
			return pkgerror.ErrNotFound
		}
		return entity.ErrNotPending

	default:
		return errUnknownOp(op)
	}
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...any) ([]entity.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	items := make([]entity.Transaction, 0)
	for rows.Next() {
		var t entity.Transaction
		var amount, typ, status string
		if err := rows.Scan(&t.ID, &amount, &typ, &status, &t.FromAccountID, &t.ToAccountID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		if t.Amount, err = entity.ParseAmount(amount); err != nil {
			return nil, err
		}
		t.Type = entity.TxType(typ)
		t.Status = entity.TxStatus(status)
		items = append(items, t)
	}

	return items, mapPgErr(rows.Err())
}

func scanAccount(row pgx.Row) (entity.Account, error) {
	var acc entity.Account
	var balance string
	if err := row.Scan(&acc.ID, &acc.OwnerID, &acc.Key, &balance, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return entity.Account{}, mapPgErr(err)
	}

	amount, err := entity.ParseAmount(balance)
	if err != nil {
		return entity.Account{}, err
	}
	acc.Balance = amount

	return acc, nil
}

func mapPgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return pkgerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", pkgerror.ErrSerialization, pgErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", pkgerror.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", entity.ErrAccountInUse, pgErr.ConstraintName)
		}
	}

	return err
}
