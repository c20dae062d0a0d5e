package inbound

import (
	"context"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/ledger/usecase"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
)

type uc interface {
	CreateAccount(ctx context.Context, userID string) (entity.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]entity.Account, error)
	GetAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error)
	DeactivateAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error)
	DeleteAccount(ctx context.Context, userID string, accountID int64) (entity.Account, error)

	Deposit(ctx context.Context, userID string, in usecase.DepositInput) (entity.Transaction, error)
	Withdraw(ctx context.Context, userID string, in usecase.WithdrawInput) (entity.Transaction, error)
	Transfer(ctx context.Context, userID string, in usecase.TransferInput) (entity.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]entity.Transaction, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	auth := r.MiddlewareUserID()

	r.POST("/accounts", end.CreateAccount, auth)
	r.GET("/accounts", end.ListAccounts, auth)
	r.DELETE("/accounts", end.DeleteAccount, auth) // ?account_id=
	r.GET("/accounts/:id", end.GetAccount, auth)
	r.PATCH("/accounts/:id/deactivate", end.DeactivateAccount, auth)

	r.POST("/transactions/deposit", end.Deposit, auth)
	r.POST("/transactions/withdraw", end.Withdraw, auth)
	r.POST("/transactions/transfer", end.Transfer, auth)
	r.GET("/transactions", end.ListTransactions, auth)
}
