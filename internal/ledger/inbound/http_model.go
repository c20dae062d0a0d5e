package inbound

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
)

const maxBodyBytes = 1 << 20

// DepositRequest and the other money requests take the amount as a JSON
// number (50.5) or a quoted decimal ("50.50").
type DepositRequest struct {
	AccountID int64       `json:"account_id" validate:"required,gt=0"`
	Amount    json.Number `json:"amount" validate:"required,amount"`
}

type WithdrawRequest struct {
	AccountID int64       `json:"account_id" validate:"required,gt=0"`
	Amount    json.Number `json:"amount" validate:"required,amount"`
}

type TransferRequest struct {
	AccountID  int64       `json:"account_id" validate:"required,gt=0"`
	AccountKey string      `json:"account_key" validate:"required,max=64"`
	Amount     json.Number `json:"amount" validate:"required,amount"`
}

type Account struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Balance   string    `json:"balance"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Transaction struct {
	ID            int64           `json:"id"`
	Amount        string          `json:"amount"`
	Type          entity.TxType   `json:"type"`
	Status        entity.TxStatus `json:"status"`
	FromAccountID *int64          `json:"from_account_id"`
	ToAccountID   *int64          `json:"to_account_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateAccountResponse struct {
	Account
}

func (CreateAccountResponse) StatusCode() int {
	return http.StatusCreated
}

func (CreateAccountResponse) Message() string {
	return "account created"
}

type DeleteAccountResponse struct {
	Account
}

func (DeleteAccountResponse) Message() string {
	return "account deleted"
}

type ListAccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

func (r ListAccountsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Accounts)}
}

type CreateTransactionResponse struct {
	Transaction
}

func (CreateTransactionResponse) StatusCode() int {
	return http.StatusCreated
}

func (r CreateTransactionResponse) Message() string {
	if r.Status == entity.TxStatusPending {
		return "transaction accepted, pending settlement"
	}
	return "transaction completed"
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

func (r ListTransactionsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Transactions)}
}
