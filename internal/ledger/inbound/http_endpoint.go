package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/ledger/usecase"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) CreateAccount(ctx context.Context, r *http.Request) (any, error) {
	acc, err := h.uc.CreateAccount(ctx, pkgrouter.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	return CreateAccountResponse{Account: toHTTPAccount(acc)}, nil
}

func (h *HTTPEndpoint) ListAccounts(ctx context.Context, r *http.Request) (any, error) {
	accounts, err := h.uc.ListAccounts(ctx, pkgrouter.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	items := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, toHTTPAccount(acc))
	}

	return ListAccountsResponse{Accounts: items}, nil
}

func (h *HTTPEndpoint) GetAccount(ctx context.Context, r *http.Request) (any, error) {
	id, ok := pkgrouter.GetParamInt64(ctx, "id")
	if !ok {
		return nil, pkgerror.NewInvalidInput(errors.New("invalid account id"))
	}

	acc, err := h.uc.GetAccount(ctx, pkgrouter.GetUserID(ctx), id)
	if err != nil {
		return nil, err
	}

	return toHTTPAccount(acc), nil
}

func (h *HTTPEndpoint) DeactivateAccount(ctx context.Context, r *http.Request) (any, error) {
	id, ok := pkgrouter.GetParamInt64(ctx, "id")
	if !ok {
		return nil, pkgerror.NewInvalidInput(errors.New("invalid account id"))
	}

	acc, err := h.uc.DeactivateAccount(ctx, pkgrouter.GetUserID(ctx), id)
	if err != nil {
		return nil, err
	}

	return toHTTPAccount(acc), nil
}

func (h *HTTPEndpoint) DeleteAccount(ctx context.Context, r *http.Request) (any, error) {
	id, err := parseAccountID(r.URL.Query().Get("account_id"))
	if err != nil {
		return nil, err
	}

	acc, err := h.uc.DeleteAccount(ctx, pkgrouter.GetUserID(ctx), id)
	if err != nil {
		return nil, err
	}

	return DeleteAccountResponse{Account: toHTTPAccount(acc)}, nil
}

func (h *HTTPEndpoint) Deposit(ctx context.Context, r *http.Request) (any, error) {
	var req DepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount.String())
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.Deposit(ctx, pkgrouter.GetUserID(ctx), usecase.DepositInput{
		AccountID: req.AccountID,
		Amount:    amount,
	})
	if err != nil {
		return nil, err
	}

	return CreateTransactionResponse{Transaction: toHTTPTransaction(tx)}, nil
}

func (h *HTTPEndpoint) Withdraw(ctx context.Context, r *http.Request) (any, error) {
	var req WithdrawRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount.String())
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.Withdraw(ctx, pkgrouter.GetUserID(ctx), usecase.WithdrawInput{
		AccountID: req.AccountID,
		Amount:    amount,
	})
	if err != nil {
		return nil, err
	}

	return CreateTransactionResponse{Transaction: toHTTPTransaction(tx)}, nil
}

func (h *HTTPEndpoint) Transfer(ctx context.Context, r *http.Request) (any, error) {
	var req TransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount.String())
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.Transfer(ctx, pkgrouter.GetUserID(ctx), usecase.TransferInput{
		AccountID:  req.AccountID,
		AccountKey: req.AccountKey,
		Amount:     amount,
	})
	if err != nil {
		return nil, err
	}

	return CreateTransactionResponse{Transaction: toHTTPTransaction(tx)}, nil
}

func (h *HTTPEndpoint) ListTransactions(ctx context.Context, r *http.Request) (any, error) {
	txs, err := h.uc.ListTransactions(ctx, pkgrouter.GetUserID(ctx))
	if err != nil {
		return nil, err
	}

	items := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		items = append(items, toHTTPTransaction(tx))
	}

	return ListTransactionsResponse{Transactions: items}, nil
}

func parseAccountID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, pkgerror.NewInvalidInput(errors.New("account_id is required"))
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerror.NewInvalidInput(errors.New("invalid account_id"))
	}

	return id, nil
}

func parseAmount(raw string) (entity.Amount, error) {
	amount, err := entity.ParseAmount(raw)
	if err != nil {
		return entity.Amount{}, pkgerror.NewInvalidInput(FieldErrors{"amount": "must be a decimal number"})
	}
	return amount, nil
}

// decodeAndValidate rejects bodies that are not a single JSON object matching
// dst, then runs the struct validation tags.
func decodeAndValidate(r *http.Request, dst any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return pkgerror.NewInvalidFormat()
	}
	if dec.More() {
		return pkgerror.NewInvalidFormat()
	}

	return validateStruct(dst)
}

func toHTTPAccount(acc entity.Account) Account {
	return Account{
		ID:        acc.ID,
		Key:       acc.Key,
		Balance:   acc.Balance.String(),
		IsActive:  acc.IsActive,
		CreatedAt: acc.CreatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
}

func toHTTPTransaction(tx entity.Transaction) Transaction {
	return Transaction{
		ID:            tx.ID,
		Amount:        tx.Amount.String(),
		Type:          tx.Type,
		Status:        tx.Status,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}
