package usecase

import "github.com/shandysiswandi/goledger/internal/ledger/entity"

type DepositInput struct {
	AccountID int64
	Amount    entity.Amount
}

type WithdrawInput struct {
	AccountID int64
	Amount    entity.Amount
}

type TransferInput struct {
	AccountID  int64
	AccountKey string
	Amount     entity.Amount
}
