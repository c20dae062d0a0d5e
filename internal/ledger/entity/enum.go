package entity

type TxType string

const (
	TxTypeDeposit  TxType = "DEPOSIT"
	TxTypeWithdraw TxType = "WITHDRAW"
	TxTypeTransfer TxType = "TRANSFER"
)

// TxStatus only moves forward: PENDING -> SETTLED.
type TxStatus string

const (
	TxStatusPending TxStatus = "PENDING"
	TxStatusSettled TxStatus = "SETTLED"
)
