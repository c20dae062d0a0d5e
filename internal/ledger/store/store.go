package store

import (
	"fmt"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
)

func errUnknownOp(op entity.Op) error {
	return fmt.Errorf("store: unsupported operation %T", op)
}
