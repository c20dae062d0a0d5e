package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goledger/internal/ledger"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.ledger.enabled") {
		closer, err := ledger.New(ledger.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.snowflake,
			Key:       pkguid.NewRandomUUID(),
			Pool:      a.pool,
			Redis:     a.redis,
		})
		if err != nil {
			slog.Error("failed to init module ledger", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.addCloser("Ledger", closer)
		}
	}
}
