package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/ledger/inbound"
	"github.com/shandysiswandi/goledger/internal/ledger/settlement"
	"github.com/shandysiswandi/goledger/internal/ledger/store"
	"github.com/shandysiswandi/goledger/internal/ledger/usecase"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goledger/internal/pkg/pkglock"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgretry"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Router    *pkgrouter.Router
	Goroutine *pkgroutine.Manager
	Context   context.Context
	ID        pkguid.NumberID
	Key       pkguid.StringID

	// Pool selects the Postgres store; without it the module keeps state in memory.
	Pool *pgxpool.Pool
	// Redis enables the cross-replica sweep lock when modules.ledger.settlement.lock.enabled is set.
	Redis goredislib.UniversalClient
}

type storage interface {
	usecase.Store
	settlement.Store
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		return nil, errors.New("ledger: numeric id generator is required")
	}

	var st storage
	if dep.Pool != nil {
		st = store.NewPostgresStore(dep.Pool)
	} else {
		slog.Warn("ledger is using the in-memory store, data will not survive a restart")
		st = store.NewInMemoryStore()
	}

	fee, err := amountFromConfig(dep.Config, "modules.ledger.fee", usecase.DefaultFee)
	if err != nil {
		return nil, err
	}

	minAmount, err := amountFromConfig(dep.Config, "modules.ledger.min_amount", usecase.DefaultMinAmount)
	if err != nil {
		return nil, err
	}

	retry := pkgretry.Policy{
		MaxAttempts: int(dep.Config.GetInt("modules.ledger.retry.max_attempts")),
		BaseDelay:   dep.Config.GetDuration("modules.ledger.retry.base_delay"),
	}

	uc := usecase.New(usecase.Dependency{
		Store:     st,
		ID:        dep.ID,
		Key:       dep.Key,
		Fee:       &fee,
		MinAmount: &minAmount,
		Retry:     retry,
	})

	var locker pkglock.Locker = pkglock.Noop{}
	if dep.Config.GetBool("modules.ledger.settlement.lock.enabled") {
		if dep.Redis == nil {
			return nil, errors.New("ledger: settlement lock is enabled but redis is not configured")
		}
		locker = pkglock.NewRedis(dep.Redis, dep.Config.GetDuration("modules.ledger.settlement.lock.ttl"))
	}

	sweeper := settlement.New(settlement.Dependency{
		Store:  st,
		Locker: locker,
		Config: settlement.Config{
			Interval:  dep.Config.GetDuration("modules.ledger.settlement.interval"),
			Threshold: dep.Config.GetDuration("modules.ledger.settlement.threshold"),
			Workers:   int(dep.Config.GetInt("modules.ledger.settlement.workers")),
			Retry:     retry,
		},
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	// The sweep loop lives as long as the application context; without a
	// shared manager it owns its goroutine and is stopped by the closer.
	if dep.Goroutine != nil && dep.Context != nil {
		dep.Goroutine.Go(dep.Context, sweeper.Run)
		return nil, nil
	}

	sweeper.Start()
	return sweeper.Stop, nil
}

func amountFromConfig(cfg pkgconfig.Config, key string, fallback entity.Amount) (entity.Amount, error) {
	raw := cfg.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	amount, err := entity.ParseAmount(raw)
	if err != nil {
		return entity.Amount{}, fmt.Errorf("ledger: invalid %s %q: %w", key, raw, err)
	}
	if amount.IsNegative() {
		return entity.Amount{}, fmt.Errorf("ledger: %s must not be negative", key)
	}
	if !amount.WithinScale() {
		return entity.Amount{}, fmt.Errorf("ledger: %s must not have more than %d decimal places", key, entity.MaxScale)
	}

	return amount, nil
}
