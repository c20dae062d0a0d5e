package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/goledger/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goledger/internal/pkg/pkglog"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager

	// resources
	pool  *pgxpool.Pool
	redis goredislib.UniversalClient

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in order on Stop, modules before the resources they use
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func(context.Context) error
}

func New() *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, namedCloser{name: name, fn: fn})
}
