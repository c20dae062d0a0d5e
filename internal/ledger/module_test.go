package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

type mapConfig map[string]string

func (m mapConfig) GetInt(key string) int64 {
	n, _ := strconv.ParseInt(m[key], 10, 64)
	return n
}

func (m mapConfig) GetBool(key string) bool { return m[key] == "true" }

func (m mapConfig) GetString(key string) string { return m[key] }

func (m mapConfig) GetDuration(key string) time.Duration {
	d, _ := time.ParseDuration(m[key])
	return d
}

func (m mapConfig) Close() error { return nil }

func newDependency(t *testing.T, cfg mapConfig) Dependency {
	t.Helper()

	id, err := pkguid.NewSnowflake(2)
	require.NoError(t, err)

	return Dependency{
		Config: cfg,
		Router: pkgrouter.NewRouter(pkguid.NewTimeUUID()),
		ID:     id,
		Key:    pkguid.NewRandomUUID(),
	}
}

func TestNewRegistersRoutesAndStops(t *testing.T) {
	dep := newDependency(t, mapConfig{
		"modules.ledger.fee":                  "1.5",
		"modules.ledger.settlement.interval":  "50ms",
		"modules.ledger.settlement.threshold": "1h",
	})

	stop, err := New(dep)
	require.NoError(t, err)
	require.NotNil(t, stop)

	req := httptest.NewRequest(http.MethodPost, "/accounts", nil)
	req.Header.Set(pkgrouter.HeaderUserID, "alice")
	rec := httptest.NewRecorder()
	dep.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(newDependency(t, mapConfig{"modules.ledger.fee": "abc"}))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "modules.ledger.fee"))

	_, err = New(newDependency(t, mapConfig{"modules.ledger.min_amount": "-1"}))
	require.Error(t, err)

	_, err = New(newDependency(t, mapConfig{"modules.ledger.fee": "0.125"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal places")

	_, err = New(newDependency(t, mapConfig{"modules.ledger.min_amount": "3.005"}))
	require.Error(t, err)

	_, err = New(newDependency(t, mapConfig{"modules.ledger.settlement.lock.enabled": "true"}))
	require.Error(t, err)

	dep := newDependency(t, mapConfig{})
	dep.ID = nil
	_, err = New(dep)
	require.Error(t, err)
}

func TestNewWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dep := newDependency(t, mapConfig{
		"modules.ledger.settlement.lock.enabled": "true",
		"modules.ledger.settlement.lock.ttl":     "5s",
	})
	dep.Redis = client

	stop, err := New(dep)
	require.NoError(t, err)
	require.NoError(t, stop(context.Background()))
}

func TestNewRunsSweeperOnSharedManager(t *testing.T) {
	dep := newDependency(t, mapConfig{"modules.ledger.settlement.interval": "10ms"})
	ctx, cancel := context.WithCancel(context.Background())
	dep.Context = ctx
	dep.Goroutine = pkgroutine.NewManager(2)

	stop, err := New(dep)
	require.NoError(t, err)
	assert.Nil(t, stop)

	cancel()
	require.NoError(t, dep.Goroutine.Wait())
}
