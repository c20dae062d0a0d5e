package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/ledger/settlement"
	"github.com/shandysiswandi/goledger/internal/ledger/store"
	"github.com/shandysiswandi/goledger/internal/ledger/usecase"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

type envelope[T any] struct {
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Meta    map[string]any    `json:"meta,omitempty"`
	Error   map[string]string `json:"error,omitempty"`
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type testServer struct {
	t       *testing.T
	router  http.Handler
	storage *store.InMemoryStore
	clock   *clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	snowflake, err := pkguid.NewSnowflake(1)
	require.NoError(t, err)

	storage := store.NewInMemoryStore()
	clk := &clock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}

	uc := usecase.New(usecase.Dependency{
		Store: storage,
		Clock: clk,
		ID:    snowflake,
		Key:   pkguid.NewRandomUUID(),
	})

	router := pkgrouter.NewRouter(pkguid.NewTimeUUID())
	RegisterHTTPEndpoint(router, uc)

	return &testServer{t: t, router: router, storage: storage, clock: clk}
}

func (s *testServer) do(method, path, user string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(pkgrouter.HeaderUserID, user)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()

	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env
}

func (s *testServer) createAccount(user string) Account {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/accounts", user, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[Account](s.t, rec).Data
}

func TestLedgerHTTPFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := srv.createAccount("alice")
	bob := srv.createAccount("bob")
	assert.Equal(t, "0.00", alice.Balance)
	assert.True(t, alice.IsActive)
	assert.NotEmpty(t, alice.Key)

	rec := srv.do(http.MethodPost, "/transactions/deposit", "alice", map[string]any{"account_id": alice.ID, "amount": "11.50"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dep := decode[Transaction](t, rec)
	assert.Equal(t, "transaction completed", dep.Message)
	assert.Equal(t, "10.00", dep.Data.Amount)
	assert.Equal(t, entity.TxStatusSettled, dep.Data.Status)

	rec = srv.do(http.MethodPost, "/transactions/transfer", "alice", map[string]any{"account_id": alice.ID, "account_key": bob.Key, "amount": "10"})
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, "Your account does not have enough balance (11.50) for this transaction.", decode[any](t, rec).Message)

	rec = srv.do(http.MethodPost, "/transactions/transfer", "alice", map[string]any{"account_id": alice.ID, "account_key": bob.Key, "amount": "5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tr := decode[Transaction](t, rec)
	assert.Equal(t, "transaction accepted, pending settlement", tr.Message)
	assert.Equal(t, entity.TxStatusPending, tr.Data.Status)
	require.NotNil(t, tr.Data.ToAccountID)
	assert.Equal(t, bob.ID, *tr.Data.ToAccountID)

	rec = srv.do(http.MethodGet, "/accounts/"+strconv.FormatInt(alice.ID, 10), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.50", decode[Account](t, rec).Data.Balance)

	sweeper := settlement.New(settlement.Dependency{Store: srv.storage, Clock: &clock{now: srv.clock.now.Add(72 * time.Hour)}})
	res, err := sweeper.SettleDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Settled)

	rec = srv.do(http.MethodGet, "/accounts", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accounts := decode[ListAccountsResponse](t, rec)
	require.Len(t, accounts.Data.Accounts, 1)
	assert.Equal(t, "5.00", accounts.Data.Accounts[0].Balance)
	assert.EqualValues(t, 1, accounts.Meta["total"])

	rec = srv.do(http.MethodGet, "/transactions", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decode[ListTransactionsResponse](t, rec).Data.Transactions
	require.Len(t, txs, 2)
	assert.Equal(t, entity.TxTypeTransfer, txs[0].Type)
	assert.Equal(t, entity.TxStatusSettled, txs[0].Status)
	assert.Equal(t, entity.TxTypeDeposit, txs[1].Type)
}

func TestLedgerHTTPRequiresCaller(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/accounts", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing caller identity", decode[any](t, rec).Message)
}

func TestLedgerHTTPValidation(t *testing.T) {
	srv := newTestServer(t)
	acc := srv.createAccount("alice")

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{name: "missing amount", body: map[string]any{"account_id": acc.ID}, status: http.StatusUnprocessableEntity, field: "amount"},
		{name: "too many decimals", body: map[string]any{"account_id": acc.ID, "amount": "3.001"}, status: http.StatusUnprocessableEntity, field: "amount"},
		{name: "missing account", body: map[string]any{"amount": "10"}, status: http.StatusUnprocessableEntity, field: "account_id"},
		{name: "unknown field", body: map[string]any{"account_id": acc.ID, "amount": "10", "fee": "0"}, status: http.StatusBadRequest},
		{name: "below minimum", body: map[string]any{"account_id": acc.ID, "amount": "2.99"}, status: http.StatusUnprocessableEntity},
		{name: "not a number", body: map[string]any{"account_id": acc.ID, "amount": "ten"}, status: http.StatusBadRequest},
		{name: "numeric too many decimals", body: map[string]any{"account_id": acc.ID, "amount": 3.001}, status: http.StatusUnprocessableEntity, field: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/transactions/withdraw", "alice", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.field != "" {
				env := decode[any](t, rec)
				assert.Contains(t, env.Error, tt.field)
			}
		})
	}
}

func TestLedgerHTTPAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)
	acc := srv.createAccount("alice")
	id := strconv.FormatInt(acc.ID, 10)

	rec := srv.do(http.MethodDelete, "/accounts?account_id="+id, "bob", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not Allowed", decode[any](t, rec).Message)

	rec = srv.do(http.MethodDelete, "/accounts?account_id=abc", "alice", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(http.MethodDelete, "/accounts?account_id="+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deleted := decode[Account](t, rec)
	assert.Equal(t, "account deleted", deleted.Message)
	assert.Equal(t, acc.ID, deleted.Data.ID)

	rec = srv.do(http.MethodGet, "/accounts/"+id, "alice", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Account Not Found", decode[any](t, rec).Message)
}

func TestLedgerHTTPDeactivate(t *testing.T) {
	srv := newTestServer(t)
	acc := srv.createAccount("alice")

	rec := srv.do(http.MethodPatch, "/accounts/"+strconv.FormatInt(acc.ID, 10)+"/deactivate", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[Account](t, rec).Data.IsActive)

	rec = srv.do(http.MethodPost, "/transactions/deposit", "alice", map[string]any{"account_id": acc.ID, "amount": "10"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "The account is not active", decode[any](t, rec).Message)
}

func TestLedgerHTTPAcceptsNumericAmounts(t *testing.T) {
	srv := newTestServer(t)
	acc := srv.createAccount("alice")

	rec := srv.do(http.MethodPost, "/transactions/deposit", "alice", map[string]any{"account_id": acc.ID, "amount": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "48.50", decode[Transaction](t, rec).Data.Amount)

	rec = srv.do(http.MethodPost, "/transactions/withdraw", "alice", map[string]any{"account_id": acc.ID, "amount": 10.25})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "10.25", decode[Transaction](t, rec).Data.Amount)

	rec = srv.do(http.MethodGet, "/accounts/"+strconv.FormatInt(acc.ID, 10), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "36.75", decode[Account](t, rec).Data.Balance)
}
