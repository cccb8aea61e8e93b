package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerledger/src/balance"
	"brokerledger/src/database/databasetest"
	"brokerledger/src/locking"
	"brokerledger/src/model"
	"brokerledger/src/repository"
	"brokerledger/src/trading"
)

func newTestServer(t *testing.T) (*httptest.Server, *model.Account) {
	t.Helper()

	db := databasetest.NewSQLite(t)
	store := repository.NewLedgerRepositoryWithDB(db, locking.New(), time.Second)
	engine := balance.NewEngine(nil, store)

	srv := httptest.NewServer(NewRouter(Dependencies{
		Balance:    engine,
		Trading:    trading.NewService(nil, store, engine, trading.ZeroCommission),
		Accounts:   (&repository.AccountRepository{}).WithDB(db),
		History:    repository.NewHistoryRepositoryWithDB(db),
		Exceptions: repository.NewExceptionRepositoryWithDB(db),
	}))
	t.Cleanup(srv.Close)

	databasetest.CreateInstrument(t, db, "EURUSD")
	return srv, databasetest.CreateAccount(t, db, "api")
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string, into interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestHealthcheck(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/healthcheck", nil))
}

func TestLedgerRoutes(t *testing.T) {
	srv, account := newTestServer(t)
	base := fmt.Sprintf("%s/accounts/%d", srv.URL, account.ID)

	resp := post(t, base+"/deposit", `{"amount":"10000"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, srv.URL+"/trades", fmt.Sprintf(`{"account_id":%d,"symbol":"EURUSD","direction":"buy","volume":"20","price":"100"}`, account.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/trades", fmt.Sprintf(`{"account_id":%d,"symbol":"EURUSD","direction":"sell","volume":"10","price":"120"}`, account.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var trade model.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trade))
	assert.Equal(t, "200", trade.RealizedPnL.String())

	var snapshot struct {
		Balance string `json:"balance"`
		Display string `json:"display"`
	}
	require.Equal(t, http.StatusOK, get(t, base, &snapshot))
	assert.Equal(t, "9200", snapshot.Balance)
	assert.Equal(t, "$9,200.00", snapshot.Display)

	var txs []model.Transaction
	require.Equal(t, http.StatusOK, get(t, base+"/transactions", &txs))
	require.Len(t, txs, 3)
	assert.Equal(t, model.TransactionTypeDeposit, txs[0].TypeCode)

	var positions []model.Position
	require.Equal(t, http.StatusOK, get(t, base+"/positions?open=true", &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "10", positions[0].Volume.String())
	assert.Equal(t, "100", positions[0].AveragePrice.String())
}

func TestLedgerRoutesErrors(t *testing.T) {
	srv, account := newTestServer(t)
	base := fmt.Sprintf("%s/accounts/%d", srv.URL, account.ID)

	resp := post(t, base+"/withdraw", `{"amount":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, base+"/deposit", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/accounts/999/deposit", `{"amount":"1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv.URL+"/trades", fmt.Sprintf(`{"account_id":%d,"symbol":"XAUUSD","direction":"buy","volume":"1","price":"1"}`, account.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/accounts/999", nil))
}
