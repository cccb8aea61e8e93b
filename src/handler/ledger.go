package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"brokerledger/src/controller"
	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
	"brokerledger/src/money"
	"brokerledger/src/repository"
	"brokerledger/src/trading"
)

type balanceMover interface {
	Deposit(ctx context.Context, accountID uint, amount money.Money, description string) (*model.Account, error)
	Withdraw(ctx context.Context, accountID uint, amount money.Money, description string) (*model.Account, error)
}

type tradeExecutor interface {
	ExecuteTrade(ctx context.Context, accountID uint, symbol string, direction trading.Direction, volume, price money.Money) (*model.Transaction, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Account, error)
}

type historyReader interface {
	SearchTransactions(ctx context.Context, options repository.TransactionSearchOptions) ([]model.Transaction, error)
	ListPositions(ctx context.Context, accountID uint, openOnly bool) ([]model.Position, error)
}

type cashPayload struct {
	Amount      money.Money `json:"amount"`
	Description string      `json:"description"`
}

type tradePayload struct {
	AccountID uint        `json:"account_id"`
	Symbol    string      `json:"symbol"`
	Direction string      `json:"direction"`
	Volume    money.Money `json:"volume"`
	Price     money.Money `json:"price"`
}

type accountResponse struct {
	*model.Account
	Display string `json:"display"`
}

// DepositHandler credits the account in the path.
func DepositHandler(engine balanceMover, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return cashHandler("Deposit", engine.Deposit, exceptions)
}

// WithdrawHandler debits the account in the path.
func WithdrawHandler(engine balanceMover, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return cashHandler("Withdraw", engine.Withdraw, exceptions)
}

func cashHandler(
	method string,
	move func(ctx context.Context, accountID uint, amount money.Money, description string) (*model.Account, error),
	exceptions controller.ExceptionRecorder,
) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		var payload cashPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			writeError(w, r, exceptions, "balance", method, invalidPayload(err), nil)
			return
		}

		account, err := move(r.Context(), accountID, payload.Amount, payload.Description)
		if err != nil {
			writeError(w, r, exceptions, "balance", method, err, map[string]interface{}{
				"account_id": accountID,
				"amount":     payload.Amount.String(),
			})
			return
		}

		writeJSON(w, http.StatusOK, accountResponse{Account: account, Display: account.Balance.Display(account.Currency)})
	}
}

// ExecuteTradeHandler runs one trade and returns the recorded transaction.
func ExecuteTradeHandler(service tradeExecutor, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tradePayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			writeError(w, r, exceptions, "trading", "ExecuteTrade", invalidPayload(err), nil)
			return
		}

		direction, err := trading.ParseDirection(payload.Direction)
		if err != nil {
			writeError(w, r, exceptions, "trading", "ExecuteTrade", err, nil)
			return
		}

		tx, err := service.ExecuteTrade(r.Context(), payload.AccountID, payload.Symbol, direction, payload.Volume, payload.Price)
		if err != nil {
			writeError(w, r, exceptions, "trading", "ExecuteTrade", err, map[string]interface{}{
				"account_id": payload.AccountID,
				"symbol":     payload.Symbol,
				"direction":  payload.Direction,
				"volume":     payload.Volume.String(),
				"price":      payload.Price.String(),
			})
			return
		}

		writeJSON(w, http.StatusCreated, tx)
	}
}

// GetAccountHandler returns the account snapshot.
func GetAccountHandler(accounts accountFinder, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		account, err := accounts.FindByID(r.Context(), accountID)
		if err != nil {
			writeError(w, r, exceptions, "accounts", "FindByID", err, map[string]interface{}{"account_id": accountID})
			return
		}
		if account == nil {
			writeError(w, r, exceptions, "accounts", "FindByID", fmt.Errorf("%w: %d", ledgererr.ErrAccountNotFound, accountID), nil)
			return
		}

		writeJSON(w, http.StatusOK, accountResponse{Account: account, Display: account.Balance.Display(account.Currency)})
	}
}

// ListTransactionsHandler returns the account statement.
// Supports pagination and filters (type, createdFrom, createdTo).
func ListTransactionsHandler(history historyReader, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		options := repository.TransactionSearchOptions{AccountID: accountID, Limit: 100}
		query := r.URL.Query()

		if typeParam := query.Get("type"); typeParam != "" {
			code, ok := parseTypeCode(typeParam)
			if !ok {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid type"})
				return
			}
			options.TypeCode = &code
		}

		if createdFromParam := query.Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid createdFrom"})
				return
			}
			options.CreatedAfter = &parsed
		}

		if createdToParam := query.Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid createdTo"})
				return
			}
			options.CreatedBefore = &parsed
		}

		if limitParam := query.Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil || limit <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			options.Limit = limit
		}

		if offsetParam := query.Get("offset"); offsetParam != "" {
			offset, err := strconv.Atoi(offsetParam)
			if err != nil || offset < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid offset"})
				return
			}
			options.Offset = offset
		}

		txs, err := history.SearchTransactions(r.Context(), options)
		if err != nil {
			writeError(w, r, exceptions, "history", "SearchTransactions", err, map[string]interface{}{"account_id": accountID})
			return
		}

		writeJSON(w, http.StatusOK, txs)
	}
}

// ListPositionsHandler returns the account positions; ?open=true hides closed ones.
func ListPositionsHandler(history historyReader, exceptions controller.ExceptionRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))

		positions, err := history.ListPositions(r.Context(), accountID, openOnly)
		if err != nil {
			writeError(w, r, exceptions, "history", "ListPositions", err, map[string]interface{}{"account_id": accountID})
			return
		}

		writeJSON(w, http.StatusOK, positions)
	}
}

func parseTypeCode(s string) (model.TransactionTypeCode, bool) {
	for _, t := range model.TransactionTypes {
		if t.Code.String() == s {
			return t.Code, true
		}
	}
	return 0, false
}

func invalidPayload(err error) error {
	if ledgererr.IsCallerError(err) {
		return err
	}
	return ledgererr.InvalidAmount("invalid payload: %v", err)
}
