package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"brokerledger/src/balance"
	"brokerledger/src/controller"
	"brokerledger/src/handler"
	"brokerledger/src/repository"
	"brokerledger/src/trading"
)

// Dependencies are the services the routes are bound to.
type Dependencies struct {
	Balance    *balance.Engine
	Trading    *trading.Service
	Accounts   *repository.AccountRepository
	History    *repository.HistoryRepository
	Exceptions controller.ExceptionRecorder
}

// NewRouter builds the HTTP surface of the ledger.
func NewRouter(deps Dependencies) http.Handler {
	// Router with middleware
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/", handler.GetAccountHandler(deps.Accounts, deps.Exceptions))
		r.Post("/deposit", handler.DepositHandler(deps.Balance, deps.Exceptions))
		r.Post("/withdraw", handler.WithdrawHandler(deps.Balance, deps.Exceptions))
		r.Get("/transactions", handler.ListTransactionsHandler(deps.History, deps.Exceptions))
		r.Get("/positions", handler.ListPositionsHandler(deps.History, deps.Exceptions))
	})
	r.Post("/trades", handler.ExecuteTradeHandler(deps.Trading, deps.Exceptions))

	return r
}

func StartServer(port string, h http.Handler) {
	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
