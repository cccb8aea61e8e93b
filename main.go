package main

import (
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"brokerledger/src/balance"
	"brokerledger/src/database"
	"brokerledger/src/locking"
	"brokerledger/src/repository"
	"brokerledger/src/server"
	"brokerledger/src/trading"
)

func main() {
	database.SetupLogger(database.GetConfig())
	cfg := server.GetConfig()
	defer handlePanic(cfg.AppName)

	// Initialize main (read/write) database, migrations and transaction type checks
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	tradingCfg := trading.GetConfig()
	commission, err := tradingCfg.Commission()
	if err != nil {
		logger.WithError(err).Fatal("Invalid trading configuration")
	}

	store := repository.NewLedgerRepository(locking.New(), tradingCfg.LockTimeout)
	engine := balance.NewEngine(logger.WithField("app", cfg.AppName), store)

	server.StartServer(cfg.Port, server.NewRouter(server.Dependencies{
		Balance:    engine,
		Trading:    trading.NewService(logger.WithField("app", cfg.AppName), store, engine, commission),
		Accounts:   repository.NewAccountRepository(),
		History:    repository.NewHistoryRepository(),
		Exceptions: repository.NewExceptionRepository(),
	}))
}

func handlePanic(appName string) {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", appName))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
