package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"brokerledger/cmd/ledgerctl"
	"brokerledger/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "ledgerctl"
	app.Usage = "The brokerage ledger command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		migrateCMD,
		accountCMD,
		instrumentCMD,
		depositCMD,
		withdrawCMD,
		tradeCMD,
		positionsCMD,
		historyCMD,
		reconcileCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	accountFlag = cli.UintFlag{Name: "account, a", Usage: "account id"}

	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "migrate the schema and seed transaction types",
		Action:      migrateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run AutoMigrate, the run-once data migrations and the startup checks`,
	}
	accountCMD = cli.Command{
		Name:  "account",
		Usage: "open and inspect accounts",
		Subcommands: []cli.Command{
			{
				Name:   "open",
				Usage:  "open an account with a zero balance",
				Action: accountOpenAction,
				Flags: []cli.Flag{
					cli.UintFlag{Name: "owner", Usage: "owner id", Value: 1},
					cli.StringFlag{Name: "name", Usage: "account name"},
					cli.StringFlag{Name: "currency", Usage: "ISO currency", Value: "USD"},
				},
			},
			{
				Name:   "show",
				Usage:  "print the account balance",
				Action: accountShowAction,
				Flags:  []cli.Flag{accountFlag},
			},
			{
				Name:   "list",
				Usage:  "list the accounts of an owner",
				Action: accountListAction,
				Flags:  []cli.Flag{cli.UintFlag{Name: "owner", Usage: "owner id", Value: 1}},
			},
		},
	}
	instrumentCMD = cli.Command{
		Name:        "instrument",
		Usage:       "create or refresh an instrument",
		Action:      instrumentAction,
		Description: `Load instrument reference data; trading never creates instruments`,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "symbol"},
			cli.StringFlag{Name: "name"},
			cli.StringFlag{Name: "type", Value: "Forex"},
			cli.StringFlag{Name: "price", Value: "0"},
			cli.StringFlag{Name: "contract-size", Value: "1"},
			cli.IntFlag{Name: "digits", Value: 2},
			cli.StringFlag{Name: "base"},
			cli.StringFlag{Name: "quote"},
		},
	}
	depositCMD = cli.Command{
		Name:   "deposit",
		Usage:  "credit cash to an account",
		Action: depositAction,
		Flags: []cli.Flag{
			accountFlag,
			cli.StringFlag{Name: "amount"},
			cli.StringFlag{Name: "description"},
		},
	}
	withdrawCMD = cli.Command{
		Name:   "withdraw",
		Usage:  "debit cash from an account",
		Action: withdrawAction,
		Flags: []cli.Flag{
			accountFlag,
			cli.StringFlag{Name: "amount"},
			cli.StringFlag{Name: "description"},
		},
	}
	tradeCMD = cli.Command{
		Name:   "trade",
		Usage:  "execute a buy or sell",
		Action: tradeAction,
		Flags: []cli.Flag{
			accountFlag,
			cli.StringFlag{Name: "symbol"},
			cli.StringFlag{Name: "direction", Usage: "buy or sell"},
			cli.StringFlag{Name: "volume"},
			cli.StringFlag{Name: "price"},
		},
	}
	positionsCMD = cli.Command{
		Name:   "positions",
		Usage:  "list the account positions",
		Action: positionsAction,
		Flags: []cli.Flag{
			accountFlag,
			cli.BoolFlag{Name: "open", Usage: "hide closed positions"},
		},
	}
	historyCMD = cli.Command{
		Name:   "history",
		Usage:  "print the account statement",
		Action: historyAction,
		Flags: []cli.Flag{
			accountFlag,
			cli.IntFlag{Name: "limit", Value: 50},
		},
	}
	reconcileCMD = cli.Command{
		Name:        "reconcile",
		Usage:       "check the balance against the audit trail",
		Action:      reconcileAction,
		Flags:       []cli.Flag{accountFlag},
		Description: `Exit non-zero when the balance is not explained by the recorded transactions`,
	}
)

// newLedger connects to the main database and wires the services.
func newLedger(cmd string) (*ledgerctl.Ledger, error) {
	database.SetupLogger(database.GetConfig())

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return nil, err
	}

	l := &ledgerctl.Ledger{
		Log: logrus.WithField("cmd", cmd),
		DB:  database.MainDB,
	}
	if err := l.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return nil, err
	}
	return l, nil
}

func migrateAction(_ *cli.Context) error {
	logrus.Info("Starting migrate CMD")

	// InitMainDB already migrates; Migrate reports it.
	l, err := newLedger("migrate")
	if err != nil {
		return err
	}
	return l.Migrate()
}

func accountOpenAction(c *cli.Context) error {
	l, err := newLedger("account_open")
	if err != nil {
		return err
	}
	return l.OpenAccount(context.Background(), c.Uint("owner"), c.String("name"), c.String("currency"))
}

func accountShowAction(c *cli.Context) error {
	l, err := newLedger("account_show")
	if err != nil {
		return err
	}
	return l.ShowAccount(context.Background(), c.Uint("account"))
}

func accountListAction(c *cli.Context) error {
	l, err := newLedger("account_list")
	if err != nil {
		return err
	}
	return l.ListAccounts(context.Background(), c.Uint("owner"))
}

func instrumentAction(c *cli.Context) error {
	l, err := newLedger("instrument")
	if err != nil {
		return err
	}
	return l.AddInstrument(context.Background(), ledgerctl.InstrumentInput{
		Symbol:        c.String("symbol"),
		Name:          c.String("name"),
		Type:          c.String("type"),
		Price:         c.String("price"),
		ContractSize:  c.String("contract-size"),
		Digits:        c.Int("digits"),
		BaseCurrency:  c.String("base"),
		QuoteCurrency: c.String("quote"),
	})
}

func depositAction(c *cli.Context) error {
	l, err := newLedger("deposit")
	if err != nil {
		return err
	}
	return l.Deposit(context.Background(), c.Uint("account"), c.String("amount"), c.String("description"))
}

func withdrawAction(c *cli.Context) error {
	l, err := newLedger("withdraw")
	if err != nil {
		return err
	}
	return l.Withdraw(context.Background(), c.Uint("account"), c.String("amount"), c.String("description"))
}

func tradeAction(c *cli.Context) error {
	l, err := newLedger("trade")
	if err != nil {
		return err
	}
	return l.Trade(context.Background(), c.Uint("account"), c.String("symbol"), c.String("direction"),
		c.String("volume"), c.String("price"))
}

func positionsAction(c *cli.Context) error {
	l, err := newLedger("positions")
	if err != nil {
		return err
	}
	return l.Positions(context.Background(), c.Uint("account"), c.Bool("open"))
}

func historyAction(c *cli.Context) error {
	l, err := newLedger("history")
	if err != nil {
		return err
	}
	return l.History(context.Background(), c.Uint("account"), c.Int("limit"))
}

func reconcileAction(c *cli.Context) error {
	l, err := newLedger("reconcile")
	if err != nil {
		return err
	}
	return l.Reconcile(context.Background(), c.Uint("account"))
}
