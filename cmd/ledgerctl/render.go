package ledgerctl

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"brokerledger/src/model"
	"brokerledger/src/money"
	"brokerledger/src/netting"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func styledPnL(v money.Money) string {
	switch v.Sign() {
	case 1:
		return gainStyle.Render(v.String())
	case -1:
		return lossStyle.Render(v.String())
	default:
		return dimStyle.Render(v.String())
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

func renderPositions(positions []model.Position) string {
	t := newTable("SYMBOL", "SIDE", "VOLUME", "AVG PRICE", "REALIZED", "UNREALIZED")
	for _, p := range positions {
		symbol, unrealized := "", "-"
		if p.Instrument != nil {
			symbol = p.Instrument.Symbol
			if p.Instrument.CurrentPrice.IsPositive() {
				state := netting.State{Volume: p.Volume, AveragePrice: p.AveragePrice}
				unrealized = styledPnL(netting.Unrealized(state, p.Instrument.CurrentPrice))
			}
		}
		t.Row(symbol, p.Side(), p.Volume.String(), p.AveragePrice.String(), styledPnL(p.RealizedPnL), unrealized)
	}
	return t.String()
}

func renderTransactions(txs []model.Transaction) string {
	t := newTable("ID", "DATE", "TRANSACTION", "COMMISSION", "CASH", "REALIZED", "STATUS")
	for _, tx := range txs {
		realized := ""
		if tx.IsTrade() {
			realized = styledPnL(tx.RealizedPnL)
		}
		t.Row(
			strconv.FormatUint(uint64(tx.ID), 10),
			tx.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			tx.String(),
			tx.Commission.String(),
			styledPnL(tx.CashDelta),
			realized,
			tx.Status,
		)
	}
	return t.String()
}
