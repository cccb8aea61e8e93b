package model

import (
	"fmt"
	"strings"
	"time"

	"brokerledger/src/money"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an append-only audit record. Deposits and withdrawals carry the amount
// in Price with zero Volume. Trades carry the executed volume and price and the net cash
// movement they caused in CashDelta.
type Transaction struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	Reference       string              `gorm:"size:36;not null;uniqueIndex" json:"reference"`
	AccountID       uint                `gorm:"not null;index" json:"account_id"`
	InstrumentID    *uint               `gorm:"index" json:"instrument_id,omitempty"`
	Instrument      *Instrument         `gorm:"constraint:OnDelete:RESTRICT" json:"instrument,omitempty"`
	TypeCode        TransactionTypeCode `gorm:"column:transaction_type_code;not null;index" json:"transaction_type"`
	TransactionType *TransactionType    `gorm:"foreignKey:TypeCode;references:Code" json:"-"`
	Volume          money.Money         `gorm:"type:numeric(20,8);not null;default:0" json:"volume"`
	Price           money.Money         `gorm:"type:numeric(20,8);not null;default:0" json:"price"`
	Commission      money.Money         `gorm:"type:numeric(20,8);not null;default:0" json:"commission"`
	CashDelta       money.Money         `gorm:"type:numeric(20,8);not null;default:0" json:"cash_delta"`
	RealizedPnL     money.Money         `gorm:"column:realized_pnl;type:numeric(20,8);not null;default:0" json:"realized_pnl"`
	Status          string              `gorm:"size:20;not null;default:pending" json:"status"`
	PositionID      *uint               `gorm:"index" json:"position_id,omitempty"`
	Description     string              `gorm:"size:255" json:"description,omitempty"`
	CreatedAt       time.Time           `json:"date"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// String renders "BUY 1 EURUSD @ 1.05" or "DEPOSIT 0 CASH @ 10000".
func (t Transaction) String() string {
	code := "CASH"
	if t.Instrument != nil {
		code = t.Instrument.Symbol
	}
	return fmt.Sprintf("%s %s %s @ %s", strings.ToUpper(t.TypeCode.String()), t.Volume, code, t.Price)
}

// IsTrade reports whether the record is a buy or sell.
func (t Transaction) IsTrade() bool {
	return t.TypeCode == TransactionTypeBuy || t.TypeCode == TransactionTypeSell
}
