package model

import (
	"time"

	"brokerledger/src/money"
)

// Position is the netting position of one account in one instrument.
// Volume is signed: positive long, negative short, zero flat. AveragePrice is reset to
// zero whenever Volume returns to zero. Closed positions are kept for history.
type Position struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	AccountID    uint        `gorm:"not null;uniqueIndex:idx_position_account_instrument" json:"account_id"`
	InstrumentID uint        `gorm:"not null;uniqueIndex:idx_position_account_instrument" json:"instrument_id"`
	Instrument   *Instrument `gorm:"constraint:OnDelete:RESTRICT" json:"instrument,omitempty"`
	Volume       money.Money `gorm:"type:numeric(20,8);not null;default:0" json:"volume"`
	AveragePrice money.Money `gorm:"type:numeric(20,8);not null;default:0" json:"average_price"`
	RealizedPnL  money.Money `gorm:"column:realized_pnl;type:numeric(20,8);not null;default:0" json:"realized_pnl"`
	IsOpen       bool        `gorm:"not null;default:false" json:"is_open"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

const (
	PositionSideLong  = "long"
	PositionSideShort = "short"
	PositionSideFlat  = "flat"
)

// Side reports long, short or flat from the sign of Volume.
func (p Position) Side() string {
	switch p.Volume.Sign() {
	case 1:
		return PositionSideLong
	case -1:
		return PositionSideShort
	default:
		return PositionSideFlat
	}
}
