package model

import (
	"time"

	"brokerledger/src/money"
)

// InstrumentType groups instruments ("Forex", "Stock", "Crypto").
type InstrumentType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (InstrumentType) TableName() string {
	return "instrument_types"
}

// Instrument is immutable reference data resolved by symbol.
// ContractSize is informational: trade cash is computed on raw volume.
type Instrument struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Symbol           string         `gorm:"size:20;not null;uniqueIndex" json:"symbol"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	InstrumentTypeID uint           `gorm:"index" json:"instrument_type_id"`
	InstrumentType   InstrumentType `gorm:"constraint:OnDelete:RESTRICT" json:"instrument_type"`
	CurrentPrice     money.Money    `gorm:"type:numeric(20,8);not null;default:0" json:"current_price"`
	ContractSize     money.Money    `gorm:"type:numeric(20,8);not null;default:1" json:"contract_size"`
	Digits           int            `gorm:"not null;default:2" json:"digits"`
	BaseCurrency     string         `gorm:"size:10" json:"base_currency,omitempty"`
	QuoteCurrency    string         `gorm:"size:10" json:"quote_currency,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (Instrument) TableName() string {
	return "instruments"
}
