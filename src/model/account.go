package model

import (
	"time"

	"brokerledger/src/money"
)

const DefaultCurrency = "USD"

// Account is a user's cash account. Balance is written only by the balance engine.
type Account struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OwnerID   uint        `gorm:"index;not null" json:"owner_id"`
	Name      string      `gorm:"size:100;not null" json:"name"`
	Currency  string      `gorm:"size:3;not null;default:USD" json:"currency"`
	Balance   money.Money `gorm:"type:numeric(20,8);not null;default:0" json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a Account) String() string {
	return a.Name + " - " + a.Balance.Display(a.Currency)
}
