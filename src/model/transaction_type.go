package model

// TransactionTypeCode identifies a pre-seeded transaction type.
type TransactionTypeCode int

const (
	TransactionTypeBuy        TransactionTypeCode = 0
	TransactionTypeSell       TransactionTypeCode = 1
	TransactionTypeDeposit    TransactionTypeCode = 100
	TransactionTypeWithdrawal TransactionTypeCode = 101
)

const (
	TransactionCategoryTrading = "Trading"
	TransactionCategoryBalance = "Balance"
)

// TransactionType is a row of the fixed transaction type enumeration. Rows are written by
// a data migration and verified at startup, never created on demand.
type TransactionType struct {
	Code     TransactionTypeCode `gorm:"primaryKey;autoIncrement:false" json:"code"`
	Name     string              `gorm:"size:50;not null" json:"name"`
	Category string              `gorm:"size:50;not null" json:"category"`
}

func (TransactionType) TableName() string {
	return "transaction_types"
}

// TransactionTypes is the complete enumeration.
var TransactionTypes = []TransactionType{
	{Code: TransactionTypeBuy, Name: "Buy", Category: TransactionCategoryTrading},
	{Code: TransactionTypeSell, Name: "Sell", Category: TransactionCategoryTrading},
	{Code: TransactionTypeDeposit, Name: "Deposit", Category: TransactionCategoryBalance},
	{Code: TransactionTypeWithdrawal, Name: "Withdrawal", Category: TransactionCategoryBalance},
}

func (c TransactionTypeCode) String() string {
	switch c {
	case TransactionTypeBuy:
		return "buy"
	case TransactionTypeSell:
		return "sell"
	case TransactionTypeDeposit:
		return "deposit"
	case TransactionTypeWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}
