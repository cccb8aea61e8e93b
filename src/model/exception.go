package model

import "time"

// Exception is a system-level failure persisted for auditing and debugging. Only
// failures that are not the caller's fault are recorded.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Correlates the row with the log line and the error returned to the caller
	Reference string `gorm:"size:36;index" json:"reference"`

	Service string `gorm:"size:100;index" json:"service"` // e.g. "ledger_api"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "trading"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "ExecuteTrade"

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack"`

	Level string `gorm:"size:20;index" json:"level"` // warn | error | fatal

	// Request parameters as JSON
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
