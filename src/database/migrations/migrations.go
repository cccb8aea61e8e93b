// package migrations
package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brokerledger/src/model"
)

// DataMigration tracks executed data migrations.
// Table name is fixed to avoid collisions with other models.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

// Models lists every table of the write-side schema, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.TransactionType{},
		&model.InstrumentType{},
		&model.Instrument{},
		&model.Account{},
		&model.Position{},
		&model.Transaction{},
		&model.Exception{},
		&DataMigration{},
	}
}

// RunOnce runs fn only if migrationID was not executed before.
// It records the migration as executed only after fn succeeds.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if migrationID == "" {
		return fmt.Errorf("migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("migration %q has nil fn", migrationID)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("ensure data migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var m DataMigration
		err := tx.First(&m, "id = ?", migrationID).Error
		if err == nil {
			// already applied
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check migration %q: %w", migrationID, err)
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("run migration %q: %w", migrationID, err)
		}

		rec := DataMigration{
			ID:        migrationID,
			AppliedAt: time.Now().UTC(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}

		return nil
	})
}

// Run executes all data migrations that go beyond schema auto-migrations.
// Append new migrations at the bottom with a stable unique id.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	if err := RunOnce(db, "00001_seed_transaction_types", seedTransactionTypes); err != nil {
		return err
	}

	return nil
}

func seedTransactionTypes(tx *gorm.DB) error {
	types := make([]model.TransactionType, len(model.TransactionTypes))
	copy(types, model.TransactionTypes)

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category"}),
	}).Create(&types).Error
}

// VerifyTransactionTypes fails when any code of the fixed enumeration is missing or
// carries a different category than the code expects.
func VerifyTransactionTypes(db *gorm.DB) error {
	var rows []model.TransactionType
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("load transaction types: %w", err)
	}

	byCode := make(map[model.TransactionTypeCode]model.TransactionType, len(rows))
	for _, r := range rows {
		byCode[r.Code] = r
	}

	for _, want := range model.TransactionTypes {
		got, ok := byCode[want.Code]
		if !ok {
			return fmt.Errorf("transaction type %d (%s) is not seeded", want.Code, want.Name)
		}
		if got.Category != want.Category {
			return fmt.Errorf("transaction type %d has category %q, want %q", want.Code, got.Category, want.Category)
		}
	}
	return nil
}
