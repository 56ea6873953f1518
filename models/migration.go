package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Invoice{}, &InvoiceItem{}, &InvoiceTemplate{},
	)
	if err != nil {
		return err
	}
	log.Println("Migration complete")
	return nil
}
