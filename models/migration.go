package models

import (
	"log"

	"github.com/warungtech/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Branch{},
		&ProductCategory{}, &Product{},
		&Promotion{},
		&PosTransaction{}, &PosTransactionDetail{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
