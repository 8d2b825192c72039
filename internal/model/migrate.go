package model

import "gorm.io/gorm"

// All lists every table owned by the service, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Instruction{},
		&Chat{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
