package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_reassignments",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Reassignment{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("reassignments")
			},
		},
	})
	return m.Migrate()
}
