package database

import (
	"github.com/Kratospidey/gbs-sub000/models"
	"gorm.io/gorm"
)

// Database wraps the relational profile store. Repositories share one GORM
// instance.
type Database struct {
	profileRepo *ProfileRepo
}

func New(db *gorm.DB) Database {
	return Database{
		profileRepo: NewProfileRepo(db),
	}
}

func (d Database) ProfileRepo() *ProfileRepo {
	return d.profileRepo
}

// Migrate creates or updates the profiles table.
func (d Database) Migrate() error {
	return d.profileRepo.db.AutoMigrate(&models.Profile{})
}
