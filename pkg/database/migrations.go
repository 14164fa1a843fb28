package database

import (
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.User{},
		&entities.SessionRecord{},
		&entities.IgnoredContact{},
		&entities.Trigger{},
		&entities.TriggerStep{},
	)
}
