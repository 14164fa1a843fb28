package trigger

import (
	"context"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"gorm.io/gorm"
)

type Repository interface {
	FindAllEnabled(ctx context.Context) ([]entities.Trigger, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) FindAllEnabled(ctx context.Context) ([]entities.Trigger, error) {
	var triggers []entities.Trigger
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("enabled = ?", true).
		Find(&triggers).Error
	return triggers, err
}
