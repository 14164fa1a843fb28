package session

import (
	"context"
	"errors"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"gorm.io/gorm"
)

type Repository interface {
	Save(ctx context.Context, record *entities.SessionRecord) error
	Find(ctx context.Context, identity string) (entities.SessionRecord, error)
	FindAll(ctx context.Context) ([]entities.SessionRecord, error)
	Delete(ctx context.Context, identity string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Save(ctx context.Context, record *entities.SessionRecord) error {
	var existing entities.SessionRecord
	err := r.db.WithContext(ctx).Where("identity = ?", record.Identity).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(record).Error
	} else if err != nil {
		return err
	}

	record.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) Find(ctx context.Context, identity string) (entities.SessionRecord, error) {
	var record entities.SessionRecord
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&record).Error
	return record, err
}

func (r *repository) FindAll(ctx context.Context) ([]entities.SessionRecord, error) {
	var records []entities.SessionRecord
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error
	return records, err
}

func (r *repository) Delete(ctx context.Context, identity string) error {
	return r.db.WithContext(ctx).Where("identity = ?", identity).Delete(&entities.SessionRecord{}).Error
}
