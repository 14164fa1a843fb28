package ignored

import (
	"context"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/entities"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/utils"
	"gorm.io/gorm"
)

type Repository interface {
	Save(ctx context.Context, contact *entities.IgnoredContact) error
	FindByPhone(ctx context.Context, phone string) (entities.IgnoredContact, error)
	FindAll(ctx context.Context) ([]entities.IgnoredContact, error)
	FindPage(ctx context.Context, page int) ([]entities.IgnoredContact, int, error)
	DeleteByPhone(ctx context.Context, phone string) error
	DeleteByID(ctx context.Context, id uint) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Save(ctx context.Context, contact *entities.IgnoredContact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (entities.IgnoredContact, error) {
	var contact entities.IgnoredContact
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&contact).Error
	return contact, err
}

func (r *repository) FindAll(ctx context.Context) ([]entities.IgnoredContact, error) {
	var contacts []entities.IgnoredContact
	err := r.db.WithContext(ctx).Order("ignored_at DESC").Find(&contacts).Error
	return contacts, err
}

func (r *repository) FindPage(ctx context.Context, page int) ([]entities.IgnoredContact, int, error) {
	var contacts []entities.IgnoredContact
	totalPages, err := utils.Pagination(&contacts, page, r.db, ctx, "1 = 1")
	if err != nil {
		return nil, 0, err
	}
	return contacts, totalPages, nil
}

func (r *repository) DeleteByPhone(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("phone = ?", phone).
		Delete(&entities.IgnoredContact{}).Error
}

func (r *repository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Delete(&entities.IgnoredContact{}, id)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&entities.IgnoredContact{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("1 = 1").
		Delete(&entities.IgnoredContact{})
	return res.RowsAffected, res.Error
}
