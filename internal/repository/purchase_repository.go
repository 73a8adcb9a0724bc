package repository

import (
	"github.com/voxlane/voxlane-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db: db,
	}
}

// RecordOnce inserts the purchase unless a row with the same provider
// event id already exists. Returns whether a row was actually inserted,
// so callers can tell a first delivery from a redelivery.
func (r *PurchaseRepository) RecordOnce(purchase *models.Purchase) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(purchase)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PurchaseRepository) Recent(limit int) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}
