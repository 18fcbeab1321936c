package repository

import (
	"payday-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *payoutRepository {
	return &payoutRepository{
		db: db,
	}
}

func (r *payoutRepository) Create(payout *model.Payout) error {
	if payout.ID == "" {
		payout.ID = uuid.New().String()
	}
	return r.db.Create(payout).Error
}

func (r *payoutRepository) GetByID(id string) (*model.Payout, error) {
	var payout model.Payout
	if err := r.db.First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) Update(payout *model.Payout) error {
	return r.db.Save(payout).Error
}

func (r *payoutRepository) ListByAddress(address string, limit int) ([]model.Payout, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var payouts []model.Payout
	err := r.db.Where("address = ?", address).
		Order("created_at DESC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}
