package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StallRepository interface {
	Create(ctx context.Context, tx *gorm.DB, stall *models.Stall) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error)
	Update(ctx context.Context, tx *gorm.DB, stall *models.Stall) error
	DecrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	IncrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	DeleteUnsold(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type stallRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewStallRepository(db *gorm.DB, clk clock.Clock) StallRepository {
	return &stallRepository{db: db, clock: clk}
}

func (r *stallRepository) Create(ctx context.Context, tx *gorm.DB, stall *models.Stall) error {
	return conn(r.db, tx).WithContext(ctx).Create(stall).Error
}

func (r *stallRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error) {
	var stall models.Stall
	if err := conn(r.db, tx).WithContext(ctx).First(&stall, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stall, nil
}

// FindByIDForUpdate locks the stall row until the surrounding transaction ends.
func (r *stallRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error) {
	var stall models.Stall
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stall, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stall, nil
}

func (r *stallRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error) {
	var stalls []models.Stall
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("price ASC, name ASC").
		Find(&stalls).Error; err != nil {
		return nil, err
	}
	return stalls, nil
}

func (r *stallRepository) Update(ctx context.Context, tx *gorm.DB, stall *models.Stall) error {
	stall.UpdatedAt = r.clock.Now()
	return conn(r.db, tx).WithContext(ctx).
		Model(&models.Stall{}).
		Where("id = ?", stall.ID).
		Updates(map[string]any{
			"name":       stall.Name,
			"tier":       stall.Tier,
			"price":      stall.Price,
			"specs":      stall.Specs,
			"qty_total":  stall.QtyTotal,
			"qty_left":   stall.QtyLeft,
			"updated_at": stall.UpdatedAt,
		}).Error
}

// DecrementLeft takes one unit of capacity in a single conditional UPDATE.
// It reports false when the stall had nothing left (or does not exist).
func (r *stallRepository) DecrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Stall{}).
		Where("id = ? AND qty_left > 0", id).
		UpdateColumn("qty_left", gorm.Expr("qty_left - 1"))
	if res.Error != nil {
		if IsCheckViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementLeft gives one unit back, never above qty_total.
func (r *stallRepository) IncrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Stall{}).
		Where("id = ? AND qty_left < qty_total", id).
		UpdateColumn("qty_left", gorm.Expr("qty_left + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteUnsold removes the stall only while no unit of it is sold.
func (r *stallRepository) DeleteUnsold(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).
		Where("id = ? AND qty_left = qty_total", id).
		Delete(&models.Stall{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
