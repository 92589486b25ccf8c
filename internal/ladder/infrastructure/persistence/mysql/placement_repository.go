package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/pkg/db"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type placementRepository struct {
	db *db.DB
}

// NewPlacementRepository 创建挂单流水仓储
func NewPlacementRepository(database *db.DB) domain.PlacementRepository {
	return &placementRepository{db: database}
}

// AutoMigrate 创建或更新流水表
func AutoMigrate(database *db.DB) error {
	return database.AutoMigrate(&PlacementModel{})
}

func (r *placementRepository) SavePlacements(ctx context.Context, placements []domain.Placement) error {
	if len(placements) == 0 {
		return nil
	}
	models := make([]PlacementModel, 0, len(placements))
	for _, p := range placements {
		models = append(models, toPlacementModel(p))
	}
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save placements: %w", err)
	}
	return nil
}

func (r *placementRepository) ListPlacements(ctx context.Context, symbol string, limit int) ([]domain.Placement, error) {
	var models []PlacementModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}
	out := make([]domain.Placement, 0, len(models))
	for i := range models {
		out = append(out, toPlacement(&models[i]))
	}
	return out, nil
}
