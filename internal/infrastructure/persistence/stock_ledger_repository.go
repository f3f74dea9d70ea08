package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// GormStockLedger implements inventory.StockLedger using GORM
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// GetBalance returns the current quantity for a material. When locationID is
// nil the total across all locations is returned; materials with no stock
// rows report zero.
func (r *GormStockLedger) GetBalance(ctx context.Context, materialID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&inventory.MaterialStock{}).
		Where("material_id = ?", materialID)
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	var balance decimal.Decimal
	if err := query.
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&balance).Error; err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetMaterialMeta returns the catalog view for a material
func (r *GormStockLedger) GetMaterialMeta(ctx context.Context, materialID uuid.UUID) (*inventory.MaterialMeta, error) {
	var material inventory.Material
	if err := r.db.WithContext(ctx).
		First(&material, "id = ?", materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	meta := material.Meta()
	return &meta, nil
}

// GetOrCreateStock loads the stock record for a material-location pair,
// creating a zero-quantity record when none exists. Two callers racing on
// the same missing pair both end up with the single row the unique index
// lets through.
func (r *GormStockLedger) GetOrCreateStock(ctx context.Context, materialID, locationID uuid.UUID) (*inventory.MaterialStock, error) {
	stock, err := r.findStock(ctx, materialID, locationID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := inventory.NewMaterialStock(materialID, locationID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.loadStock(ctx, materialID, locationID)
		}
		return nil, err
	}
	return created, nil
}

func (r *GormStockLedger) loadStock(ctx context.Context, materialID, locationID uuid.UUID) (*inventory.MaterialStock, error) {
	stock, err := r.findStock(ctx, materialID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return stock, nil
}

func (r *GormStockLedger) findStock(ctx context.Context, materialID, locationID uuid.UUID) (*inventory.MaterialStock, error) {
	var stock inventory.MaterialStock
	if err := r.db.WithContext(ctx).
		Where("material_id = ? AND location_id = ?", materialID, locationID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// SaveWithLock persists a mutated stock record with optimistic locking on
// the version column
func (r *GormStockLedger) SaveWithLock(ctx context.Context, stock *inventory.MaterialStock) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.MaterialStock{}).
		Where("id = ? AND version = ?", stock.ID, stock.Version-1).
		Updates(map[string]any{
			"quantity":   stock.Quantity,
			"version":    stock.Version,
			"updated_at": stock.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// RecordMovement appends an audit record for an applied adjustment
func (r *GormStockLedger) RecordMovement(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// Ensure GormStockLedger implements StockLedger
var _ inventory.StockLedger = (*GormStockLedger)(nil)
