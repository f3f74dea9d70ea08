package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// MaterialStock represents the on-hand quantity of a material at a specific
// storage location. It is the aggregate root for ledger adjustments.
// The composite identifier is MaterialID + LocationID.
type MaterialStock struct {
	shared.BaseAggregateRoot
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_material_stock_material_location,priority:1"`
	LocationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_material_stock_material_location,priority:2"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MaterialStock) TableName() string {
	return "material_stocks"
}

// NewMaterialStock creates a new stock record for a material-location combination
func NewMaterialStock(materialID, locationID uuid.UUID) (*MaterialStock, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	return &MaterialStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MaterialID:        materialID,
		LocationID:        locationID,
		Quantity:          decimal.Zero,
	}, nil
}

// Adjust applies a signed quantity delta to the balance.
// A delta that would drive the balance below zero is rejected with
// WOULD_UNDERFLOW and leaves the record untouched.
func (s *MaterialStock) Adjust(delta decimal.Decimal, reference string) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	newQuantity := s.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		return shared.ErrWouldUnderflow
	}

	oldQuantity := s.Quantity
	s.Quantity = newQuantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockAdjustedEvent(s, oldQuantity, delta, reference))

	return nil
}

// SetQuantity overwrites the balance with an absolute quantity.
// Used for idempotent "set" writes from stock counting; negative targets are rejected.
func (s *MaterialStock) SetQuantity(quantity decimal.Decimal, reference string) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}
	if quantity.Equal(s.Quantity) {
		return nil
	}

	oldQuantity := s.Quantity
	delta := quantity.Sub(s.Quantity)
	s.Quantity = quantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockAdjustedEvent(s, oldQuantity, delta, reference))

	return nil
}

// CanAbsorb reports whether the balance can absorb the given signed delta
// without going negative.
func (s *MaterialStock) CanAbsorb(delta decimal.Decimal) bool {
	return !s.Quantity.Add(delta).IsNegative()
}
