package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// MovementSource represents the document type that caused a stock movement
type MovementSource string

const (
	// MovementSourceReturn is a processed materials return
	MovementSourceReturn MovementSource = "RETURN"
	// MovementSourceAdjustment is a manual stock adjustment
	MovementSourceAdjustment MovementSource = "ADJUSTMENT"
	// MovementSourceInitial is initial stock setup
	MovementSourceInitial MovementSource = "INITIAL"
)

// IsValid returns true if the movement source is valid
func (s MovementSource) IsValid() bool {
	switch s {
	case MovementSourceReturn, MovementSourceAdjustment, MovementSourceInitial:
		return true
	}
	return false
}

// StockMovement is the append-only audit record for one signed ledger adjustment.
// Movements are never updated or deleted.
type StockMovement struct {
	shared.BaseEntity
	MaterialID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Delta          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Source         MovementSource  `gorm:"size:20;not null;index"`
	SourceID       *uuid.UUID      `gorm:"type:uuid;index"`
	Reference      string          `gorm:"size:100"`
	PerformedBy    uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new movement record for an applied adjustment
func NewStockMovement(
	stock *MaterialStock,
	delta decimal.Decimal,
	source MovementSource,
	sourceID *uuid.UUID,
	reference string,
	performedBy uuid.UUID,
) (*StockMovement, error) {
	if stock == nil {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock record cannot be nil")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown movement source")
	}
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement delta cannot be zero")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Performer ID cannot be empty")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		MaterialID:    stock.MaterialID,
		LocationID:    stock.LocationID,
		Delta:         delta,
		QuantityAfter: stock.Quantity,
		Source:        source,
		SourceID:      sourceID,
		Reference:     reference,
		PerformedBy:   performedBy,
	}, nil
}

// IsInbound returns true when the movement increased the balance
func (m *StockMovement) IsInbound() bool {
	return m.Delta.IsPositive()
}
