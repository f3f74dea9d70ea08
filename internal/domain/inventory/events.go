package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Event types for the inventory domain
const (
	EventTypeStockAdjusted = "inventory.stock_adjusted"
)

// StockAdjustedEvent is raised when a ledger balance changes
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	MaterialID  uuid.UUID       `json:"material_id"`
	LocationID  uuid.UUID       `json:"location_id"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Delta       decimal.Decimal `json:"delta"`
	Reference   string          `json:"reference,omitempty"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(stock *MaterialStock, oldQuantity, delta decimal.Decimal, reference string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, "MaterialStock", stock.ID),
		MaterialID:      stock.MaterialID,
		LocationID:      stock.LocationID,
		OldQuantity:     oldQuantity,
		NewQuantity:     stock.Quantity,
		Delta:           delta,
		Reference:       reference,
	}
}
