package returns

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// MovementPlan is one signed ledger adjustment at a specific location
type MovementPlan struct {
	LocationID uuid.UUID
	Delta      decimal.Decimal
}

// IsInbound returns true when the plan increases stock
func (p MovementPlan) IsInbound() bool {
	return p.Delta.IsPositive()
}

// MovementPolicy resolves the ledger adjustments a return line implies.
// It branches exhaustively over the closed category set so that a new
// category is a compile-visible extension point, not a silent fallthrough.
type MovementPolicy struct{}

// NewMovementPolicy creates a new MovementPolicy
func NewMovementPolicy() *MovementPolicy {
	return &MovementPolicy{}
}

// Resolve returns the adjustments for one line of the given category:
//   - CUSTOMER: one increase at the destination (goods re-enter inventory)
//   - SUPPLIER: one decrease at the source (goods leave to the supplier)
//   - INTERNAL: decrease at source and increase at destination when both are
//     present and differ; a single one-sided entry when only one location is
//     given. Equal locations are a net-zero transfer and a caller error.
func (MovementPolicy) Resolve(category ReturnCategory, line *ReturnLine) ([]MovementPlan, error) {
	if line == nil {
		return nil, shared.NewDomainError("INVALID_LINE", "Return line cannot be nil")
	}
	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}

	switch category {
	case CategoryCustomer:
		if line.DestinationLocationID == nil {
			return nil, shared.NewDomainError("MISSING_LOCATION", "Customer returns require a destination location")
		}
		return []MovementPlan{
			{LocationID: *line.DestinationLocationID, Delta: line.Quantity},
		}, nil

	case CategorySupplier:
		if line.SourceLocationID == nil {
			return nil, shared.NewDomainError("MISSING_LOCATION", "Supplier returns require a source location")
		}
		return []MovementPlan{
			{LocationID: *line.SourceLocationID, Delta: line.Quantity.Neg()},
		}, nil

	case CategoryInternal:
		src, dst := line.SourceLocationID, line.DestinationLocationID
		switch {
		case src != nil && dst != nil && *src == *dst:
			return nil, shared.NewDomainError("NOOP_TRANSFER", "Internal return with equal source and destination is a no-op")
		case src != nil && dst != nil:
			return []MovementPlan{
				{LocationID: *src, Delta: line.Quantity.Neg()},
				{LocationID: *dst, Delta: line.Quantity},
			}, nil
		case src != nil:
			return []MovementPlan{
				{LocationID: *src, Delta: line.Quantity.Neg()},
			}, nil
		case dst != nil:
			return []MovementPlan{
				{LocationID: *dst, Delta: line.Quantity},
			}, nil
		default:
			return nil, shared.NewDomainError("MISSING_LOCATION", "Internal returns require at least one location")
		}
	}

	return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown return category")
}
