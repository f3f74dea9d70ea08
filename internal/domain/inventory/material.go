package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Material represents the catalog record for a stocked material.
// The return workflow only consumes it for eligibility checks and pricing;
// catalog maintenance is owned elsewhere.
type Material struct {
	shared.BaseAggregateRoot
	Code       string           `gorm:"size:50;not null;uniqueIndex"`
	Name       string           `gorm:"size:200;not null"`
	Unit       string           `gorm:"size:20"`
	Active     bool             `gorm:"not null;default:true"`
	Returnable bool             `gorm:"not null;default:true"`
	UnitPrice  *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (Material) TableName() string {
	return "materials"
}

// NewMaterial creates a new active, returnable material
func NewMaterial(code, name, unit string, unitPrice *decimal.Decimal) (*Material, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Material code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Material code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Material name cannot be empty")
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &Material{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Unit:              unit,
		Active:            true,
		Returnable:        true,
		UnitPrice:         unitPrice,
	}, nil
}

// SetReturnable toggles whether the material may appear on return lines
func (m *Material) SetReturnable(returnable bool) {
	m.Returnable = returnable
	m.IncrementVersion()
}

// Meta returns the subset of material data the return workflow consumes
func (m *Material) Meta() MaterialMeta {
	return MaterialMeta{
		ID:         m.ID,
		Code:       m.Code,
		Name:       m.Name,
		Active:     m.Active,
		Returnable: m.Returnable,
		UnitPrice:  m.UnitPrice,
	}
}

// MaterialMeta is the read-only material view used during return validation
type MaterialMeta struct {
	ID         uuid.UUID
	Code       string
	Name       string
	Active     bool
	Returnable bool
	UnitPrice  *decimal.Decimal
}

// EffectiveUnitPrice returns the catalog unit price, or the given override when present
func (m MaterialMeta) EffectiveUnitPrice(override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if m.UnitPrice != nil {
		return *m.UnitPrice
	}
	return decimal.Zero
}
