package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/inventory"
)

// RegisterMaterialRequest represents a request to add a material to the catalog
type RegisterMaterialRequest struct {
	Code      string           `json:"code" binding:"required,max=50"`
	Name      string           `json:"name" binding:"required,max=200"`
	Unit      string           `json:"unit" binding:"max=20"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// MaterialResponse represents a catalog material in API responses
type MaterialResponse struct {
	ID         uuid.UUID        `json:"id"`
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Unit       string           `json:"unit,omitempty"`
	Active     bool             `json:"active"`
	Returnable bool             `json:"returnable"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// SetStockBalanceRequest carries an absolute stock-count result for one
// material-location pair
type SetStockBalanceRequest struct {
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reference  string          `json:"reference" binding:"max=100"`
}

// BalanceResponse reports the ledger quantity for a material
type BalanceResponse struct {
	MaterialID uuid.UUID       `json:"material_id"`
	LocationID *uuid.UUID      `json:"location_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

func newMaterialResponse(m *inventory.Material) *MaterialResponse {
	return &MaterialResponse{
		ID:         m.ID,
		Code:       m.Code,
		Name:       m.Name,
		Unit:       m.Unit,
		Active:     m.Active,
		Returnable: m.Returnable,
		UnitPrice:  m.UnitPrice,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// CatalogService maintains the material catalog and exposes ledger balances.
// The return workflow reads materials through the stock ledger; this service
// is the write side of that catalog, including stock-count corrections.
type CatalogService struct {
	materialRepo inventory.MaterialRepository
	ledger       inventory.StockLedger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(materialRepo inventory.MaterialRepository, ledger inventory.StockLedger) *CatalogService {
	return &CatalogService{
		materialRepo: materialRepo,
		ledger:       ledger,
	}
}

// RegisterMaterial adds a new material to the catalog
func (s *CatalogService) RegisterMaterial(ctx context.Context, req RegisterMaterialRequest) (*MaterialResponse, error) {
	material, err := inventory.NewMaterial(req.Code, req.Name, req.Unit, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	if err := s.materialRepo.Save(ctx, material); err != nil {
		return nil, err
	}
	return newMaterialResponse(material), nil
}

// GetMaterial loads one material by ID
func (s *CatalogService) GetMaterial(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return newMaterialResponse(material), nil
}

// SetReturnable toggles return eligibility for a material
func (s *CatalogService) SetReturnable(ctx context.Context, id uuid.UUID, returnable bool) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	material.SetReturnable(returnable)
	if err := s.materialRepo.Save(ctx, material); err != nil {
		return nil, err
	}
	return newMaterialResponse(material), nil
}

// GetBalance reads the ledger quantity for a material, optionally scoped to
// one location
func (s *CatalogService) GetBalance(ctx context.Context, materialID uuid.UUID, locationID *uuid.UUID) (*BalanceResponse, error) {
	quantity, err := s.ledger.GetBalance(ctx, materialID, locationID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		MaterialID: materialID,
		LocationID: locationID,
		Quantity:   quantity,
	}, nil
}

// SetStockBalance overwrites the ledger balance for a material at one
// location with the absolute quantity reported by a stock count. The
// correction is persisted under the optimistic lock and leaves an
// adjustment movement carrying the applied delta; a count matching the
// current balance changes nothing.
func (s *CatalogService) SetStockBalance(ctx context.Context, materialID uuid.UUID, req SetStockBalanceRequest, countedBy uuid.UUID) (*BalanceResponse, error) {
	if _, err := s.materialRepo.FindByID(ctx, materialID); err != nil {
		return nil, err
	}

	stock, err := s.ledger.GetOrCreateStock(ctx, materialID, req.LocationID)
	if err != nil {
		return nil, err
	}

	delta := req.Quantity.Sub(stock.Quantity)
	if err := stock.SetQuantity(req.Quantity, req.Reference); err != nil {
		return nil, err
	}

	if !delta.IsZero() {
		if err := s.ledger.SaveWithLock(ctx, stock); err != nil {
			return nil, err
		}
		movement, err := inventory.NewStockMovement(
			stock, delta, inventory.MovementSourceAdjustment, nil, req.Reference, countedBy)
		if err != nil {
			return nil, err
		}
		if err := s.ledger.RecordMovement(ctx, movement); err != nil {
			return nil, err
		}
	}

	locationID := req.LocationID
	return &BalanceResponse{
		MaterialID: materialID,
		LocationID: &locationID,
		Quantity:   stock.Quantity,
	}, nil
}
