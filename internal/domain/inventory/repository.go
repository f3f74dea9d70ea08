package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockReader provides read-only access to the stock ledger.
// Validation is a pure read and must never mutate state, so the validator
// depends on this interface rather than the full ledger.
type StockReader interface {
	// GetBalance returns the current quantity for a material. When locationID
	// is nil the total across all locations is returned.
	GetBalance(ctx context.Context, materialID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error)
	// GetMaterialMeta returns the catalog view for a material, or
	// shared.ErrNotFound when the material does not resolve.
	GetMaterialMeta(ctx context.Context, materialID uuid.UUID) (*MaterialMeta, error)
}

// StockLedger is the authoritative quantity-per-location store.
// Writes go through GetOrCreateStock + SaveWithLock so that each
// read-modify-write is guarded by the aggregate version; a blind overwrite
// of a concurrently modified row fails with CONCURRENCY_CONFLICT.
type StockLedger interface {
	StockReader

	// GetOrCreateStock loads the stock record for a material-location pair,
	// creating a zero-quantity record when none exists.
	GetOrCreateStock(ctx context.Context, materialID, locationID uuid.UUID) (*MaterialStock, error)
	// SaveWithLock persists a mutated stock record using optimistic locking.
	// Returns shared.ErrConcurrencyConflict when the stored version moved.
	SaveWithLock(ctx context.Context, stock *MaterialStock) error
	// RecordMovement appends an audit record for an applied adjustment
	RecordMovement(ctx context.Context, movement *StockMovement) error
}

// MaterialRepository provides access to the material catalog
type MaterialRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)
	Save(ctx context.Context, material *Material) error
}
