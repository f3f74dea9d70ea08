package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// Validation failure codes produced by the line validator
const (
	FailureMaterialNotFound  = "MATERIAL_NOT_FOUND"
	FailureMaterialInactive  = "MATERIAL_INACTIVE"
	FailureReturnsNotAllowed = "RETURNS_NOT_ALLOWED"
	FailureInvalidQuantity   = "INVALID_QUANTITY"
	FailureInsufficientStock = "INSUFFICIENT_STOCK"
	FailureWouldUnderflow    = "WOULD_UNDERFLOW"
)

// LineRequest is one requested material/quantity entry, as submitted by a caller
type LineRequest struct {
	MaterialID            uuid.UUID
	Quantity              decimal.Decimal
	UnitPrice             *decimal.Decimal
	DetailReason          string
	SourceLocationID      *uuid.UUID
	DestinationLocationID *uuid.UUID
}

// ValidationResult is the per-line outcome of eligibility and stock checks.
// It is transient and never persisted.
type ValidationResult struct {
	MaterialID        uuid.UUID
	RequestedQuantity decimal.Decimal
	AvailableQuantity decimal.Decimal
	Valid             bool
	FailureCode       string
	RejectionReason   string
	// Material carries the resolved catalog view for valid lines so callers
	// can snapshot code/name/price without a second lookup.
	Material *inventory.MaterialMeta
}

// LineValidator checks requested lines against the material catalog and the
// live stock ledger. Validation is a pure read: it never mutates state.
type LineValidator struct {
	reader inventory.StockReader
}

// NewLineValidator creates a new LineValidator
func NewLineValidator(reader inventory.StockReader) *LineValidator {
	return &LineValidator{reader: reader}
}

// Validate checks every line and returns one result per input line, order
// preserved. Line-level failures are reported in the results; only
// infrastructure failures (ledger unavailable) surface as an error.
func (v *LineValidator) Validate(ctx context.Context, lines []LineRequest) ([]ValidationResult, error) {
	results := make([]ValidationResult, 0, len(lines))
	for i := range lines {
		result, err := v.validateLine(ctx, &lines[i])
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func (v *LineValidator) validateLine(ctx context.Context, line *LineRequest) (*ValidationResult, error) {
	result := &ValidationResult{
		MaterialID:        line.MaterialID,
		RequestedQuantity: line.Quantity,
		AvailableQuantity: decimal.Zero,
	}

	meta, err := v.reader.GetMaterialMeta(ctx, line.MaterialID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || isDomainCode(err, "NOT_FOUND") {
			result.fail(FailureMaterialNotFound, fmt.Sprintf("material %s does not exist", line.MaterialID))
			return result, nil
		}
		return nil, fmt.Errorf("failed to resolve material %s: %w", line.MaterialID, err)
	}
	result.Material = meta

	if !meta.Active {
		result.fail(FailureMaterialInactive, fmt.Sprintf("material %s is inactive", meta.Code))
		return result, nil
	}
	if !meta.Returnable {
		result.fail(FailureReturnsNotAllowed, fmt.Sprintf("material %s does not allow returns", meta.Code))
		return result, nil
	}

	// Availability is scoped to the source location when one is given,
	// otherwise the material's total across all locations.
	available, err := v.reader.GetBalance(ctx, line.MaterialID, line.SourceLocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance for material %s: %w", line.MaterialID, err)
	}
	result.AvailableQuantity = available

	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		result.fail(FailureInvalidQuantity, "requested quantity must be positive")
		return result, nil
	}
	if line.Quantity.GreaterThan(available) {
		result.fail(FailureInsufficientStock,
			fmt.Sprintf("requested %s of material %s but only %s available", line.Quantity, meta.Code, available))
		return result, nil
	}

	result.Valid = true
	return result, nil
}

func (r *ValidationResult) fail(code, reason string) {
	r.Valid = false
	r.FailureCode = code
	r.RejectionReason = reason
}

func isDomainCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
