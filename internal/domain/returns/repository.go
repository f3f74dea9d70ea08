package returns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms/backend/internal/domain/shared"
)

// ReturnRepository provides persistence for return requests and their lines
type ReturnRepository interface {
	// Create persists a new return request together with all of its lines
	// in one transaction. Nothing is persisted when any part fails.
	Create(ctx context.Context, request *ReturnRequest) error
	// FindByID loads a return request with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	// FindByCode loads a return request by its document code
	FindByCode(ctx context.Context, code string) (*ReturnRequest, error)
	// FindAll lists return requests matching the filter, lines included
	FindAll(ctx context.Context, filter shared.Filter) ([]ReturnRequest, error)
	// Count counts return requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindByStatus lists returns in a given status, oldest first
	FindByStatus(ctx context.Context, status ReturnStatus, filter shared.Filter) ([]ReturnRequest, error)
	// FindInRange lists returns requested inside the half-open range [from, to).
	// A nil bound leaves that side open.
	FindInRange(ctx context.Context, from, to *time.Time) ([]ReturnRequest, error)
	// SaveWithLock persists aggregate state changes using optimistic locking
	// on the version column. Returns shared.ErrConcurrencyConflict when the
	// stored version moved underneath the caller.
	SaveWithLock(ctx context.Context, request *ReturnRequest) error
	// SaveLine persists a single line's status change
	SaveLine(ctx context.Context, line *ReturnLine) error
	// MaxCodeSequence returns the highest numeric suffix among codes starting
	// with the given prefix (e.g. "RET-CUST-2608-"), or 0 when none exist.
	MaxCodeSequence(ctx context.Context, prefix string) (int, error)
}
