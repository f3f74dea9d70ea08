package persistence

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/domain/shared"
)

// GormReturnRepository implements returns.ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Create persists a new return request together with all of its lines in one
// transaction. A duplicate code maps to shared.ErrAlreadyExists.
func (r *GormReturnRepository) Create(ctx context.Context, request *returns.ReturnRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(request).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		for i := range request.Lines {
			request.Lines[i].ReturnID = request.ID
			if err := tx.Create(&request.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a return request by its ID, lines included
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	var request returns.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// FindByCode finds a return request by its document code
func (r *GormReturnRepository) FindByCode(ctx context.Context, code string) (*returns.ReturnRequest, error) {
	var request returns.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&request, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// FindAll finds return requests matching the filter
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requests []returns.ReturnRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&returns.ReturnRequest{}).Preload("Lines"),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Count counts return requests matching the filter
func (r *GormReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&returns.ReturnRequest{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByStatus finds return requests in a given status, oldest first
func (r *GormReturnRepository) FindByStatus(ctx context.Context, status returns.ReturnStatus, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requests []returns.ReturnRequest
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&returns.ReturnRequest{}).
			Preload("Lines").
			Where("status = ?", status),
		filter,
	)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if err := query.Order("requested_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindInRange finds return requests requested inside the half-open range
// [from, to). A nil bound leaves that side open.
func (r *GormReturnRepository) FindInRange(ctx context.Context, from, to *time.Time) ([]returns.ReturnRequest, error) {
	query := r.db.WithContext(ctx).Model(&returns.ReturnRequest{}).Preload("Lines")
	if from != nil {
		query = query.Where("requested_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("requested_at < ?", *to)
	}

	var requests []returns.ReturnRequest
	if err := query.Order("requested_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// SaveWithLock persists aggregate state changes with optimistic locking.
// The domain has already incremented the version, so the row is matched on
// the previous one; zero rows affected means another writer got there first.
func (r *GormReturnRepository) SaveWithLock(ctx context.Context, request *returns.ReturnRequest) error {
	result := r.db.WithContext(ctx).
		Model(&returns.ReturnRequest{}).
		Where("id = ? AND version = ?", request.ID, request.Version-1).
		Updates(map[string]any{
			"status":           request.Status,
			"approved_by":      request.ApprovedBy,
			"approved_at":      request.ApprovedAt,
			"approval_note":    request.ApprovalNote,
			"rejected_by":      request.RejectedBy,
			"rejected_at":      request.RejectedAt,
			"rejection_reason": request.RejectionReason,
			"processed_by":     request.ProcessedBy,
			"processed_at":     request.ProcessedAt,
			"processing_note":  request.ProcessingNote,
			"version":          request.Version,
			"updated_at":       request.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveLine persists a single line's status change
func (r *GormReturnRepository) SaveLine(ctx context.Context, line *returns.ReturnLine) error {
	result := r.db.WithContext(ctx).
		Model(&returns.ReturnLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"status":         line.Status,
			"rejection_note": line.RejectionNote,
			"processed_at":   line.ProcessedAt,
			"updated_at":     line.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MaxCodeSequence returns the highest numeric suffix among codes starting
// with the given prefix, or 0 when none exist. Timestamp fallback codes
// share the prefix but carry a non-numeric suffix and are skipped.
func (r *GormReturnRepository) MaxCodeSequence(ctx context.Context, prefix string) (int, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&returns.ReturnRequest{}).
		Where("code LIKE ?", prefix+"%").
		Pluck("code", &codes).Error; err != nil {
		return 0, err
	}

	max := 0
	for _, code := range codes {
		seq, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

// applyFilter applies filter options to the query
func (r *GormReturnRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	orderBy := ValidateSortField(filter.OrderBy, ReturnSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReturnRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR reason ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		case "source_document_id":
			query = query.Where("source_document_id = ?", value)
		case "from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("requested_at >= ?", t)
			}
		case "to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("requested_at < ?", t)
			}
		}
	}

	return query
}

// Ensure GormReturnRepository implements ReturnRepository
var _ returns.ReturnRepository = (*GormReturnRepository)(nil)
