package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/returns"
)

// SubmitReturnRequest represents a request to submit a new return
type SubmitReturnRequest struct {
	Category           returns.ReturnCategory      `json:"category" binding:"required"`
	SourceDocumentID   *uuid.UUID                  `json:"source_document_id"`
	SourceDocumentType *returns.SourceDocumentType `json:"source_document_type"`
	Reason             string                      `json:"reason" binding:"required"`
	Notes              string                      `json:"notes"`
	RequestedBy        uuid.UUID                   `json:"requested_by"`
	Lines              []SubmitLineRequest         `json:"lines" binding:"required,min=1,dive"`
}

// SubmitLineRequest represents a single line of a return submission
type SubmitLineRequest struct {
	MaterialID            uuid.UUID        `json:"material_id" binding:"required"`
	Quantity              decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice             *decimal.Decimal `json:"unit_price"`
	DetailReason          string           `json:"detail_reason"`
	SourceLocationID      *uuid.UUID       `json:"source_location_id"`
	DestinationLocationID *uuid.UUID       `json:"destination_location_id"`
}

// LineValidationResponse reports the validation outcome for one submitted line
type LineValidationResponse struct {
	MaterialID        uuid.UUID       `json:"material_id"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Valid             bool            `json:"valid"`
	FailureCode       string          `json:"failure_code,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
}

// SubmitReturnResponse is the result of a return submission
type SubmitReturnResponse struct {
	Success    bool                     `json:"success"`
	ReturnID   *uuid.UUID               `json:"return_id,omitempty"`
	Code       string                   `json:"code,omitempty"`
	Status     returns.ReturnStatus     `json:"status,omitempty"`
	TotalValue decimal.Decimal          `json:"total_value"`
	Validation []LineValidationResponse `json:"validation"`
	Process    *ProcessReturnResponse   `json:"process,omitempty"`
	Message    string                   `json:"message"`
}

// ApproveReturnRequest carries the approval decision
type ApproveReturnRequest struct {
	Note string `json:"note"`
}

// RejectReturnRequest carries the rejection decision
type RejectReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ProcessReturnRequest carries optional processing metadata
type ProcessReturnRequest struct {
	Note string `json:"note"`
}

// LineOutcomeResponse reports the processing outcome for one line
type LineOutcomeResponse struct {
	LineID           uuid.UUID          `json:"line_id"`
	MaterialID       uuid.UUID          `json:"material_id"`
	Status           returns.LineStatus `json:"status"`
	RejectionNote    string             `json:"rejection_note,omitempty"`
	MovementsApplied int                `json:"movements_applied"`
}

// ProcessReturnResponse is the result of processing an approved return
type ProcessReturnResponse struct {
	Success          bool                  `json:"success"`
	ReturnID         uuid.UUID             `json:"return_id"`
	FinalStatus      returns.ReturnStatus  `json:"final_status"`
	Lines            []LineOutcomeResponse `json:"lines"`
	MovementsApplied int                   `json:"movements_applied"`
	Message          string                `json:"message"`
}

// ReturnLineResponse represents a return line in API responses
type ReturnLineResponse struct {
	ID                    uuid.UUID          `json:"id"`
	MaterialID            uuid.UUID          `json:"material_id"`
	MaterialCode          string             `json:"material_code"`
	MaterialName          string             `json:"material_name"`
	Quantity              decimal.Decimal    `json:"quantity"`
	UnitPrice             decimal.Decimal    `json:"unit_price"`
	Subtotal              decimal.Decimal    `json:"subtotal"`
	DetailReason          string             `json:"detail_reason,omitempty"`
	SourceLocationID      *uuid.UUID         `json:"source_location_id,omitempty"`
	DestinationLocationID *uuid.UUID         `json:"destination_location_id,omitempty"`
	Status                returns.LineStatus `json:"status"`
	RejectionNote         string             `json:"rejection_note,omitempty"`
	ProcessedAt           *time.Time         `json:"processed_at,omitempty"`
}

// ReturnResponse represents a return request in API responses
type ReturnResponse struct {
	ID                 uuid.UUID                   `json:"id"`
	Code               string                      `json:"code"`
	Category           returns.ReturnCategory      `json:"category"`
	SourceDocumentID   *uuid.UUID                  `json:"source_document_id,omitempty"`
	SourceDocumentType *returns.SourceDocumentType `json:"source_document_type,omitempty"`
	Reason             string                      `json:"reason"`
	Notes              string                      `json:"notes,omitempty"`
	Status             returns.ReturnStatus        `json:"status"`
	TotalValue         decimal.Decimal             `json:"total_value"`
	RequestedBy        uuid.UUID                   `json:"requested_by"`
	RequestedAt        time.Time                   `json:"requested_at"`
	ApprovedBy         *uuid.UUID                  `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time                  `json:"approved_at,omitempty"`
	ApprovalNote       string                      `json:"approval_note,omitempty"`
	RejectedBy         *uuid.UUID                  `json:"rejected_by,omitempty"`
	RejectedAt         *time.Time                  `json:"rejected_at,omitempty"`
	RejectionReason    string                      `json:"rejection_reason,omitempty"`
	ProcessedBy        *uuid.UUID                  `json:"processed_by,omitempty"`
	ProcessedAt        *time.Time                  `json:"processed_at,omitempty"`
	ProcessingNote     string                      `json:"processing_note,omitempty"`
	Lines              []ReturnLineResponse        `json:"lines"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
	Version            int                         `json:"version"`
}

// ReturnListFilter represents filter options for listing returns
type ReturnListFilter struct {
	Category *returns.ReturnCategory `form:"category"`
	Status   *returns.ReturnStatus   `form:"status"`
	Search   string                  `form:"search"`
	From     *time.Time              `form:"from" time_format:"2006-01-02"`
	To       *time.Time              `form:"to" time_format:"2006-01-02"`
	Page     int                     `form:"page" binding:"min=0"`
	PageSize int                     `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string                  `form:"order_by"`
	OrderDir string                  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MaterialTotalResponse aggregates returned quantity and value per material
type MaterialTotalResponse struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	MaterialCode  string          `json:"material_code"`
	MaterialName  string          `json:"material_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// SummaryResponse aggregates return activity over a period
type SummaryResponse struct {
	From         *time.Time              `json:"from,omitempty"`
	To           *time.Time              `json:"to,omitempty"`
	TotalCount   int                     `json:"total_count"`
	TotalValue   decimal.Decimal         `json:"total_value"`
	ByCategory   map[string]int          `json:"by_category"`
	ByStatus     map[string]int          `json:"by_status"`
	TopMaterials []MaterialTotalResponse `json:"top_materials"`
}

// NewReturnLineResponse converts a domain return line to its API representation
func NewReturnLineResponse(l *returns.ReturnLine) ReturnLineResponse {
	return ReturnLineResponse{
		ID:                    l.ID,
		MaterialID:            l.MaterialID,
		MaterialCode:          l.MaterialCode,
		MaterialName:          l.MaterialName,
		Quantity:              l.Quantity,
		UnitPrice:             l.UnitPrice,
		Subtotal:              l.Subtotal,
		DetailReason:          l.DetailReason,
		SourceLocationID:      l.SourceLocationID,
		DestinationLocationID: l.DestinationLocationID,
		Status:                l.Status,
		RejectionNote:         l.RejectionNote,
		ProcessedAt:           l.ProcessedAt,
	}
}

// NewReturnResponse converts a domain return request to its API representation
func NewReturnResponse(r *returns.ReturnRequest) *ReturnResponse {
	lines := make([]ReturnLineResponse, 0, len(r.Lines))
	for i := range r.Lines {
		lines = append(lines, NewReturnLineResponse(&r.Lines[i]))
	}
	return &ReturnResponse{
		ID:                 r.ID,
		Code:               r.Code,
		Category:           r.Category,
		SourceDocumentID:   r.SourceDocumentID,
		SourceDocumentType: r.SourceDocumentType,
		Reason:             r.Reason,
		Notes:              r.Notes,
		Status:             r.Status,
		TotalValue:         r.TotalValue,
		RequestedBy:        r.RequestedBy,
		RequestedAt:        r.RequestedAt,
		ApprovedBy:         r.ApprovedBy,
		ApprovedAt:         r.ApprovedAt,
		ApprovalNote:       r.ApprovalNote,
		RejectedBy:         r.RejectedBy,
		RejectedAt:         r.RejectedAt,
		RejectionReason:    r.RejectionReason,
		ProcessedBy:        r.ProcessedBy,
		ProcessedAt:        r.ProcessedAt,
		ProcessingNote:     r.ProcessingNote,
		Lines:              lines,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
}

func newLineValidationResponse(v returns.ValidationResult) LineValidationResponse {
	return LineValidationResponse{
		MaterialID:        v.MaterialID,
		RequestedQuantity: v.RequestedQuantity,
		AvailableQuantity: v.AvailableQuantity,
		Valid:             v.Valid,
		FailureCode:       v.FailureCode,
		RejectionReason:   v.RejectionReason,
	}
}
