package returns

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Event types for the returns domain
const (
	EventTypeReturnCreated   = "returns.created"
	EventTypeReturnApproved  = "returns.approved"
	EventTypeReturnRejected  = "returns.rejected"
	EventTypeReturnProcessed = "returns.processed"
	EventTypeLineProcessed   = "returns.line_processed"
	EventTypeLineRejected    = "returns.line_rejected"
)

const aggregateTypeReturn = "ReturnRequest"

// ReturnCreatedEvent is raised when a return request is created
type ReturnCreatedEvent struct {
	shared.BaseDomainEvent
	Code        string         `json:"code"`
	Category    ReturnCategory `json:"category"`
	RequestedBy uuid.UUID      `json:"requested_by"`
}

// NewReturnCreatedEvent creates a new ReturnCreatedEvent
func NewReturnCreatedEvent(r *ReturnRequest) *ReturnCreatedEvent {
	return &ReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnCreated, aggregateTypeReturn, r.ID),
		Code:            r.Code,
		Category:        r.Category,
		RequestedBy:     r.RequestedBy,
	}
}

// ReturnApprovedEvent is raised when a return is approved
type ReturnApprovedEvent struct {
	shared.BaseDomainEvent
	Code       string          `json:"code"`
	Category   ReturnCategory  `json:"category"`
	ApprovedBy uuid.UUID       `json:"approved_by"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// NewReturnApprovedEvent creates a new ReturnApprovedEvent
func NewReturnApprovedEvent(r *ReturnRequest, approverID uuid.UUID) *ReturnApprovedEvent {
	return &ReturnApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnApproved, aggregateTypeReturn, r.ID),
		Code:            r.Code,
		Category:        r.Category,
		ApprovedBy:      approverID,
		TotalValue:      r.TotalValue,
	}
}

// ReturnRejectedEvent is raised when a return is rejected
type ReturnRejectedEvent struct {
	shared.BaseDomainEvent
	Code       string         `json:"code"`
	Category   ReturnCategory `json:"category"`
	RejectedBy uuid.UUID      `json:"rejected_by"`
	Reason     string         `json:"reason"`
}

// NewReturnRejectedEvent creates a new ReturnRejectedEvent
func NewReturnRejectedEvent(r *ReturnRequest, rejecterID uuid.UUID, reason string) *ReturnRejectedEvent {
	return &ReturnRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRejected, aggregateTypeReturn, r.ID),
		Code:            r.Code,
		Category:        r.Category,
		RejectedBy:      rejecterID,
		Reason:          reason,
	}
}

// ReturnProcessedEvent is raised when processing completes with at least one
// applied line
type ReturnProcessedEvent struct {
	shared.BaseDomainEvent
	Code           string          `json:"code"`
	Category       ReturnCategory  `json:"category"`
	ProcessedBy    uuid.UUID       `json:"processed_by"`
	ProcessedLines int             `json:"processed_lines"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// NewReturnProcessedEvent creates a new ReturnProcessedEvent
func NewReturnProcessedEvent(r *ReturnRequest, processorID uuid.UUID, processedLines int) *ReturnProcessedEvent {
	return &ReturnProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnProcessed, aggregateTypeReturn, r.ID),
		Code:            r.Code,
		Category:        r.Category,
		ProcessedBy:     processorID,
		ProcessedLines:  processedLines,
		TotalValue:      r.TotalValue,
	}
}
