package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// SystemActorID is the implicit actor recorded for automatic transitions
// such as the auto-approval of internal returns.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// ReturnStatus represents the status of a return request
type ReturnStatus string

const (
	// ReturnStatusPending is waiting for approval
	ReturnStatusPending ReturnStatus = "PENDING"
	// ReturnStatusApproved is approved and ready for processing
	ReturnStatusApproved ReturnStatus = "APPROVED"
	// ReturnStatusRejected was rejected by an approver or had no processable lines
	ReturnStatusRejected ReturnStatus = "REJECTED"
	// ReturnStatusProcessed had at least one line applied to the ledger
	ReturnStatusProcessed ReturnStatus = "PROCESSED"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusProcessed:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Transitions only move forward; REJECTED and PROCESSED are terminal. An
// approved return leaves APPROVED only through processing: FinishProcessing
// records its own rejected outcome when no line could be applied, callers
// cannot reject past approval.
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusRejected
	case ReturnStatusApproved:
		return target == ReturnStatusProcessed
	case ReturnStatusRejected, ReturnStatusProcessed:
		return false
	}
	return false
}

// IsTerminal returns true when no further aggregate transitions are allowed
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusProcessed
}

// LineStatus represents the processing status of a single return line.
// Lines carry their own sub-state so that processing can fail one line
// without failing the whole return.
type LineStatus string

const (
	// LineStatusPending has not been processed yet
	LineStatusPending LineStatus = "PENDING"
	// LineStatusProcessed had its ledger adjustments applied
	LineStatusProcessed LineStatus = "PROCESSED"
	// LineStatusRejected failed re-validation or underflowed during processing
	LineStatusRejected LineStatus = "REJECTED"
)

// IsValid checks if the status is a valid LineStatus
func (s LineStatus) IsValid() bool {
	switch s {
	case LineStatusPending, LineStatusProcessed, LineStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// IsTerminal returns true when the line outcome is final
func (s LineStatus) IsTerminal() bool {
	return s == LineStatusProcessed || s == LineStatusRejected
}

// ReturnLine represents one material/quantity entry within a return
type ReturnLine struct {
	shared.BaseEntity
	ReturnID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialCode          string          `gorm:"size:50"`
	MaterialName          string          `gorm:"size:200"`
	Quantity              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DetailReason          string          `gorm:"size:500"`
	SourceLocationID      *uuid.UUID      `gorm:"type:uuid"`
	DestinationLocationID *uuid.UUID      `gorm:"type:uuid"`
	Status                LineStatus      `gorm:"size:20;not null;default:'PENDING'"`
	RejectionNote         string          `gorm:"size:500"`
	ProcessedAt           *time.Time
}

// TableName returns the table name for GORM
func (ReturnLine) TableName() string {
	return "return_lines"
}

// NewReturnLine creates a new return line
func NewReturnLine(
	returnID, materialID uuid.UUID,
	materialCode, materialName string,
	quantity, unitPrice decimal.Decimal,
	detailReason string,
	sourceLocationID, destinationLocationID *uuid.UUID,
) (*ReturnLine, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &ReturnLine{
		BaseEntity:            shared.NewBaseEntity(),
		ReturnID:              returnID,
		MaterialID:            materialID,
		MaterialCode:          materialCode,
		MaterialName:          materialName,
		Quantity:              quantity,
		UnitPrice:             unitPrice,
		Subtotal:              quantity.Mul(unitPrice),
		DetailReason:          detailReason,
		SourceLocationID:      sourceLocationID,
		DestinationLocationID: destinationLocationID,
		Status:                LineStatusPending,
	}, nil
}

// ComputedSubtotal returns quantity x unit price. The stored subtotal is a
// denormalized copy of this value and is never trusted independently.
func (l *ReturnLine) ComputedSubtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// MarkProcessed marks the line as applied to the ledger.
// Calling it on an already terminal line is a no-op error, which makes
// re-processing idempotent at the line level.
func (l *ReturnLine) MarkProcessed() error {
	if l.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Line is already %s", l.Status))
	}
	now := time.Now()
	l.Status = LineStatusProcessed
	l.ProcessedAt = &now
	l.UpdatedAt = now
	return nil
}

// MarkRejected marks the line as rejected during processing
func (l *ReturnLine) MarkRejected(note string) error {
	if l.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Line is already %s", l.Status))
	}
	now := time.Now()
	l.Status = LineStatusRejected
	l.RejectionNote = note
	l.UpdatedAt = now
	return nil
}

// ReturnRequest represents a materials-return request aggregate root.
// It owns its lines and the lifecycle pending -> approved -> processed,
// with pending -> rejected as the failure branch. Requests are retained
// for audit and never deleted by this subsystem.
type ReturnRequest struct {
	shared.BaseAggregateRoot
	Code               string              `gorm:"size:50;not null;uniqueIndex"`
	Category           ReturnCategory      `gorm:"size:20;not null;index"`
	SourceDocumentID   *uuid.UUID          `gorm:"type:uuid"`
	SourceDocumentType *SourceDocumentType `gorm:"size:20"`
	Reason             string              `gorm:"size:500;not null"`
	Notes              string              `gorm:"size:1000"`
	Status             ReturnStatus        `gorm:"size:20;not null;index"`
	TotalValue         decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	RequestedBy        uuid.UUID           `gorm:"type:uuid;not null"`
	RequestedAt        time.Time           `gorm:"not null"`
	ApprovedBy         *uuid.UUID          `gorm:"type:uuid"`
	ApprovedAt         *time.Time
	ApprovalNote       string `gorm:"size:500"`
	RejectedBy         *uuid.UUID `gorm:"type:uuid"`
	RejectedAt         *time.Time
	RejectionReason    string `gorm:"size:500"`
	ProcessedBy        *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt        *time.Time
	ProcessingNote     string `gorm:"size:500"`

	Lines []ReturnLine `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// NewReturnRequest creates a new return request in PENDING status
func NewReturnRequest(
	code string,
	category ReturnCategory,
	requestedBy uuid.UUID,
	reason string,
) (*ReturnRequest, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Return code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Return code cannot exceed 50 characters")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown return category")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Requester ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Return reason cannot be empty")
	}

	now := time.Now()
	r := &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Category:          category,
		Reason:            reason,
		Status:            ReturnStatusPending,
		TotalValue:        decimal.Zero,
		RequestedBy:       requestedBy,
		RequestedAt:       now,
		Lines:             make([]ReturnLine, 0),
	}

	r.AddDomainEvent(NewReturnCreatedEvent(r))

	return r, nil
}

// SetSourceDocument references the originating document
func (r *ReturnRequest) SetSourceDocument(docType SourceDocumentType, docID uuid.UUID) error {
	if !docType.IsValid() {
		return shared.NewDomainError("INVALID_SOURCE_DOCUMENT", "Unknown source document type")
	}
	if docID == uuid.Nil {
		return shared.NewDomainError("INVALID_SOURCE_DOCUMENT", "Source document ID cannot be empty")
	}
	r.SourceDocumentID = &docID
	r.SourceDocumentType = &docType
	r.UpdatedAt = time.Now()
	return nil
}

// SetNotes sets free-form notes on the request
func (r *ReturnRequest) SetNotes(notes string) {
	r.Notes = notes
	r.UpdatedAt = time.Now()
}

// AddLine adds a line to the return. Lines are fixed once the request has
// left PENDING; TotalValue follows the line set and is immutable afterwards.
func (r *ReturnRequest) AddLine(
	materialID uuid.UUID,
	materialCode, materialName string,
	quantity, unitPrice decimal.Decimal,
	detailReason string,
	sourceLocationID, destinationLocationID *uuid.UUID,
) (*ReturnLine, error) {
	if r.Status != ReturnStatusPending || r.ApprovedAt != nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines after the return left pending")
	}

	line, err := NewReturnLine(
		r.ID, materialID,
		materialCode, materialName,
		quantity, unitPrice,
		detailReason,
		sourceLocationID, destinationLocationID,
	)
	if err != nil {
		return nil, err
	}

	r.Lines = append(r.Lines, *line)
	r.recalculateTotalValue()
	r.UpdatedAt = time.Now()

	return line, nil
}

// LineByID returns a pointer into the line arena, or nil when absent
func (r *ReturnRequest) LineByID(lineID uuid.UUID) *ReturnLine {
	for idx := range r.Lines {
		if r.Lines[idx].ID == lineID {
			return &r.Lines[idx]
		}
	}
	return nil
}

// PendingLines returns pointers to all lines that have no terminal outcome yet
func (r *ReturnRequest) PendingLines() []*ReturnLine {
	pending := make([]*ReturnLine, 0, len(r.Lines))
	for idx := range r.Lines {
		if !r.Lines[idx].Status.IsTerminal() {
			pending = append(pending, &r.Lines[idx])
		}
	}
	return pending
}

// ProcessedLineCount returns how many lines were applied to the ledger
func (r *ReturnRequest) ProcessedLineCount() int {
	count := 0
	for idx := range r.Lines {
		if r.Lines[idx].Status == LineStatusProcessed {
			count++
		}
	}
	return count
}

// Approve approves the return, transitioning from PENDING to APPROVED
func (r *ReturnRequest) Approve(approverID uuid.UUID, note string) error {
	if !r.Status.CanTransitionTo(ReturnStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve return in %s status", r.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Approver ID cannot be empty")
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot approve a return without lines")
	}

	now := time.Now()
	r.Status = ReturnStatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.ApprovalNote = note
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnApprovedEvent(r, approverID))

	return nil
}

// AutoApprove performs the implicit system approval for categories that
// skip the manual approval step.
func (r *ReturnRequest) AutoApprove() error {
	if !r.Category.AutoApproves() {
		return shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("%s returns require manual approval", r.Category))
	}
	return r.Approve(SystemActorID, "auto-approved: internal return")
}

// Reject rejects the return, transitioning from PENDING to REJECTED.
// A rejected request never causes stock side effects.
func (r *ReturnRequest) Reject(rejecterID uuid.UUID, reason string) error {
	if !r.Status.CanTransitionTo(ReturnStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject return in %s status", r.Status))
	}
	if rejecterID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Rejecter ID cannot be empty")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason cannot be empty")
	}

	now := time.Now()
	r.Status = ReturnStatusRejected
	r.RejectedBy = &rejecterID
	r.RejectedAt = &now
	r.RejectionReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnRejectedEvent(r, rejecterID, reason))

	return nil
}

// CanProcess reports whether processing may start
func (r *ReturnRequest) CanProcess() bool {
	return r.Status == ReturnStatusApproved
}

// FinishProcessing records the aggregate outcome after every line has been
// attempted. With at least one processed line the request becomes PROCESSED;
// with none it becomes REJECTED carrying an aggregate reason.
func (r *ReturnRequest) FinishProcessing(processorID uuid.UUID, note string) error {
	if r.Status != ReturnStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finish processing a return in %s status", r.Status))
	}
	if processorID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Processor ID cannot be empty")
	}

	now := time.Now()
	processed := r.ProcessedLineCount()

	if processed > 0 {
		r.Status = ReturnStatusProcessed
		r.ProcessedBy = &processorID
		r.ProcessedAt = &now
		r.ProcessingNote = note
		r.AddDomainEvent(NewReturnProcessedEvent(r, processorID, processed))
	} else {
		r.Status = ReturnStatusRejected
		r.RejectedBy = &processorID
		r.RejectedAt = &now
		r.RejectionReason = "no lines could be processed"
		r.AddDomainEvent(NewReturnRejectedEvent(r, processorID, r.RejectionReason))
	}

	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// recalculateTotalValue recomputes TotalValue from the line subtotals
func (r *ReturnRequest) recalculateTotalValue() {
	total := decimal.Zero
	for idx := range r.Lines {
		total = total.Add(r.Lines[idx].ComputedSubtotal())
	}
	r.TotalValue = total
}
