package returns

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/domain/shared"
)

// maxStockRetries bounds the reload-and-retry loop around optimistic
// ledger writes. Exhaustion rejects the line rather than blocking the batch.
const maxStockRetries = 3

// WorkflowService drives the return lifecycle: submission with validation,
// approval and rejection decisions, and processing approved returns into
// stock ledger adjustments.
//
// All state-changing operations on a given return are serialized through a
// per-return mutex, so two concurrent approvals (or a concurrent approve and
// process) of the same request never interleave. Cross-request operations run
// concurrently.
type WorkflowService struct {
	returnRepo     returns.ReturnRepository
	ledger         inventory.StockLedger
	validator      *returns.LineValidator
	policy         *returns.MovementPolicy
	codes          *CodeGenerator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	returnRepo returns.ReturnRepository,
	ledger inventory.StockLedger,
	validator *returns.LineValidator,
	policy *returns.MovementPolicy,
	codes *CodeGenerator,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		returnRepo: returnRepo,
		ledger:     ledger,
		validator:  validator,
		policy:     policy,
		codes:      codes,
		logger:     logger,
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *WorkflowService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// lockFor returns the mutex serializing operations on one return.
// Mutexes are created lazily and kept for the process lifetime.
func (s *WorkflowService) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// Submit validates a return request and, when every line passes, persists it
// atomically. Any invalid line fails the whole submission and nothing is
// created; the per-line report tells the caller exactly which lines failed
// and why. Internal returns are auto-approved and processed in the same call.
func (s *WorkflowService) Submit(ctx context.Context, req SubmitReturnRequest) (*SubmitReturnResponse, error) {
	if !req.Category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown return category")
	}
	if req.RequestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Requester ID cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Return must contain at least one line")
	}

	lineRequests := make([]returns.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lineRequests = append(lineRequests, returns.LineRequest{
			MaterialID:            l.MaterialID,
			Quantity:              l.Quantity,
			UnitPrice:             l.UnitPrice,
			DetailReason:          l.DetailReason,
			SourceLocationID:      l.SourceLocationID,
			DestinationLocationID: l.DestinationLocationID,
		})
	}

	results, err := s.validator.Validate(ctx, lineRequests)
	if err != nil {
		return nil, fmt.Errorf("validate return lines: %w", err)
	}

	validation := make([]LineValidationResponse, 0, len(results))
	allValid := true
	for _, res := range results {
		validation = append(validation, newLineValidationResponse(res))
		if !res.Valid {
			allValid = false
		}
	}
	if !allValid {
		return &SubmitReturnResponse{
			Success:    false,
			Validation: validation,
			Message:    "validation failed, nothing was created",
		}, nil
	}

	// The code scope lock stays held until Create returns, so the next
	// submission in the same scope sees this code when it reads the sequence.
	var (
		request      *returns.ReturnRequest
		fallbackCode bool
	)
	err = s.codes.WithNextCode(ctx, req.Category, func(code GeneratedCode) error {
		built, err := s.buildRequest(req, results, code.Code)
		if err != nil {
			return err
		}
		if err := s.returnRepo.Create(ctx, built); err != nil {
			return fmt.Errorf("create return request: %w", err)
		}
		request = built
		fallbackCode = code.Fallback
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, request)

	resp := &SubmitReturnResponse{
		Success:    true,
		ReturnID:   &request.ID,
		Code:       request.Code,
		Status:     request.Status,
		TotalValue: request.TotalValue,
		Validation: validation,
		Message:    "return submitted",
	}
	if fallbackCode {
		resp.Message = "return submitted with fallback code"
	}

	if request.Status == returns.ReturnStatusApproved {
		process, err := s.Process(ctx, request.ID, returns.SystemActorID, "auto-processed: internal return")
		if err != nil {
			s.logger.Error("automatic processing of internal return failed",
				zap.String("return_id", request.ID.String()),
				zap.String("code", request.Code),
				zap.Error(err),
			)
			resp.Message = "return submitted, automatic processing failed"
			return resp, nil
		}
		resp.Process = process
		resp.Status = process.FinalStatus
	}

	return resp, nil
}

// buildRequest assembles the aggregate from a validated submission
func (s *WorkflowService) buildRequest(
	req SubmitReturnRequest,
	results []returns.ValidationResult,
	code string,
) (*returns.ReturnRequest, error) {
	request, err := returns.NewReturnRequest(code, req.Category, req.RequestedBy, req.Reason)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		request.SetNotes(req.Notes)
	}
	if req.SourceDocumentID != nil || req.SourceDocumentType != nil {
		if req.SourceDocumentID == nil || req.SourceDocumentType == nil {
			return nil, shared.NewDomainError("INVALID_SOURCE_DOCUMENT", "Source document requires both type and ID")
		}
		if err := request.SetSourceDocument(*req.SourceDocumentType, *req.SourceDocumentID); err != nil {
			return nil, err
		}
	}

	for i, l := range req.Lines {
		meta := results[i].Material
		if _, err := request.AddLine(
			l.MaterialID,
			meta.Code, meta.Name,
			l.Quantity, meta.EffectiveUnitPrice(l.UnitPrice),
			l.DetailReason,
			l.SourceLocationID, l.DestinationLocationID,
		); err != nil {
			return nil, err
		}
	}

	if req.Category.AutoApproves() {
		if err := request.AutoApprove(); err != nil {
			return nil, err
		}
	}
	return request, nil
}

// Approve transitions a pending return to approved
func (s *WorkflowService) Approve(ctx context.Context, id, approverID uuid.UUID, note string) (*ReturnResponse, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Approve(approverID, note); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, request); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, request)

	return NewReturnResponse(request), nil
}

// Reject transitions a pending return to rejected
func (s *WorkflowService) Reject(ctx context.Context, id, rejecterID uuid.UUID, reason string) (*ReturnResponse, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Reject(rejecterID, reason); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, request); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, request)

	return NewReturnResponse(request), nil
}

// Process applies an approved return to the stock ledger, line by line.
// Each line is re-validated against live stock at processing time; a line
// that no longer passes is rejected with a note while the remaining lines
// proceed. The return ends PROCESSED when at least one line applied and
// REJECTED when none did.
//
// Lines already in a terminal state are skipped, so a retry after a partial
// failure resumes where the previous attempt stopped and never double-applies.
func (s *WorkflowService) Process(ctx context.Context, id, processorID uuid.UUID, note string) (*ProcessReturnResponse, error) {
	if processorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Processor ID cannot be empty")
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.CanProcess() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Return in status %s cannot be processed", request.Status))
	}

	outcomes := make([]LineOutcomeResponse, 0, len(request.Lines))
	totalApplied := 0

	for idx := range request.Lines {
		line := &request.Lines[idx]

		if line.Status.IsTerminal() {
			outcomes = append(outcomes, LineOutcomeResponse{
				LineID:        line.ID,
				MaterialID:    line.MaterialID,
				Status:        line.Status,
				RejectionNote: line.RejectionNote,
			})
			continue
		}

		applied, err := s.processLine(ctx, request, line, processorID)
		if err != nil {
			// Infrastructure failure: stop here with lines processed so far
			// persisted. The return stays approved and a retry resumes.
			return nil, err
		}

		totalApplied += applied
		outcomes = append(outcomes, LineOutcomeResponse{
			LineID:           line.ID,
			MaterialID:       line.MaterialID,
			Status:           line.Status,
			RejectionNote:    line.RejectionNote,
			MovementsApplied: applied,
		})
	}

	if err := request.FinishProcessing(processorID, note); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, request); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, request)

	processed := request.ProcessedLineCount()
	resp := &ProcessReturnResponse{
		Success:          request.Status == returns.ReturnStatusProcessed,
		ReturnID:         request.ID,
		FinalStatus:      request.Status,
		Lines:            outcomes,
		MovementsApplied: totalApplied,
		Message:          fmt.Sprintf("%d of %d lines processed", processed, len(request.Lines)),
	}
	return resp, nil
}

// processLine re-validates one line, resolves its movement plans and applies
// them. Domain failures reject the line and persist the terminal state;
// infrastructure failures propagate without touching the line.
func (s *WorkflowService) processLine(
	ctx context.Context,
	request *returns.ReturnRequest,
	line *returns.ReturnLine,
	processorID uuid.UUID,
) (int, error) {
	results, err := s.validator.Validate(ctx, []returns.LineRequest{{
		MaterialID:            line.MaterialID,
		Quantity:              line.Quantity,
		UnitPrice:             &line.UnitPrice,
		DetailReason:          line.DetailReason,
		SourceLocationID:      line.SourceLocationID,
		DestinationLocationID: line.DestinationLocationID,
	}})
	if err != nil {
		return 0, fmt.Errorf("revalidate line %s: %w", line.ID, err)
	}
	if !results[0].Valid {
		return 0, s.rejectLine(ctx, line, results[0].RejectionReason)
	}

	plans, err := s.policy.Resolve(request.Category, line)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return 0, s.rejectLine(ctx, line, domainErr.Message)
		}
		return 0, err
	}

	applied, err := s.applyPlans(ctx, request, line, plans, processorID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return 0, s.rejectLine(ctx, line, domainErr.Message)
		}
		return 0, err
	}

	if err := line.MarkProcessed(); err != nil {
		return applied, err
	}
	if err := s.returnRepo.SaveLine(ctx, line); err != nil {
		return applied, fmt.Errorf("save processed line %s: %w", line.ID, err)
	}
	return applied, nil
}

func (s *WorkflowService) rejectLine(ctx context.Context, line *returns.ReturnLine, reason string) error {
	if err := line.MarkRejected(reason); err != nil {
		return err
	}
	if err := s.returnRepo.SaveLine(ctx, line); err != nil {
		return fmt.Errorf("save rejected line %s: %w", line.ID, err)
	}
	return nil
}

// appliedPlan remembers one successful ledger write so a later failure in
// the same line can reverse it.
type appliedPlan struct {
	plan returns.MovementPlan
}

// applyPlans applies every movement plan of one line, or none of them.
// When a later plan fails after an earlier one was written, the earlier
// writes are reversed so a line never half-applies. The reversal goes
// through the same optimistic-locking path as the original write.
func (s *WorkflowService) applyPlans(
	ctx context.Context,
	request *returns.ReturnRequest,
	line *returns.ReturnLine,
	plans []returns.MovementPlan,
	processorID uuid.UUID,
) (int, error) {
	appliedSoFar := make([]appliedPlan, 0, len(plans))
	for _, plan := range plans {
		if err := s.applyPlan(ctx, request, line, plan, plan.Delta, processorID, request.Code); err != nil {
			s.reverseApplied(ctx, request, line, appliedSoFar, processorID)
			return 0, err
		}
		appliedSoFar = append(appliedSoFar, appliedPlan{plan: plan})
	}
	return len(plans), nil
}

// applyPlan performs one atomic read-modify-write against the stock ledger,
// retrying on version conflicts up to maxStockRetries.
func (s *WorkflowService) applyPlan(
	ctx context.Context,
	request *returns.ReturnRequest,
	line *returns.ReturnLine,
	plan returns.MovementPlan,
	delta decimal.Decimal,
	processorID uuid.UUID,
	reference string,
) error {
	for attempt := 0; attempt < maxStockRetries; attempt++ {
		stock, err := s.ledger.GetOrCreateStock(ctx, line.MaterialID, plan.LocationID)
		if err != nil {
			return fmt.Errorf("load stock for material %s: %w", line.MaterialID, err)
		}

		if err := stock.Adjust(delta, reference); err != nil {
			return err
		}

		if err := s.ledger.SaveWithLock(ctx, stock); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			return err
		}

		movement, err := inventory.NewStockMovement(
			stock, delta,
			inventory.MovementSourceReturn, &request.ID,
			reference, processorID,
		)
		if err != nil {
			return err
		}
		if err := s.ledger.RecordMovement(ctx, movement); err != nil {
			// The adjustment is committed; a missing audit row is logged,
			// not rolled back.
			s.logger.Error("failed to record stock movement",
				zap.String("return_id", request.ID.String()),
				zap.String("material_id", line.MaterialID.String()),
				zap.Error(err),
			)
		}
		return nil
	}
	return shared.NewDomainError("CONCURRENCY_CONFLICT",
		fmt.Sprintf("Stock for material %s kept changing, giving up after %d attempts", line.MaterialID, maxStockRetries))
}

// reverseApplied undoes ledger writes of a partially applied line, best effort
func (s *WorkflowService) reverseApplied(
	ctx context.Context,
	request *returns.ReturnRequest,
	line *returns.ReturnLine,
	applied []appliedPlan,
	processorID uuid.UUID,
) {
	for _, a := range applied {
		reverse := a.plan.Delta.Neg()
		if err := s.applyPlan(ctx, request, line, a.plan, reverse, processorID, request.Code+" reversal"); err != nil {
			s.logger.Error("failed to reverse partial line application",
				zap.String("return_id", request.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.String("location_id", a.plan.LocationID.String()),
				zap.Error(err),
			)
		}
	}
}

// GetReturn loads a single return with its lines
func (s *WorkflowService) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnResponse, error) {
	request, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewReturnResponse(request), nil
}

// GetReturnByCode loads a single return by its business code
func (s *WorkflowService) GetReturnByCode(ctx context.Context, code string) (*ReturnResponse, error) {
	request, err := s.returnRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return NewReturnResponse(request), nil
}

// ListReturns returns a filtered, paginated list of returns
func (s *WorkflowService) ListReturns(ctx context.Context, filter ReturnListFilter) (*shared.Paginated[ReturnResponse], error) {
	f := toSharedFilter(filter)

	var (
		requests []returns.ReturnRequest
		err      error
	)
	if filter.Status != nil {
		requests, err = s.returnRepo.FindByStatus(ctx, *filter.Status, f)
	} else {
		requests, err = s.returnRepo.FindAll(ctx, f)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.returnRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]ReturnResponse, 0, len(requests))
	for i := range requests {
		items = append(items, *NewReturnResponse(&requests[i]))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// ListPendingReturns returns the approval queue
func (s *WorkflowService) ListPendingReturns(ctx context.Context, filter ReturnListFilter) (*shared.Paginated[ReturnResponse], error) {
	pending := returns.ReturnStatusPending
	filter.Status = &pending
	return s.ListReturns(ctx, filter)
}

func toSharedFilter(filter ReturnListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search
	if filter.Category != nil {
		f.Filters["category"] = string(*filter.Category)
	}
	if filter.Status != nil {
		f.Filters["status"] = string(*filter.Status)
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		f.Filters["to"] = *filter.To
	}
	return f
}

func (s *WorkflowService) publishEvents(ctx context.Context, request *returns.ReturnRequest) {
	if s.eventPublisher == nil {
		request.ClearDomainEvents()
		return
	}
	events := request.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish return events",
			zap.String("return_id", request.ID.String()),
			zap.Error(err),
		)
	}
	request.ClearDomainEvents()
}
