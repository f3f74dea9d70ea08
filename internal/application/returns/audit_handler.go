package returns

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/domain/shared"
)

// ReturnAuditHandler writes an audit trail entry for every return lifecycle
// event. It is subscribed to the event bus at startup so approvals and stock
// adjustments always leave a structured log record, regardless of which code
// path triggered them.
type ReturnAuditHandler struct {
	logger *zap.Logger
}

// NewReturnAuditHandler creates a new ReturnAuditHandler
func NewReturnAuditHandler(logger *zap.Logger) *ReturnAuditHandler {
	return &ReturnAuditHandler{logger: logger.Named("returns.audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnAuditHandler) EventTypes() []string {
	return []string{
		returns.EventTypeReturnCreated,
		returns.EventTypeReturnApproved,
		returns.EventTypeReturnRejected,
		returns.EventTypeReturnProcessed,
	}
}

// Handle logs one audit entry per lifecycle event
func (h *ReturnAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *returns.ReturnCreatedEvent:
		h.logger.Info("return created",
			zap.String("return_id", e.AggregateID().String()),
			zap.String("code", e.Code),
			zap.String("category", e.Category.String()),
			zap.String("requested_by", e.RequestedBy.String()),
		)
	case *returns.ReturnApprovedEvent:
		h.logger.Info("return approved",
			zap.String("return_id", e.AggregateID().String()),
			zap.String("code", e.Code),
			zap.String("approved_by", e.ApprovedBy.String()),
			zap.String("total_value", e.TotalValue.String()),
		)
	case *returns.ReturnRejectedEvent:
		h.logger.Info("return rejected",
			zap.String("return_id", e.AggregateID().String()),
			zap.String("code", e.Code),
			zap.String("rejected_by", e.RejectedBy.String()),
			zap.String("reason", e.Reason),
		)
	case *returns.ReturnProcessedEvent:
		h.logger.Info("return processed",
			zap.String("return_id", e.AggregateID().String()),
			zap.String("code", e.Code),
			zap.String("processed_by", e.ProcessedBy.String()),
			zap.Int("processed_lines", e.ProcessedLines),
			zap.String("total_value", e.TotalValue.String()),
		)
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*ReturnAuditHandler)(nil)
