package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	returnsapp "github.com/wms/backend/internal/application/returns"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// ReturnHandler handles the materials-return API endpoints
type ReturnHandler struct {
	BaseHandler
	workflow *returnsapp.WorkflowService
	summary  *returnsapp.SummaryService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(workflow *returnsapp.WorkflowService, summary *returnsapp.SummaryService) *ReturnHandler {
	return &ReturnHandler{
		workflow: workflow,
		summary:  summary,
	}
}

// ApprovalRequest carries the optional note for an approval
type ApprovalRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// RejectionRequest carries the mandatory reason for a rejection
type RejectionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ProcessRequest carries the optional note recorded on the processed return
type ProcessRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// SummaryQuery holds the reporting window parameters
type SummaryQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
	Top  int        `form:"top" binding:"omitempty,min=1,max=50"`
}

// Submit creates a new return request. Validation failures reject the whole
// submission; nothing is persisted and the per-line outcomes are returned.
func (h *ReturnHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be determined")
		return
	}

	var req returnsapp.SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.RequestedBy = userID

	resp, err := h.workflow.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !resp.Success {
		c.JSON(http.StatusUnprocessableEntity, dto.Response{
			Success: false,
			Data:    resp,
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeValidation,
				Message:   resp.Message,
				RequestID: getRequestID(c),
			},
		})
		return
	}

	h.Created(c, resp)
}

// Get returns a single return request by ID
func (h *ReturnHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	resp, err := h.workflow.GetReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByCode returns a single return request by its document code
func (h *ReturnHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Return code cannot be empty")
		return
	}

	resp, err := h.workflow.GetReturnByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a paginated list of return requests
func (h *ReturnHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.workflow.ListReturns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListPending returns the approval queue, oldest first
func (h *ReturnHandler) ListPending(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.workflow.ListPendingReturns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Approve approves a pending return
func (h *ReturnHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be determined")
		return
	}

	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.workflow.Approve(c.Request.Context(), id, userID, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject rejects a pending or approved return
func (h *ReturnHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be determined")
		return
	}

	var req RejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.workflow.Reject(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Process applies an approved return to the stock ledger
func (h *ReturnHandler) Process(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user could not be determined")
		return
	}

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.workflow.Process(c.Request.Context(), id, userID, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Summary reports aggregate return counts, values and top materials for a window
func (h *ReturnHandler) Summary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		h.BadRequest(c, "Summary window end cannot precede its start")
		return
	}

	topN := query.Top
	if topN == 0 {
		topN = returnsapp.DefaultTopMaterials
	}

	resp, err := h.summary.Summarize(c.Request.Context(), query.From, query.To, topN)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
